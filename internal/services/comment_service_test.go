package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow-service/internal/auth"
	"userflow-service/internal/validation"
)

func TestCommentService_CreateResolvesAuthor(t *testing.T) {
	f := newFixture(t)
	dir := stubDirectory{profiles: map[string]auth.UserProfile{
		alice.UserID: {Name: "Alice Liddell", AvatarURL: "https://img.test/a.png"},
	}}
	svc := NewCommentService(f.repos, dir)
	_, _, sc := f.tree(t, alice)

	c, err := svc.Create(context.Background(), alice, sc.ID, CommentInput{XPosition: 10, YPosition: 20, CommentText: " Button too small "})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", c.UserName)
	assert.Equal(t, "https://img.test/a.png", c.UserAvatar)
	assert.Equal(t, "Button too small", c.CommentText)

	acme := f.project(t, acmeAlice)
	acmeFlow := f.flow(t, acme.ID, "Team")
	acmeScreen := f.screen(t, acmeFlow.ID, "Home")
	c2, err := svc.Create(context.Background(), acmeBob, acmeScreen.ID, CommentInput{CommentText: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", c2.UserName)
}

func TestCommentService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.repos, nil)
	_, fl, sc := f.tree(t, alice)
	other := f.screen(t, fl.ID, "Other")

	var verr *validation.Error
	_, err := svc.Create(context.Background(), alice, sc.ID, CommentInput{CommentText: "x", XPosition: 120})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "x_position", verr.Field)

	_, err = svc.Create(context.Background(), alice, sc.ID, CommentInput{CommentText: ""})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "comment_text", verr.Field)

	parent, err := svc.Create(context.Background(), alice, other.ID, CommentInput{CommentText: "root"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), alice, sc.ID, CommentInput{CommentText: "reply", ParentCommentID: &parent.ID})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "parent_comment_id", verr.Field)

	reply, err := svc.Create(context.Background(), alice, other.ID, CommentInput{CommentText: "reply", ParentCommentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *reply.ParentCommentID)
}

func TestCommentService_ListOldestFirst(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.repos, nil)
	_, _, sc := f.tree(t, alice)

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.Create(context.Background(), alice, sc.ID, CommentInput{CommentText: text})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	list, err := svc.List(alice, sc.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].CommentText)
	assert.Equal(t, "third", list[2].CommentText)

	_, err = svc.List(bob, sc.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCommentService_ResolveCycle(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.repos, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	_, _, sc := f.tree(t, alice)

	c, err := svc.Create(context.Background(), alice, sc.ID, CommentInput{CommentText: "fix"})
	require.NoError(t, err)

	resolved, err := svc.Update(alice, c.ID, CommentPatch{IsResolved: ptr(true)})
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, fixed.Equal(*resolved.ResolvedAt))
	assert.Equal(t, alice.UserID, *resolved.ResolvedBy)

	reopened, err := svc.Update(alice, c.ID, CommentPatch{IsResolved: ptr(false)})
	require.NoError(t, err)
	assert.False(t, reopened.IsResolved)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ResolvedBy)
}

func TestCommentService_AuthorOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.repos, nil)
	p := f.project(t, acmeAlice)
	fl := f.flow(t, p.ID, "Team")
	sc := f.screen(t, fl.ID, "Home")

	c, err := svc.Create(context.Background(), acmeAlice, sc.ID, CommentInput{CommentText: "mine"})
	require.NoError(t, err)

	_, err = svc.Update(acmeBob, c.ID, CommentPatch{CommentText: ptr("hijack")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(acmeBob, c.ID), ErrForbidden)

	_, err = svc.Update(nobody, c.ID, CommentPatch{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.Delete(acmeAlice, uuid.New()), &nf)

	require.NoError(t, svc.Delete(acmeAlice, c.ID))
	list, err := svc.List(acmeAlice, sc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHotspotService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewHotspotService(f.repos)
	_, fl, sc := f.tree(t, alice)
	target := f.screen(t, fl.ID, "Next")

	h, err := svc.Create(alice, sc.ID, HotspotInput{
		XPosition: ptr(10.0), YPosition: ptr(20.0), Width: ptr(30.0), Height: ptr(5.0),
		ElementType: "button", TargetScreenID: &target.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "navigate", h.InteractionType)
	assert.Equal(t, 0, h.OrderIndex)

	h2, err := svc.Create(alice, sc.ID, HotspotInput{
		XPosition: ptr(0.0), YPosition: ptr(0.0), Width: ptr(100.0), Height: ptr(100.0), InteractionType: "modal",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h2.OrderIndex)

	list, err := svc.List(alice, sc.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, h.ID, list[0].ID)
}

func TestHotspotService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewHotspotService(f.repos)
	_, _, sc := f.tree(t, alice)
	_, _, foreign := f.tree(t, bob)

	cases := []struct {
		name  string
		in    HotspotInput
		field string
	}{
		{"missing width", HotspotInput{XPosition: ptr(1.0), YPosition: ptr(1.0), Height: ptr(1.0)}, "width"},
		{"x out of range", HotspotInput{XPosition: ptr(101.0), YPosition: ptr(1.0), Width: ptr(1.0), Height: ptr(1.0)}, "x_position"},
		{"negative height", HotspotInput{XPosition: ptr(1.0), YPosition: ptr(1.0), Width: ptr(1.0), Height: ptr(-1.0)}, "height"},
		{"confidence", HotspotInput{XPosition: ptr(1.0), YPosition: ptr(1.0), Width: ptr(1.0), Height: ptr(1.0), ConfidenceScore: ptr(1.5)}, "confidence_score"},
		{"foreign target", HotspotInput{XPosition: ptr(1.0), YPosition: ptr(1.0), Width: ptr(1.0), Height: ptr(1.0), TargetScreenID: &foreign.ID}, "target_screen_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(alice, sc.ID, tc.in)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestHotspotService_UpdatePartialAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewHotspotService(f.repos)
	_, _, sc := f.tree(t, alice)

	h, err := svc.Create(alice, sc.ID, HotspotInput{XPosition: ptr(10.0), YPosition: ptr(10.0), Width: ptr(10.0), Height: ptr(10.0)})
	require.NoError(t, err)

	got, err := svc.Update(alice, h.ID, HotspotPatch{Width: ptr(50.0), ElementLabel: ptr("Buy")})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Width)
	assert.Equal(t, 10.0, got.XPosition)
	assert.Equal(t, "Buy", got.ElementLabel)

	_, err = svc.Update(alice, h.ID, HotspotPatch{YPosition: ptr(-3.0)})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "y_position", verr.Field)

	_, err = svc.Update(bob, h.ID, HotspotPatch{})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(alice, h.ID))
	var nf *NotFoundError
	assert.ErrorAs(t, svc.Delete(alice, h.ID), &nf)
}
