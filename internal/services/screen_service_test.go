package services

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow-service/internal/imaging"
	"userflow-service/internal/validation"
)

func newScreenService(f *fixture, store BlobStore, rec Recorder) *ScreenService {
	return NewScreenService(f.repos, ScreenServiceConfig{
		Store:          store,
		Encoding:       imaging.DefaultOptions(),
		UploadMaxBytes: 1 << 20,
		Recorder:       rec,
	})
}

func TestScreenService_CreateNested(t *testing.T) {
	f := newFixture(t)
	svc := newScreenService(f, nil, nil)
	_, fl, root := f.tree(t, alice)

	child, err := svc.Create(alice, fl.ID, ScreenInput{Title: "Details", ParentID: &root.ID, Tags: []string{"form"}})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "/"+root.ID.String(), child.Path)
	assert.Equal(t, "Details", child.DisplayName)
	assert.Equal(t, root.OrderIndex+1, child.OrderIndex)

	grandchild, err := svc.Create(alice, fl.ID, ScreenInput{Title: "Deeper", ParentID: &child.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, grandchild.Level)
	assert.Equal(t, child.Path+"/"+child.ID.String(), grandchild.Path)

	other := f.flow(t, fl.ProjectID, "Other")
	_, err = svc.Create(alice, other.ID, ScreenInput{Title: "x", ParentID: &root.ID})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "parent_id", verr.Field)
}

func TestScreenService_UpdateAndReorder(t *testing.T) {
	f := newFixture(t)
	svc := newScreenService(f, nil, nil)
	_, fl, first := f.tree(t, alice)
	second := f.screen(t, fl.ID, "Second")

	got, err := svc.Update(alice, first.ID, ScreenPatch{Notes: ptr("copy tweak"), Tags: &[]string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "copy tweak", got.Notes)
	assert.Equal(t, []string{"a", "b"}, []string(got.Tags))

	screens, err := svc.Reorder(alice, fl.ID, []uuid.UUID{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, screens, 2)
	assert.Equal(t, second.ID, screens[0].ID)

	require.NoError(t, svc.Delete(alice, second.ID))
	screens, err = svc.ListByFlow(alice, fl.ID)
	require.NoError(t, err)
	assert.Len(t, screens, 1)
}

func TestScreenService_UploadScreenshot(t *testing.T) {
	f := newFixture(t)
	store := newMemStore()
	rec := &countingRecorder{}
	svc := newScreenService(f, store, rec)
	_, _, sc := f.tree(t, alice)

	data := pngBytes(t, 200, 100)
	got, err := svc.UploadScreenshot(context.Background(), alice, sc.ID, ScreenshotUpload{
		ContentType: "image/png", Size: int64(len(data)), Data: bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.ScreenshotURL, "https://cdn.test/screens/"+sc.ID.String()+"/"))
	assert.Contains(t, store.objects, got.ScreenshotKey)
	assert.Equal(t, 1, rec.encodes)

	firstKey := got.ScreenshotKey
	got, err = svc.UploadScreenshot(context.Background(), alice, sc.ID, ScreenshotUpload{
		ContentType: "image/png", Size: int64(len(data)), Data: bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, got.ScreenshotKey)
	assert.Equal(t, []string{firstKey}, store.removed)
}

func TestScreenService_UploadRejections(t *testing.T) {
	f := newFixture(t)
	_, _, sc := f.tree(t, alice)
	upload := ScreenshotUpload{ContentType: "image/png", Size: 3, Data: strings.NewReader("abc")}

	_, err := newScreenService(f, nil, nil).UploadScreenshot(context.Background(), alice, sc.ID, upload)
	var nc *NotConfiguredError
	assert.ErrorAs(t, err, &nc)

	svc := newScreenService(f, newMemStore(), nil)
	var verr *validation.Error

	_, err = svc.UploadScreenshot(context.Background(), alice, sc.ID, ScreenshotUpload{ContentType: "text/plain", Size: 3, Data: strings.NewReader("abc")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)

	_, err = svc.UploadScreenshot(context.Background(), alice, sc.ID, upload)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)

	_, err = svc.UploadScreenshot(context.Background(), alice, sc.ID, ScreenshotUpload{ContentType: "image/png", Size: 2 << 20, Data: strings.NewReader("abc")})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UploadScreenshot(context.Background(), bob, sc.ID, upload)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestScreenService_UploadRejectsOversizedImage(t *testing.T) {
	f := newFixture(t)
	store := newMemStore()
	_, _, sc := f.tree(t, alice)

	enc := imaging.DefaultOptions()
	enc.MaxPixels = 100 * 100
	svc := NewScreenService(f.repos, ScreenServiceConfig{Store: store, Encoding: enc, UploadMaxBytes: 1 << 20})

	data := pngBytes(t, 200, 100)
	_, err := svc.UploadScreenshot(context.Background(), alice, sc.ID, ScreenshotUpload{
		ContentType: "image/png", Size: int64(len(data)), Data: bytes.NewReader(data),
	})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)
	assert.Empty(t, store.objects)
}

func writeArchive(t *testing.T, files map[string][]byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "import.zip")
	out, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return p
}

func TestScreenService_ImportArchive(t *testing.T) {
	f := newFixture(t)
	store := newMemStore()
	svc := newScreenService(f, store, nil)
	_, fl, existing := f.tree(t, alice)

	archive := writeArchive(t, map[string][]byte{
		"flow/02-cart.png":    pngBytes(t, 40, 30),
		"flow/01-home.png":    pngBytes(t, 40, 30),
		"flow/broken.png":     []byte("not an image"),
		"flow/readme.txt":     []byte("ignored"),
		"__MACOSX/._home.png": []byte("fork"),
	})

	res, err := svc.ImportArchive(context.Background(), alice, fl.ID, archive)
	require.NoError(t, err)
	require.Len(t, res.Screens, 2)
	assert.Equal(t, "01-home", res.Screens[0].Title)
	assert.Equal(t, "02-cart", res.Screens[1].Title)
	assert.Equal(t, existing.OrderIndex+1, res.Screens[0].OrderIndex)
	assert.Equal(t, existing.OrderIndex+2, res.Screens[1].OrderIndex)
	assert.Equal(t, []string{"flow/broken.png"}, res.Skipped)
	assert.Len(t, store.objects, 2)

	screens, err := svc.ListByFlow(alice, fl.ID)
	require.NoError(t, err)
	assert.Len(t, screens, 3)
}

func TestScreenService_ImportArchiveWithoutImages(t *testing.T) {
	f := newFixture(t)
	svc := newScreenService(f, newMemStore(), nil)
	_, fl, _ := f.tree(t, alice)

	archive := writeArchive(t, map[string][]byte{"notes.txt": []byte("hi")})
	_, err := svc.ImportArchive(context.Background(), alice, fl.ID, archive)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)
}
