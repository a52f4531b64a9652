package auth

import (
	"context"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/organization"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/pkg/errors"
)

var (
	_ Verifier            = (*Clerk)(nil)
	_ UserDirectory       = (*Clerk)(nil)
	_ OrganizationCreator = (*Clerk)(nil)
)

// Clerk adapts the Clerk backend API to the Verifier, UserDirectory and
// OrganizationCreator interfaces.
type Clerk struct{}

// NewClerk configures the Clerk SDK with the secret key.
func NewClerk(secretKey string) *Clerk {
	clerk.SetKey(secretKey)
	return &Clerk{}
}

func (c *Clerk) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return Identity{}, errors.Wrap(err, "verify session token")
	}
	return Identity{UserID: claims.Subject, OrgID: claims.ActiveOrganizationID}, nil
}

func (c *Clerk) LookupUser(ctx context.Context, userID string) (UserProfile, error) {
	u, err := user.Get(ctx, userID)
	if err != nil {
		return UserProfile{}, errors.Wrap(err, "lookup user")
	}
	return UserProfile{
		Name:      displayName(deref(u.FirstName), deref(u.LastName), deref(u.Username)),
		AvatarURL: deref(u.ImageURL),
	}, nil
}

func (c *Clerk) CreateOrganization(ctx context.Context, name, slug, createdBy string) (*Organization, error) {
	org, err := organization.Create(ctx, &organization.CreateParams{
		Name:      clerk.String(name),
		Slug:      clerk.String(slug),
		CreatedBy: clerk.String(createdBy),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create organization")
	}
	return &Organization{ID: org.ID, Name: org.Name}, nil
}

// displayName prefers "First Last", then the username, then "Anonymous".
func displayName(first, last, username string) string {
	if first != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if username != "" {
		return username
	}
	return "Anonymous"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
