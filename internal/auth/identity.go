// Package auth resolves caller identity from the identity provider and
// decides ownership of projects.
package auth

import (
	"context"

	"gorm.io/gorm"

	"userflow-service/internal/models"
)

// Identity is the authenticated caller. OrgID is the active organization and
// may be empty for personal workspaces.
type Identity struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id,omitempty"`
}

// Empty reports whether no identity was established.
func (i Identity) Empty() bool {
	return i.UserID == "" && i.OrgID == ""
}

// CanAccess reports whether the identity owns the project, either through
// the active organization or personally.
func (i Identity) CanAccess(p *models.Project) bool {
	if p == nil || i.Empty() {
		return false
	}
	if i.OrgID != "" {
		return p.ClerkOrgID == i.OrgID
	}
	return p.UserID == i.UserID
}

// AccessScope filters a projects query down to what the identity may see.
func AccessScope(i Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case i.OrgID != "":
			return db.Where("clerk_org_id = ?", i.OrgID)
		case i.UserID != "":
			return db.Where("user_id = ?", i.UserID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// Verifier turns a session token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// UserProfile is the display information for a user.
type UserProfile struct {
	Name      string
	AvatarURL string
}

// UserDirectory looks up display information for a user id.
type UserDirectory interface {
	LookupUser(ctx context.Context, userID string) (UserProfile, error)
}

// Organization is the subset of provider organization data the service uses.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrganizationCreator creates organizations in the identity provider.
type OrganizationCreator interface {
	CreateOrganization(ctx context.Context, name, slug, createdBy string) (*Organization, error)
}
