package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultProjectColor is used when a project is created without a colour.
const DefaultProjectColor = "#3b82f6"

// Project is the top-level container, owned by a user or by an organization.
type Project struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Color       string         `json:"color" gorm:"not null;default:'#3b82f6'"`
	AvatarURL   string         `json:"avatar_url"`
	ShareToken  *string        `json:"share_token,omitempty" gorm:"uniqueIndex"`
	IsPublic    bool           `json:"is_public" gorm:"not null;default:false"`
	UserID      string         `json:"user_id" gorm:"index;not null"`
	ClerkOrgID  string         `json:"clerk_org_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Flows       []Flow         `json:"flows,omitempty" gorm:"foreignKey:ProjectID"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Color == "" {
		p.Color = DefaultProjectColor
	}
	return nil
}
