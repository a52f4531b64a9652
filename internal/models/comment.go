package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScreenComment is a pinned comment on a screen, optionally a reply.
type ScreenComment struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ScreenID        uuid.UUID      `json:"screen_id" gorm:"type:uuid;index;not null"`
	UserID          string         `json:"user_id" gorm:"not null"`
	UserName        string         `json:"user_name"`
	UserAvatar      string         `json:"user_avatar"`
	XPosition       float64        `json:"x_position"`
	YPosition       float64        `json:"y_position"`
	CommentText     string         `json:"comment_text" gorm:"type:text;not null"`
	IsResolved      bool           `json:"is_resolved" gorm:"not null;default:false"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	ResolvedBy      *string        `json:"resolved_by"`
	ParentCommentID *uuid.UUID     `json:"parent_comment_id" gorm:"type:uuid"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ScreenComment) TableName() string {
	return "screen_comments"
}

func (c *ScreenComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
