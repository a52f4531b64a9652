package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Screen is a single screenshot inside a flow. Screens may nest under a parent
// screen; Level and Path describe that position.
type Screen struct {
	ID            uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	FlowID        uuid.UUID                   `json:"flow_id" gorm:"type:uuid;index;not null"`
	ParentID      *uuid.UUID                  `json:"parent_id" gorm:"type:uuid"`
	Title         string                      `json:"title" gorm:"not null"`
	DisplayName   string                      `json:"display_name"`
	ScreenshotURL string                      `json:"screenshot_url"`
	ScreenshotKey string                      `json:"-"`
	Notes         string                      `json:"notes"`
	OrderIndex    int                         `json:"order_index" gorm:"not null;default:0"`
	Level         int                         `json:"level" gorm:"not null;default:0"`
	Path          string                      `json:"path"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt     time.Time                   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt              `json:"-" gorm:"index"`
}

func (s *Screen) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Tags == nil {
		s.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}
