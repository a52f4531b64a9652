package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultInteractionType is applied to hotspots created without one.
const DefaultInteractionType = "navigate"

// ScreenHotspot marks an interactive region of a screen. Coordinates are
// percentages of the screenshot size.
type ScreenHotspot struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ScreenID           uuid.UUID      `json:"screen_id" gorm:"type:uuid;index;not null"`
	XPosition          float64        `json:"x_position"`
	YPosition          float64        `json:"y_position"`
	Width              float64        `json:"width"`
	Height             float64        `json:"height"`
	ElementType        string         `json:"element_type"`
	ElementLabel       string         `json:"element_label"`
	ElementDescription string         `json:"element_description"`
	TargetScreenID     *uuid.UUID     `json:"target_screen_id" gorm:"type:uuid"`
	InteractionType    string         `json:"interaction_type" gorm:"not null;default:'navigate'"`
	ConfidenceScore    *float64       `json:"confidence_score"`
	IsAIGenerated      bool           `json:"is_ai_generated" gorm:"column:is_ai_generated;not null;default:false"`
	OrderIndex         int            `json:"order_index" gorm:"not null;default:0"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ScreenHotspot) TableName() string {
	return "screen_hotspots"
}

func (h *ScreenHotspot) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.InteractionType == "" {
		h.InteractionType = DefaultInteractionType
	}
	return nil
}
