package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow is an ordered sequence of screens within a project.
type Flow struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;index;not null"`
	Name           string         `json:"name" gorm:"not null"`
	Description    string         `json:"description"`
	OrderIndex     int            `json:"order_index" gorm:"not null;default:0"`
	ParentScreenID *uuid.UUID     `json:"parent_screen_id" gorm:"type:uuid"`
	ParentFlowID   *uuid.UUID     `json:"parent_flow_id" gorm:"type:uuid"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	Screens        []Screen       `json:"screens,omitempty" gorm:"foreignKey:FlowID"`
}

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
