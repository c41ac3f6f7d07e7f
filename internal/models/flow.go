package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow is the ordered dialogue sequence of one role. Each role has exactly one primary flow.
type Flow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ScenarioID uuid.UUID `gorm:"type:uuid;index;not null" json:"scenario_id"`
	RoleID     uuid.UUID `gorm:"type:uuid;index;not null" json:"role_id"`
	Name       string    `gorm:"not null" json:"name"`
	IsPrimary  bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Nodes []Node `gorm:"constraint:OnDelete:CASCADE" json:"nodes,omitempty"`
}

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
