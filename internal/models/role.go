package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a participant type within a scenario (Juez, Fiscal, ...).
type Role struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ScenarioID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_roles_scenario_name" json:"scenario_id"`
	Name       string    `gorm:"not null;uniqueIndex:idx_roles_scenario_name" json:"name" validate:"required"`
	Color      string    `gorm:"type:varchar(16)" json:"color"`
	Icon       string    `gorm:"type:varchar(64)" json:"icon"`
	Required   bool      `gorm:"not null;default:false" json:"required"`
	SortOrder  int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Flows []Flow `gorm:"constraint:OnDelete:CASCADE" json:"flows,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
