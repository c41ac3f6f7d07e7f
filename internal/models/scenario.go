package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scenario lifecycle states. Transitions only move forward.
const (
	ScenarioDraft    = "draft"
	ScenarioActive   = "active"
	ScenarioArchived = "archived"
)

// Scenario is the top-level container of a courtroom case.
type Scenario struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name        string         `gorm:"not null" json:"name" validate:"required"`
	Description string         `gorm:"type:text" json:"description"`
	State       string         `gorm:"type:varchar(16);index;not null;default:draft" json:"state" validate:"required,oneof=draft active archived"`
	IsPublic    bool           `gorm:"not null;default:false" json:"is_public"`
	GridColumns int            `gorm:"not null;default:0" json:"grid_columns"`
	GridRows    int            `gorm:"not null;default:0" json:"grid_rows"`
	Settings    datatypes.JSON `gorm:"type:jsonb" json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Roles []Role `gorm:"constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

func (s *Scenario) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.State == "" {
		s.State = ScenarioDraft
	}
	return nil
}

// CanTransition reports whether the lifecycle allows moving from the current state to next.
func (s *Scenario) CanTransition(next string) bool {
	rank := map[string]int{ScenarioDraft: 0, ScenarioActive: 1, ScenarioArchived: 2}
	cur, ok1 := rank[s.State]
	nxt, ok2 := rank[next]
	return ok1 && ok2 && nxt > cur
}
