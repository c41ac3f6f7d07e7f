package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportRecord audits a committed scenario import.
type ImportRecord struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ScenarioID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"scenario_id"`
	UserID             uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Checksum           string         `gorm:"type:varchar(64);index;not null" json:"checksum"`
	Payload            datatypes.JSON `gorm:"type:jsonb" json:"-"`
	NodesCreated       int            `gorm:"not null" json:"nodes_created"`
	ConnectionsCreated int            `gorm:"not null" json:"connections_created"`
	CreatedAt          time.Time      `json:"created_at"`

	Scenario *Scenario `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (r *ImportRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
