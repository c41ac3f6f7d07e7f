package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Connection is a directed edge between two nodes of the same scenario, optionally fed by an option.
type Connection struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ScenarioID uuid.UUID  `gorm:"type:uuid;index;not null" json:"scenario_id"`
	FromNodeID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_connections_from_option" json:"from_node_id"`
	ToNodeID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"to_node_id"`
	OptionID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_connections_from_option" json:"option_id,omitempty"`
	Label      string     `gorm:"type:text" json:"label"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	FromNode *Node   `gorm:"foreignKey:FromNodeID;constraint:OnDelete:CASCADE" json:"-"`
	ToNode   *Node   `gorm:"foreignKey:ToNodeID;constraint:OnDelete:CASCADE" json:"-"`
	Option   *Option `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
