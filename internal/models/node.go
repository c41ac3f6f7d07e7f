package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Node is one dialogue step of a flow.
type Node struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ScenarioID uuid.UUID `gorm:"type:uuid;index;not null" json:"scenario_id"`
	FlowID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_nodes_flow_order" json:"flow_id"`
	Kind       string    `gorm:"type:varchar(16);not null" json:"kind" validate:"required,oneof=auto decision final"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PosX       float64   `gorm:"not null;default:0" json:"pos_x"`
	PosY       float64   `gorm:"not null;default:0" json:"pos_y"`
	GridCol    int       `gorm:"not null;default:0" json:"grid_col"`
	GridRow    int       `gorm:"not null;default:0" json:"grid_row"`
	IsInitial  bool      `gorm:"not null;default:false" json:"is_initial"`
	IsFinal    bool      `gorm:"not null;default:false" json:"is_final"`
	SortOrder  int       `gorm:"column:sort_order;not null;uniqueIndex:idx_nodes_flow_order" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Options []Option `gorm:"constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (n *Node) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
