package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Option is a labelled branch (A-D) of a decision node.
type Option struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NodeID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_options_node_label" json:"node_id"`
	Label     string    `gorm:"type:varchar(1);not null;uniqueIndex:idx_options_node_label" json:"label" validate:"required,oneof=A B C D"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Color     string    `gorm:"type:varchar(16)" json:"color"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
