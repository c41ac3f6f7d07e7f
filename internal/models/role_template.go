package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleTemplate is the global catalog entry imported role names are resolved against.
type RoleTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name" validate:"required"`
	Color     string    `gorm:"type:varchar(16)" json:"color"`
	Icon      string    `gorm:"type:varchar(64)" json:"icon"`
	Required  bool      `gorm:"not null;default:false" json:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RoleTemplate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
