package repository

import (
	"context"
	"errors"

	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleTemplateRepository interface {
	BaseRepository[models.RoleTemplate]
	ListAll(ctx context.Context) ([]models.RoleTemplate, error)
	GetByName(ctx context.Context, name string, dest *models.RoleTemplate) error
	// Upsert inserts templates or refreshes the display fields of existing names.
	Upsert(ctx context.Context, templates []models.RoleTemplate) error
}

type roleTemplateRepository struct {
	BaseRepository[models.RoleTemplate]
	db *gorm.DB
}

func NewRoleTemplateRepository(db *gorm.DB) RoleTemplateRepository {
	return &roleTemplateRepository{BaseRepository: NewBaseRepository[models.RoleTemplate](db), db: db}
}

func (r *roleTemplateRepository) ListAll(ctx context.Context) ([]models.RoleTemplate, error) {
	var out []models.RoleTemplate
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list role templates failed")
	}
	return out, nil
}

func (r *roleTemplateRepository) GetByName(ctx context.Context, name string, dest *models.RoleTemplate) error {
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "role template not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get role template failed")
	}
	return nil
}

func (r *roleTemplateRepository) Upsert(ctx context.Context, templates []models.RoleTemplate) error {
	if len(templates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"color", "icon", "required", "updated_at"}),
	}).Create(&templates).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "upsert role templates failed")
	}
	return nil
}
