package repository

import (
	"context"

	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportRecordRepository interface {
	BaseRepository[models.ImportRecord]
	ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]models.ImportRecord, error)
	// HasChecksum reports whether a document with this checksum was imported before.
	HasChecksum(ctx context.Context, checksum string) (bool, error)
}

type importRecordRepository struct {
	BaseRepository[models.ImportRecord]
	db *gorm.DB
}

func NewImportRecordRepository(db *gorm.DB) ImportRecordRepository {
	return &importRecordRepository{BaseRepository: NewBaseRepository[models.ImportRecord](db), db: db}
}

func (r *importRecordRepository) ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]models.ImportRecord, error) {
	var out []models.ImportRecord
	if err := r.db.WithContext(ctx).Where("scenario_id = ?", scenarioID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list import records failed")
	}
	return out, nil
}

func (r *importRecordRepository) HasChecksum(ctx context.Context, checksum string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ImportRecord{}).Where("checksum = ?", checksum).Count(&n).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "look up import checksum failed")
	}
	return n > 0, nil
}
