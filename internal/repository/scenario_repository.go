package repository

import (
	"context"
	"errors"

	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScenarioFilters narrows a scenario listing.
type ScenarioFilters struct {
	State    string
	Page     int
	PageSize int
}

type ScenarioRepository interface {
	BaseRepository[models.Scenario]
	// ListVisible returns scenarios owned by userID or public ones. all lifts the filter.
	ListVisible(ctx context.Context, userID uuid.UUID, all bool, filters ScenarioFilters) ([]models.Scenario, int64, error)
	LoadGraph(ctx context.Context, scenarioID uuid.UUID) (*models.GraphSet, error)
}

type scenarioRepository struct {
	BaseRepository[models.Scenario]
	db *gorm.DB
}

func NewScenarioRepository(db *gorm.DB) ScenarioRepository {
	return &scenarioRepository{BaseRepository: NewBaseRepository[models.Scenario](db), db: db}
}

func (r *scenarioRepository) ListVisible(ctx context.Context, userID uuid.UUID, all bool, filters ScenarioFilters) ([]models.Scenario, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Scenario{})
	if !all {
		q = q.Where("owner_id = ? OR is_public = ?", userID, true)
	}
	if filters.State != "" {
		q = q.Where("state = ?", filters.State)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "count scenarios failed")
	}

	if filters.PageSize > 0 {
		page := max(filters.Page, 1)
		q = q.Offset((page - 1) * filters.PageSize).Limit(filters.PageSize)
	}

	var out []models.Scenario
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "list scenarios failed")
	}
	return out, total, nil
}

func (r *scenarioRepository) LoadGraph(ctx context.Context, scenarioID uuid.UUID) (*models.GraphSet, error) {
	return LoadGraphSet(r.db.WithContext(ctx), scenarioID)
}

// LoadGraphSet reads every entity of a scenario through db, which may be a
// transaction. Slices come back in display order.
func LoadGraphSet(db *gorm.DB, scenarioID uuid.UUID) (*models.GraphSet, error) {
	var set models.GraphSet
	if err := db.First(&set.Scenario, "id = ?", scenarioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "scenario not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get scenario failed")
	}

	steps := []struct {
		dest  any
		query *gorm.DB
		what  string
	}{
		{&set.Roles, db.Where("scenario_id = ?", scenarioID).Order("sort_order, name"), "roles"},
		{&set.Flows, db.Where("scenario_id = ?", scenarioID).Order("is_primary DESC, created_at, id"), "flows"},
		{&set.Nodes, db.Where("scenario_id = ?", scenarioID).Order("flow_id, sort_order"), "nodes"},
		{&set.Options, db.Where("node_id IN (?)", db.Model(&models.Node{}).Select("id").Where("scenario_id = ?", scenarioID)).Order("node_id, sort_order"), "options"},
		{&set.Connections, db.Where("scenario_id = ?", scenarioID).Order("created_at, id"), "connections"},
	}
	for _, s := range steps {
		if err := s.query.Find(s.dest).Error; err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "load "+s.what+" failed")
		}
	}
	return &set, nil
}
