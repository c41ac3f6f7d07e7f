package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScenarioService interface {
	Create(ctx context.Context, actor Actor, input *CreateScenarioInput) (*models.Scenario, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error)
	List(ctx context.Context, actor Actor, filters repository.ScenarioFilters) ([]models.Scenario, int64, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input *UpdateScenarioInput) (*models.Scenario, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	// Lifecycle
	Activate(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error)
	Archive(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error)

	// Graph inspection
	Validate(ctx context.Context, actor Actor, id uuid.UUID) (*dialogue.Report, error)
	Outline(ctx context.Context, actor Actor, id uuid.UUID) ([]dialogue.FlowOutline, error)
	Graph(ctx context.Context, actor Actor, id uuid.UUID) (*models.GraphSet, error)
	Export(ctx context.Context, actor Actor, id uuid.UUID) (*scenariofile.Document, error)
	Imports(ctx context.Context, actor Actor, id uuid.UUID) ([]models.ImportRecord, error)
}

type CreateScenarioInput struct {
	Name        string
	Description string
	IsPublic    bool
	Settings    map[string]any
}

type UpdateScenarioInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Settings    map[string]any
}

type scenarioService struct {
	db        *gorm.DB
	scenarios repository.ScenarioRepository
	imports   repository.ImportRecordRepository
	settings  Settings
}

func NewScenarioService(db *gorm.DB, scenarios repository.ScenarioRepository, imports repository.ImportRecordRepository, settings Settings) ScenarioService {
	return &scenarioService{db: db, scenarios: scenarios, imports: imports, settings: settings}
}

var _ ScenarioService = (*scenarioService)(nil)

func (s *scenarioService) Create(ctx context.Context, actor Actor, input *CreateScenarioInput) (*models.Scenario, error) {
	logger.L().Info("create scenario called", zap.String("user_id", actor.UserID.String()), zap.String("name", input.Name))

	if !actor.CanAuthor() {
		return nil, appErr.New(appErr.CodeForbidden, "only instructors and admins author scenarios")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "scenario name is required")
	}
	settings, err := marshalSettings(input.Settings)
	if err != nil {
		return nil, err
	}

	sc := &models.Scenario{
		OwnerID:     actor.UserID,
		Name:        name,
		Description: input.Description,
		State:       models.ScenarioDraft,
		IsPublic:    input.IsPublic,
		GridColumns: s.settings.Grid.Columns,
		GridRows:    s.settings.Grid.Rows,
		Settings:    settings,
	}
	if err := s.scenarios.Create(ctx, sc); err != nil {
		return nil, err
	}

	logger.L().Info("scenario created", zap.String("scenario_id", sc.ID.String()), zap.String("user_id", actor.UserID.String()))
	return sc, nil
}

func (s *scenarioService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error) {
	logger.L().Info("get scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))
	var sc models.Scenario
	if err := s.scenarios.GetByID(ctx, id, &sc); err != nil {
		return nil, err
	}
	if err := actor.mustRead(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *scenarioService) List(ctx context.Context, actor Actor, filters repository.ScenarioFilters) ([]models.Scenario, int64, error) {
	logger.L().Info("list scenarios", zap.String("user_id", actor.UserID.String()), zap.String("state", filters.State))
	return s.scenarios.ListVisible(ctx, actor.UserID, actor.IsAdmin(), filters)
}

func (s *scenarioService) Update(ctx context.Context, actor Actor, id uuid.UUID, input *UpdateScenarioInput) (*models.Scenario, error) {
	logger.L().Info("update scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))

	var out *models.Scenario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc, err := editableScenario(tx, actor, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return appErr.New(appErr.CodeInvalid, "scenario name is required")
			}
			sc.Name = name
		}
		if input.Description != nil {
			sc.Description = *input.Description
		}
		if input.IsPublic != nil {
			sc.IsPublic = *input.IsPublic
		}
		if input.Settings != nil {
			b, err := marshalSettings(input.Settings)
			if err != nil {
				return err
			}
			sc.Settings = b
		}
		if err := tx.Save(sc).Error; err != nil {
			return dbErr(err, "update scenario failed")
		}
		out = sc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("scenario updated", zap.String("scenario_id", id.String()))
	return out, nil
}

func (s *scenarioService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	logger.L().Info("delete scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc, err := find[models.Scenario](tx, id, "scenario")
		if err != nil {
			return err
		}
		if err := actor.mustWrite(sc); err != nil {
			return err
		}
		ids, err := nodeIDs(tx, "scenario_id = ?", id)
		if err != nil {
			return err
		}
		if err := deleteNodes(tx, ids); err != nil {
			return err
		}
		for _, m := range []any{&models.Connection{}, &models.Flow{}, &models.Role{}, &models.ImportRecord{}} {
			if err := tx.Where("scenario_id = ?", id).Delete(m).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "delete scenario contents failed")
			}
		}
		if err := tx.Delete(&models.Scenario{}, "id = ?", id).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete scenario failed")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.L().Info("scenario deleted", zap.String("scenario_id", id.String()))
	return nil
}

// Activate moves a draft scenario to active. It refuses with validation_failed,
// carrying every validator error, unless the graph is clean.
func (s *scenarioService) Activate(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error) {
	logger.L().Info("activate scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))

	var out *models.Scenario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set, err := repository.LoadGraphSet(tx, id)
		if err != nil {
			return err
		}
		sc := &set.Scenario
		if err := actor.mustWrite(sc); err != nil {
			return err
		}
		if !sc.CanTransition(models.ScenarioActive) {
			return appErr.New(appErr.CodeConflict, "only draft scenarios can be activated")
		}

		report := dialogue.Validate(toDialogueGraph(set))
		if !report.OK() {
			logger.L().Info("scenario activation refused", zap.String("scenario_id", id.String()), zap.Int("errors", len(report.Errors)))
			return appErr.WithItems(appErr.CodeValidationFailed, "scenario graph is not playable", report.Messages())
		}

		if err := tx.Model(sc).Update("state", models.ScenarioActive).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "activate scenario failed")
		}
		sc.State = models.ScenarioActive
		out = sc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("scenario activated", zap.String("scenario_id", id.String()))
	return out, nil
}

func (s *scenarioService) Archive(ctx context.Context, actor Actor, id uuid.UUID) (*models.Scenario, error) {
	logger.L().Info("archive scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))

	var out *models.Scenario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc, err := find[models.Scenario](tx, id, "scenario")
		if err != nil {
			return err
		}
		if err := actor.mustWrite(sc); err != nil {
			return err
		}
		if !sc.CanTransition(models.ScenarioArchived) {
			return appErr.New(appErr.CodeConflict, "scenario is already archived")
		}
		if err := tx.Model(sc).Update("state", models.ScenarioArchived).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "archive scenario failed")
		}
		sc.State = models.ScenarioArchived
		out = sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *scenarioService) Validate(ctx context.Context, actor Actor, id uuid.UUID) (*dialogue.Report, error) {
	logger.L().Info("validate scenario", zap.String("scenario_id", id.String()))
	set, err := s.readableGraph(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	report := dialogue.Validate(toDialogueGraph(set))
	return &report, nil
}

func (s *scenarioService) Outline(ctx context.Context, actor Actor, id uuid.UUID) ([]dialogue.FlowOutline, error) {
	set, err := s.readableGraph(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return dialogue.Outline(toDialogueGraph(set)), nil
}

func (s *scenarioService) Graph(ctx context.Context, actor Actor, id uuid.UUID) (*models.GraphSet, error) {
	return s.readableGraph(ctx, actor, id)
}

func (s *scenarioService) Export(ctx context.Context, actor Actor, id uuid.UUID) (*scenariofile.Document, error) {
	logger.L().Info("export scenario", zap.String("scenario_id", id.String()), zap.String("user_id", actor.UserID.String()))
	set, err := s.readableGraph(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return scenariofile.Export(set), nil
}

func (s *scenarioService) Imports(ctx context.Context, actor Actor, id uuid.UUID) ([]models.ImportRecord, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.imports.ListByScenario(ctx, id)
}

func (s *scenarioService) readableGraph(ctx context.Context, actor Actor, id uuid.UUID) (*models.GraphSet, error) {
	set, err := s.scenarios.LoadGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.mustRead(&set.Scenario); err != nil {
		return nil, err
	}
	return set, nil
}

func marshalSettings(settings map[string]any) (datatypes.JSON, error) {
	if settings == nil {
		return nil, nil
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid settings json")
	}
	return datatypes.JSON(b), nil
}
