package services

import (
	"context"
	"strings"

	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RoleService interface {
	Create(ctx context.Context, actor Actor, scenarioID uuid.UUID, input *RoleInput) (*models.Role, error)
	List(ctx context.Context, actor Actor, scenarioID uuid.UUID) ([]models.Role, error)
	Update(ctx context.Context, actor Actor, roleID uuid.UUID, input *RoleUpdate) (*models.Role, error)
	Delete(ctx context.Context, actor Actor, roleID uuid.UUID) error
}

type RoleInput struct {
	Name     string
	Color    string
	Icon     string
	Required bool
	Order    *int
}

type RoleUpdate struct {
	Name     *string
	Color    *string
	Icon     *string
	Required *bool
	Order    *int
}

type roleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) RoleService {
	return &roleService{db: db}
}

var _ RoleService = (*roleService)(nil)

// Create adds a role and its primary flow.
func (s *roleService) Create(ctx context.Context, actor Actor, scenarioID uuid.UUID, input *RoleInput) (*models.Role, error) {
	logger.L().Info("create role", zap.String("scenario_id", scenarioID.String()), zap.String("name", input.Name))

	var out *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := editableScenario(tx, actor, scenarioID); err != nil {
			return err
		}
		role, err := createRole(tx, scenarioID, input)
		if err != nil {
			return err
		}
		out = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("role created", zap.String("role_id", out.ID.String()), zap.String("scenario_id", scenarioID.String()))
	return out, nil
}

// createRole inserts a role with its primary flow inside tx. Shared with the importer.
func createRole(tx *gorm.DB, scenarioID uuid.UUID, input *RoleInput) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "role name is required")
	}

	var taken int64
	if err := tx.Model(&models.Role{}).Where("scenario_id = ? AND name = ?", scenarioID, name).Count(&taken).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "check role name failed")
	}
	if taken > 0 {
		return nil, appErr.New(appErr.CodeAlreadyExists, "role "+name+" already exists in scenario")
	}

	order := 0
	if input.Order != nil {
		order = *input.Order
	} else {
		var maxOrder int
		if err := tx.Model(&models.Role{}).Where("scenario_id = ?", scenarioID).Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "compute role order failed")
		}
		order = maxOrder + 1
	}

	role := &models.Role{
		ScenarioID: scenarioID,
		Name:       name,
		Color:      input.Color,
		Icon:       input.Icon,
		Required:   input.Required,
		SortOrder:  order,
	}
	if err := tx.Create(role).Error; err != nil {
		return nil, dbErr(err, "create role failed")
	}

	flow := models.Flow{ScenarioID: scenarioID, RoleID: role.ID, Name: name, IsPrimary: true}
	if err := tx.Create(&flow).Error; err != nil {
		return nil, dbErr(err, "create primary flow failed")
	}
	role.Flows = []models.Flow{flow}
	return role, nil
}

func (s *roleService) List(ctx context.Context, actor Actor, scenarioID uuid.UUID) ([]models.Role, error) {
	db := s.db.WithContext(ctx)
	sc, err := find[models.Scenario](db, scenarioID, "scenario")
	if err != nil {
		return nil, err
	}
	if err := actor.mustRead(sc); err != nil {
		return nil, err
	}

	var roles []models.Role
	err = db.Preload("Flows", func(q *gorm.DB) *gorm.DB { return q.Order("is_primary DESC, created_at") }).
		Where("scenario_id = ?", scenarioID).Order("sort_order, name").Find(&roles).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list roles failed")
	}
	return roles, nil
}

func (s *roleService) Update(ctx context.Context, actor Actor, roleID uuid.UUID, input *RoleUpdate) (*models.Role, error) {
	logger.L().Info("update role", zap.String("role_id", roleID.String()))

	var out *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := find[models.Role](tx, roleID, "role")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, role.ScenarioID); err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return appErr.New(appErr.CodeInvalid, "role name is required")
			}
			if name != role.Name {
				var taken int64
				if err := tx.Model(&models.Role{}).Where("scenario_id = ? AND name = ? AND id <> ?", role.ScenarioID, name, role.ID).Count(&taken).Error; err != nil {
					return appErr.Wrap(err, appErr.CodeInternal, "check role name failed")
				}
				if taken > 0 {
					return appErr.New(appErr.CodeAlreadyExists, "role "+name+" already exists in scenario")
				}
				role.Name = name
			}
		}
		if input.Color != nil {
			role.Color = *input.Color
		}
		if input.Icon != nil {
			role.Icon = *input.Icon
		}
		if input.Required != nil {
			role.Required = *input.Required
		}
		if input.Order != nil {
			role.SortOrder = *input.Order
		}
		if err := tx.Save(role).Error; err != nil {
			return dbErr(err, "update role failed")
		}
		out = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a role, its flows, their nodes and everything hanging off those nodes.
func (s *roleService) Delete(ctx context.Context, actor Actor, roleID uuid.UUID) error {
	logger.L().Info("delete role", zap.String("role_id", roleID.String()))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := find[models.Role](tx, roleID, "role")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, role.ScenarioID); err != nil {
			return err
		}

		ids, err := nodeIDs(tx, "flow_id IN (?)", tx.Model(&models.Flow{}).Select("id").Where("role_id = ?", roleID))
		if err != nil {
			return err
		}
		if err := deleteNodes(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&models.Flow{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete flows failed")
		}
		if err := tx.Delete(&models.Role{}, "id = ?", roleID).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete role failed")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.L().Info("role deleted", zap.String("role_id", roleID.String()))
	return nil
}
