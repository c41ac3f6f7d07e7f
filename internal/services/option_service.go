package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OptionService interface {
	Add(ctx context.Context, actor Actor, nodeID uuid.UUID, input *OptionInput) (*models.Option, error)
	Update(ctx context.Context, actor Actor, optionID uuid.UUID, input *OptionUpdate) (*models.Option, error)
	Delete(ctx context.Context, actor Actor, optionID uuid.UUID) error
}

type OptionInput struct {
	// Label is optional; the first free letter is used when empty.
	Label string
	Text  string
	Color string
	Score int
}

type OptionUpdate struct {
	Text  *string
	Color *string
	Score *int
}

type optionService struct {
	db *gorm.DB
}

func NewOptionService(db *gorm.DB) OptionService {
	return &optionService{db: db}
}

var _ OptionService = (*optionService)(nil)

func (s *optionService) Add(ctx context.Context, actor Actor, nodeID uuid.UUID, input *OptionInput) (*models.Option, error) {
	logger.L().Info("add option", zap.String("node_id", nodeID.String()), zap.String("label", input.Label))

	var out *models.Option
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := find[models.Node](tx, nodeID, "node")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, node.ScenarioID); err != nil {
			return err
		}
		opt, err := addOption(tx, node, input)
		if err != nil {
			return err
		}
		out = opt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("option added", zap.String("option_id", out.ID.String()), zap.String("label", out.Label))
	return out, nil
}

// addOption enforces the decision option rules: at most four options with
// distinct labels A-D. Shared with the importer.
func addOption(tx *gorm.DB, node *models.Node, input *OptionInput) (*models.Option, error) {
	if dialogue.Kind(node.Kind) != dialogue.KindDecision {
		return nil, ruleErr(appErr.CodeInvalid, dialogue.OrphanOption, "options can only be added to decision nodes")
	}
	if err := checkOptionText(input.Text); err != nil {
		return nil, err
	}
	if err := checkOptionColor(input.Color); err != nil {
		return nil, err
	}

	var used []string
	if err := tx.Model(&models.Option{}).Where("node_id = ?", node.ID).Pluck("label", &used).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list option labels failed")
	}
	if len(used) >= dialogue.MaxOptions {
		return nil, ruleErr(appErr.CodeConflict, dialogue.OptionLimitExceeded, "a decision node has at most 4 options")
	}

	label := strings.ToUpper(strings.TrimSpace(input.Label))
	if label == "" {
		label, _ = dialogue.NextFreeLabel(used)
	} else if dialogue.LabelIndex(label) < 0 {
		return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidOptionLabel, "option label must be one of A, B, C, D")
	}
	for _, l := range used {
		if l == label {
			return nil, ruleErr(appErr.CodeAlreadyExists, dialogue.DuplicateOptionLabel, "option "+label+" already exists on this node")
		}
	}

	opt := &models.Option{
		NodeID:    node.ID,
		Label:     label,
		Text:      input.Text,
		Color:     input.Color,
		Score:     input.Score,
		SortOrder: dialogue.LabelIndex(label),
	}
	if err := tx.Create(opt).Error; err != nil {
		return nil, dbErr(err, "create option failed")
	}
	return opt, nil
}

func checkOptionText(text string) error {
	if strings.TrimSpace(text) == "" {
		return appErr.New(appErr.CodeInvalid, "option text is required")
	}
	return nil
}

func checkOptionColor(color string) error {
	if len(color) > scenariofile.MaxColorLen {
		return appErr.New(appErr.CodeInvalid, fmt.Sprintf("option color is at most %d characters", scenariofile.MaxColorLen))
	}
	return nil
}

func (s *optionService) Update(ctx context.Context, actor Actor, optionID uuid.UUID, input *OptionUpdate) (*models.Option, error) {
	logger.L().Info("update option", zap.String("option_id", optionID.String()))

	var out *models.Option
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		opt, node, err := s.load(tx, optionID)
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, node.ScenarioID); err != nil {
			return err
		}
		if input.Text != nil {
			if err := checkOptionText(*input.Text); err != nil {
				return err
			}
			opt.Text = *input.Text
		}
		if input.Color != nil {
			if err := checkOptionColor(*input.Color); err != nil {
				return err
			}
			opt.Color = *input.Color
		}
		if input.Score != nil {
			opt.Score = *input.Score
		}
		if err := tx.Save(opt).Error; err != nil {
			return dbErr(err, "update option failed")
		}
		out = opt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the option and the connection it feeds.
func (s *optionService) Delete(ctx context.Context, actor Actor, optionID uuid.UUID) error {
	logger.L().Info("delete option", zap.String("option_id", optionID.String()))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		opt, node, err := s.load(tx, optionID)
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, node.ScenarioID); err != nil {
			return err
		}
		if err := tx.Where("option_id = ?", opt.ID).Delete(&models.Connection{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete option connection failed")
		}
		if err := tx.Delete(&models.Option{}, "id = ?", opt.ID).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete option failed")
		}
		return nil
	})
}

func (s *optionService) load(tx *gorm.DB, optionID uuid.UUID) (*models.Option, *models.Node, error) {
	opt, err := find[models.Option](tx, optionID, "option")
	if err != nil {
		return nil, nil, err
	}
	node, err := find[models.Node](tx, opt.NodeID, "node")
	if err != nil {
		return nil, nil, err
	}
	return opt, node, nil
}
