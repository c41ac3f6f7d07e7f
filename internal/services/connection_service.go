package services

import (
	"context"
	"errors"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ConnectionService interface {
	Connect(ctx context.Context, actor Actor, scenarioID uuid.UUID, input *ConnectInput) (*models.Connection, error)
	Disconnect(ctx context.Context, actor Actor, connectionID uuid.UUID) error
}

type ConnectInput struct {
	FromNodeID uuid.UUID
	ToNodeID   uuid.UUID
	OptionID   *uuid.UUID
	// Label defaults to the option text for decision edges.
	Label string
}

type connectionService struct {
	db *gorm.DB
}

func NewConnectionService(db *gorm.DB) ConnectionService {
	return &connectionService{db: db}
}

var _ ConnectionService = (*connectionService)(nil)

func (s *connectionService) Connect(ctx context.Context, actor Actor, scenarioID uuid.UUID, input *ConnectInput) (*models.Connection, error) {
	logger.L().Info("connect nodes",
		zap.String("scenario_id", scenarioID.String()),
		zap.String("from", input.FromNodeID.String()),
		zap.String("to", input.ToNodeID.String()),
	)

	var out *models.Connection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := editableScenario(tx, actor, scenarioID); err != nil {
			return err
		}
		c, err := connect(tx, scenarioID, input)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("nodes connected", zap.String("connection_id", out.ID.String()))
	return out, nil
}

// connect checks every connection invariant against the stored graph and
// inserts the edge. Shared with the importer.
func connect(tx *gorm.DB, scenarioID uuid.UUID, input *ConnectInput) (*models.Connection, error) {
	if input.FromNodeID == input.ToNodeID {
		return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidConnection, "a node cannot connect to itself")
	}
	from, err := find[models.Node](tx, input.FromNodeID, "source node")
	if err != nil {
		return nil, err
	}
	to, err := find[models.Node](tx, input.ToNodeID, "target node")
	if err != nil {
		return nil, err
	}
	if from.ScenarioID != scenarioID || to.ScenarioID != scenarioID {
		return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidConnection, "both nodes must belong to the scenario")
	}

	label := input.Label
	switch dialogue.Kind(from.Kind) {
	case dialogue.KindFinal:
		return nil, ruleErr(appErr.CodeInvalid, dialogue.FinalNodeHasExits, "final nodes cannot have outgoing connections")

	case dialogue.KindDecision:
		if input.OptionID == nil {
			return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidConnection, "connections out of a decision node need an option")
		}
		var opt models.Option
		if err := tx.First(&opt, "id = ? AND node_id = ?", *input.OptionID, from.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidConnection, "option does not belong to the source node")
			}
			return nil, appErr.Wrap(err, appErr.CodeInternal, "get option failed")
		}
		var fed int64
		if err := tx.Model(&models.Connection{}).Where("option_id = ?", opt.ID).Count(&fed).Error; err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "check option connection failed")
		}
		if fed > 0 {
			return nil, ruleErr(appErr.CodeConflict, dialogue.DuplicateOptionConnection, "option "+opt.Label+" is already connected")
		}
		if label == "" {
			label = opt.Text
		}

	default:
		if input.OptionID != nil {
			return nil, ruleErr(appErr.CodeInvalid, dialogue.InvalidConnection, "only decision nodes connect through options")
		}
		var exits int64
		if err := tx.Model(&models.Connection{}).Where("from_node_id = ?", from.ID).Count(&exits).Error; err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "count exits failed")
		}
		if exits > 0 {
			return nil, ruleErr(appErr.CodeConflict, dialogue.AmbiguousAutoNode, "auto node already has an exit")
		}
	}

	c := &models.Connection{
		ScenarioID: scenarioID,
		FromNodeID: from.ID,
		ToNodeID:   to.ID,
		OptionID:   input.OptionID,
		Label:      label,
	}
	if err := tx.Create(c).Error; err != nil {
		return nil, dbErr(err, "create connection failed")
	}
	return c, nil
}

func (s *connectionService) Disconnect(ctx context.Context, actor Actor, connectionID uuid.UUID) error {
	logger.L().Info("disconnect", zap.String("connection_id", connectionID.String()))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find[models.Connection](tx, connectionID, "connection")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, c.ScenarioID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Connection{}, "id = ?", c.ID).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete connection failed")
		}
		return nil
	})
}
