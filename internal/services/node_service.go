package services

import (
	"context"
	"strings"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/layout"
	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NodeService interface {
	Create(ctx context.Context, actor Actor, flowID uuid.UUID, input *NodeInput) (*models.Node, error)
	Get(ctx context.Context, actor Actor, nodeID uuid.UUID) (*models.Node, error)
	Update(ctx context.Context, actor Actor, nodeID uuid.UUID, input *NodeUpdate) (*models.Node, error)
	Move(ctx context.Context, actor Actor, nodeID uuid.UUID, x, y float64) (*models.Node, error)
	Delete(ctx context.Context, actor Actor, nodeID uuid.UUID) error
	Reorder(ctx context.Context, actor Actor, flowID uuid.UUID, order []uuid.UUID) ([]models.Node, error)
}

type NodeInput struct {
	Kind      string
	Title     string
	Content   string
	IsInitial bool
	// X and Y are the requested canvas position; nil lets the grid choose.
	X, Y *float64
}

type NodeUpdate struct {
	Kind      *string
	Title     *string
	Content   *string
	IsInitial *bool
}

type nodeService struct {
	db       *gorm.DB
	settings Settings
}

func NewNodeService(db *gorm.DB, settings Settings) NodeService {
	return &nodeService{db: db, settings: settings}
}

var _ NodeService = (*nodeService)(nil)

func (s *nodeService) Create(ctx context.Context, actor Actor, flowID uuid.UUID, input *NodeInput) (*models.Node, error) {
	logger.L().Info("create node", zap.String("flow_id", flowID.String()), zap.String("kind", input.Kind))

	kind, ok := dialogue.ParseKind(input.Kind)
	if !ok {
		return nil, appErr.New(appErr.CodeInvalid, "node kind must be auto, decision or final")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, appErr.New(appErr.CodeInvalid, "node title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "node content is required")
	}

	var out *models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flow, err := find[models.Flow](tx, flowID, "flow")
		if err != nil {
			return err
		}
		sc, err := editableScenario(tx, actor, flow.ScenarioID)
		if err != nil {
			return err
		}
		if input.IsInitial {
			if err := ensureNoInitial(tx, flowID, uuid.Nil); err != nil {
				return err
			}
		}

		var maxOrder int
		if err := tx.Model(&models.Node{}).Where("flow_id = ?", flowID).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "compute node order failed")
		}

		g, err := gridFor(tx, s.settings.Grid, sc)
		if err != nil {
			return err
		}
		node := &models.Node{
			ID:         uuid.New(),
			ScenarioID: sc.ID,
			FlowID:     flowID,
			Kind:       string(kind),
			Title:      title,
			Content:    input.Content,
			IsInitial:  input.IsInitial,
			IsFinal:    kind == dialogue.KindFinal,
			SortOrder:  maxOrder + 1,
		}
		preferred := layout.Cell{Col: 0, Row: maxOrder}
		if input.X != nil && input.Y != nil {
			preferred = g.CellAt(*input.X, *input.Y)
			g.ResizeToFit([]layout.Cell{preferred})
		}
		if err := placeNode(g, node, preferred); err != nil {
			return err
		}
		if err := tx.Create(node).Error; err != nil {
			return dbErr(err, "create node failed")
		}
		if err := saveGridSize(tx, g, sc); err != nil {
			return err
		}
		out = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("node created", zap.String("node_id", out.ID.String()), zap.Int("grid_col", out.GridCol), zap.Int("grid_row", out.GridRow))
	return out, nil
}

// ensureNoInitial fails when flowID already has an initial node other than except.
func ensureNoInitial(tx *gorm.DB, flowID, except uuid.UUID) error {
	var n int64
	if err := tx.Model(&models.Node{}).Where("flow_id = ? AND is_initial = ? AND id <> ?", flowID, true, except).Count(&n).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "count initial nodes failed")
	}
	if n > 0 {
		return ruleErr(appErr.CodeConflict, dialogue.MultipleInitialNodes, "flow already has an initial node; clear it first")
	}
	return nil
}

func (s *nodeService) Get(ctx context.Context, actor Actor, nodeID uuid.UUID) (*models.Node, error) {
	db := s.db.WithContext(ctx)
	var node models.Node
	err := db.Preload("Options", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order") }).First(&node, "id = ?", nodeID).Error
	if err != nil {
		return nil, dbErr(notFound(err, "node"), "get node failed")
	}
	sc, err := find[models.Scenario](db, node.ScenarioID, "scenario")
	if err != nil {
		return nil, err
	}
	if err := actor.mustRead(sc); err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *nodeService) Update(ctx context.Context, actor Actor, nodeID uuid.UUID, input *NodeUpdate) (*models.Node, error) {
	logger.L().Info("update node", zap.String("node_id", nodeID.String()))

	var out *models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := find[models.Node](tx, nodeID, "node")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, node.ScenarioID); err != nil {
			return err
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return appErr.New(appErr.CodeInvalid, "node title is required")
			}
			node.Title = title
		}
		if input.Content != nil {
			if strings.TrimSpace(*input.Content) == "" {
				return appErr.New(appErr.CodeInvalid, "node content is required")
			}
			node.Content = *input.Content
		}
		if input.Kind != nil {
			kind, ok := dialogue.ParseKind(*input.Kind)
			if !ok {
				return appErr.New(appErr.CodeInvalid, "node kind must be auto, decision or final")
			}
			if err := checkKindChange(tx, node, kind); err != nil {
				return err
			}
			node.Kind = string(kind)
			node.IsFinal = kind == dialogue.KindFinal
		}
		if input.IsInitial != nil {
			if *input.IsInitial && !node.IsInitial {
				if err := ensureNoInitial(tx, node.FlowID, node.ID); err != nil {
					return err
				}
			}
			node.IsInitial = *input.IsInitial
		}

		if err := tx.Save(node).Error; err != nil {
			return dbErr(err, "update node failed")
		}
		out = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkKindChange refuses kind changes that would strand options or exits.
func checkKindChange(tx *gorm.DB, node *models.Node, next dialogue.Kind) error {
	cur := dialogue.Kind(node.Kind)
	if cur == next {
		return nil
	}
	var options, exits int64
	if err := tx.Model(&models.Option{}).Where("node_id = ?", node.ID).Count(&options).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "count options failed")
	}
	if err := tx.Model(&models.Connection{}).Where("from_node_id = ?", node.ID).Count(&exits).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "count connections failed")
	}
	switch {
	case cur == dialogue.KindDecision && options > 0:
		return ruleErr(appErr.CodeConflict, dialogue.OrphanOption, "remove the options before changing a decision's kind")
	case next == dialogue.KindFinal && exits > 0:
		return ruleErr(appErr.CodeConflict, dialogue.FinalNodeHasExits, "remove outgoing connections before making the node final")
	case next == dialogue.KindDecision && exits > 0:
		return ruleErr(appErr.CodeConflict, dialogue.InvalidConnection, "decision exits go through options; remove existing connections first")
	}
	return nil
}

func (s *nodeService) Move(ctx context.Context, actor Actor, nodeID uuid.UUID, x, y float64) (*models.Node, error) {
	logger.L().Info("move node", zap.String("node_id", nodeID.String()), zap.Float64("x", x), zap.Float64("y", y))

	var out *models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := find[models.Node](tx, nodeID, "node")
		if err != nil {
			return err
		}
		sc, err := editableScenario(tx, actor, node.ScenarioID)
		if err != nil {
			return err
		}
		g, err := gridFor(tx, s.settings.Grid, sc)
		if err != nil {
			return err
		}
		preferred := g.CellAt(x, y)
		g.ResizeToFit([]layout.Cell{preferred})
		if err := placeNode(g, node, preferred); err != nil {
			return err
		}
		err = tx.Model(node).Updates(map[string]any{
			"grid_col": node.GridCol, "grid_row": node.GridRow, "pos_x": node.PosX, "pos_y": node.PosY,
		}).Error
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "move node failed")
		}
		if err := saveGridSize(tx, g, sc); err != nil {
			return err
		}
		out = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the node, its options and every connection into or out of it.
// Its grid cell is free for the next placement.
func (s *nodeService) Delete(ctx context.Context, actor Actor, nodeID uuid.UUID) error {
	logger.L().Info("delete node", zap.String("node_id", nodeID.String()))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := find[models.Node](tx, nodeID, "node")
		if err != nil {
			return err
		}
		if _, err := editableScenario(tx, actor, node.ScenarioID); err != nil {
			return err
		}
		return deleteNodes(tx, []uuid.UUID{node.ID})
	})
	if err != nil {
		return err
	}

	logger.L().Info("node deleted", zap.String("node_id", nodeID.String()))
	return nil
}

// Reorder assigns sort_order 1..n following order, which must list every node
// of the flow once. Orders are first parked on negative values so the unique
// (flow_id, sort_order) index holds at every step.
func (s *nodeService) Reorder(ctx context.Context, actor Actor, flowID uuid.UUID, order []uuid.UUID) ([]models.Node, error) {
	logger.L().Info("reorder nodes", zap.String("flow_id", flowID.String()), zap.Int("count", len(order)))

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}

	flow, err := find[models.Flow](tx, flowID, "flow")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := editableScenario(tx, actor, flow.ScenarioID); err != nil {
		tx.Rollback()
		return nil, err
	}

	current, err := nodeIDs(tx, "flow_id = ?", flowID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !samePermutation(current, order) {
		tx.Rollback()
		return nil, appErr.New(appErr.CodeInvalid, "order must list every node of the flow exactly once")
	}

	for i, id := range order {
		if err := tx.Model(&models.Node{}).Where("id = ?", id).Update("sort_order", -(i + 1)).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "park node order failed")
		}
	}
	for i, id := range order {
		if err := tx.Model(&models.Node{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "set node order failed")
		}
	}

	var nodes []models.Node
	if err := tx.Where("flow_id = ?", flowID).Order("sort_order").Find(&nodes).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "reload nodes failed")
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return nodes, nil
}

func samePermutation(have, want []uuid.UUID) bool {
	if len(have) != len(want) {
		return false
	}
	seen := make(map[uuid.UUID]bool, len(have))
	for _, id := range have {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return len(seen) == 0
}
