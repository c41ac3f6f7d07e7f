package services

import (
	"errors"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/layout"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/pkg/config"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settings carries the configuration the authoring services depend on.
type Settings struct {
	Grid            layout.Config
	AutoCreateRoles bool
	// MaxImportBytes bounds an uploaded scenario document. Zero means unbounded.
	MaxImportBytes int64
}

func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		Grid: layout.Config{
			Columns:    c.GridColumns,
			Rows:       c.GridRows,
			MaxRows:    c.GridMaxRows,
			Margin:     c.GridMargin,
			CellWidth:  float64(c.GridCellWidth),
			CellHeight: float64(c.GridCellHeight),
		},
		AutoCreateRoles: c.ImportAutoCreateRoles,
		MaxImportBytes:  c.ImportMaxBytes,
	}
}

// toDialogueGraph projects persisted entities onto the validator's model.
func toDialogueGraph(set *models.GraphSet) *dialogue.Graph {
	g := &dialogue.Graph{
		ScenarioID:  set.Scenario.ID,
		Roles:       make([]dialogue.Role, 0, len(set.Roles)),
		Flows:       make([]dialogue.Flow, 0, len(set.Flows)),
		Nodes:       make([]dialogue.Node, 0, len(set.Nodes)),
		Options:     make([]dialogue.Option, 0, len(set.Options)),
		Connections: make([]dialogue.Connection, 0, len(set.Connections)),
	}
	for _, r := range set.Roles {
		g.Roles = append(g.Roles, dialogue.Role{ID: r.ID, Name: r.Name, Required: r.Required})
	}
	for _, f := range set.Flows {
		g.Flows = append(g.Flows, dialogue.Flow{ID: f.ID, RoleID: f.RoleID, Name: f.Name, IsPrimary: f.IsPrimary})
	}
	for _, n := range set.Nodes {
		g.Nodes = append(g.Nodes, dialogue.Node{
			ID:        n.ID,
			FlowID:    n.FlowID,
			Kind:      dialogue.Kind(n.Kind),
			Title:     n.Title,
			IsInitial: n.IsInitial,
			IsFinal:   n.IsFinal,
			Order:     n.SortOrder,
		})
	}
	for _, o := range set.Options {
		g.Options = append(g.Options, dialogue.Option{ID: o.ID, NodeID: o.NodeID, Label: o.Label, Order: o.SortOrder})
	}
	for _, c := range set.Connections {
		g.Connections = append(g.Connections, dialogue.Connection{ID: c.ID, From: c.FromNodeID, To: c.ToNodeID, OptionID: c.OptionID})
	}
	return g
}

// find loads one row by id, mapping a miss to not_found.
func find[T any](tx *gorm.DB, id uuid.UUID, what string) (*T, error) {
	var out T
	if err := tx.First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, what+" not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get "+what+" failed")
	}
	return &out, nil
}

// dbErr classifies a storage error.
func dbErr(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return appErr.Wrap(err, appErr.CodeAlreadyExists, msg)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return appErr.Wrap(err, appErr.CodeInvalid, msg)
	}
	var ae *appErr.AppError
	if errors.As(err, &ae) {
		return err
	}
	return appErr.Wrap(err, appErr.CodeInternal, msg)
}

// editableScenario loads a scenario the actor may change. Archived scenarios are read-only.
func editableScenario(tx *gorm.DB, actor Actor, id uuid.UUID) (*models.Scenario, error) {
	s, err := find[models.Scenario](tx, id, "scenario")
	if err != nil {
		return nil, err
	}
	if err := actor.mustWrite(s); err != nil {
		return nil, err
	}
	if s.State == models.ScenarioArchived {
		return nil, appErr.New(appErr.CodeConflict, "archived scenarios are read-only")
	}
	return s, nil
}

// gridFor rebuilds the layout grid of s from its persisted node cells.
// Cells found colliding are moved and saved.
func gridFor(tx *gorm.DB, cfg layout.Config, s *models.Scenario) (*layout.Grid, error) {
	if s.GridColumns > 0 {
		cfg.Columns = s.GridColumns
	}
	if s.GridRows > 0 {
		cfg.Rows = s.GridRows
	}
	g := layout.New(cfg)

	var nodes []models.Node
	if err := tx.Select("id", "grid_col", "grid_row").Where("scenario_id = ?", s.ID).Order("created_at, id").Find(&nodes).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load node cells failed")
	}
	placements := make([]layout.Placement, 0, len(nodes))
	for _, n := range nodes {
		placements = append(placements, layout.Placement{NodeID: n.ID, Cell: layout.Cell{Col: n.GridCol, Row: n.GridRow}})
	}
	moved, err := g.Load(placements)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeGridExhausted, "layout grid is full")
	}
	for _, p := range moved {
		x, y := g.Position(p.Cell)
		err := tx.Model(&models.Node{}).Where("id = ?", p.NodeID).Updates(map[string]any{
			"grid_col": p.Cell.Col, "grid_row": p.Cell.Row, "pos_x": x, "pos_y": y,
		}).Error
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "relocate node failed")
		}
	}
	return g, nil
}

// placeNode puts n on the grid near preferred and syncs its stored cell and position.
func placeNode(g *layout.Grid, n *models.Node, preferred layout.Cell) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	cell, err := g.Place(n.ID, preferred)
	if err != nil {
		if errors.Is(err, layout.ErrGridExhausted) {
			return appErr.Wrap(err, appErr.CodeGridExhausted, "layout grid is full")
		}
		return err
	}
	n.GridCol, n.GridRow = cell.Col, cell.Row
	n.PosX, n.PosY = g.Position(cell)
	return nil
}

// saveGridSize persists growth of the grid so it stays monotonic across requests.
func saveGridSize(tx *gorm.DB, g *layout.Grid, s *models.Scenario) error {
	cols, rows := g.Size()
	if cols == s.GridColumns && rows == s.GridRows {
		return nil
	}
	s.GridColumns, s.GridRows = cols, rows
	err := tx.Model(&models.Scenario{}).Where("id = ?", s.ID).Updates(map[string]any{
		"grid_columns": cols, "grid_rows": rows,
	}).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "save grid size failed")
	}
	return nil
}

// deleteNodes removes nodes with their options and every connection touching them.
func deleteNodes(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("from_node_id IN ? OR to_node_id IN ?", ids, ids).Delete(&models.Connection{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete connections failed")
	}
	if err := tx.Where("node_id IN ?", ids).Delete(&models.Option{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete options failed")
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Node{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete nodes failed")
	}
	return nil
}

// nodeIDs plucks the ids of nodes matching the condition.
func nodeIDs(tx *gorm.DB, query string, args ...any) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := tx.Model(&models.Node{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list nodes failed")
	}
	return ids, nil
}

// ruleErr rejects a mutation that would break a graph rule.
func ruleErr(code appErr.Code, kind dialogue.IssueKind, msg string) error {
	return appErr.New(code, msg).WithMeta(appErr.MetaKind, string(kind))
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr.New(appErr.CodeNotFound, what+" not found")
	}
	return err
}
