package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/layout"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/courtroom-studio/engine/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportService interface {
	// Import decodes a JSON scenario document and materializes it.
	Import(ctx context.Context, actor Actor, data []byte, opts ImportOptions) (*ImportResult, error)
	// ImportDocument materializes an already decoded document. raw is what the
	// checksum of the import record is computed from.
	ImportDocument(ctx context.Context, actor Actor, doc *scenariofile.Document, raw []byte, opts ImportOptions) (*ImportResult, error)
}

type ImportOptions struct {
	// AutoCreateRoles overrides the configured default when set.
	AutoCreateRoles *bool
}

type ImportResult struct {
	ScenarioID         uuid.UUID `json:"scenario_id"`
	NodesCreated       int       `json:"nodes_created"`
	ConnectionsCreated int       `json:"connections_created"`
	OptionsCreated     int       `json:"options_created"`
	RolesCreated       int       `json:"roles_created"`
}

type importService struct {
	db        *gorm.DB
	templates repository.RoleTemplateRepository
	settings  Settings
}

func NewImportService(db *gorm.DB, templates repository.RoleTemplateRepository, settings Settings) ImportService {
	return &importService{db: db, templates: templates, settings: settings}
}

var _ ImportService = (*importService)(nil)

func (s *importService) Import(ctx context.Context, actor Actor, data []byte, opts ImportOptions) (*ImportResult, error) {
	if limit := s.settings.MaxImportBytes; limit > 0 && int64(len(data)) > limit {
		return nil, appErr.WithItems(appErr.CodeImportSyntax, "malformed scenario document",
			[]string{fmt.Sprintf("document is %d bytes, at most %d allowed", len(data), limit)})
	}
	doc, err := scenariofile.Decode(data)
	if err != nil {
		logger.L().Info("import rejected", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return nil, err
	}
	return s.ImportDocument(ctx, actor, doc, data, opts)
}

func (s *importService) ImportDocument(ctx context.Context, actor Actor, doc *scenariofile.Document, raw []byte, opts ImportOptions) (*ImportResult, error) {
	logger.L().Info("import scenario called",
		zap.String("user_id", actor.UserID.String()),
		zap.String("name", doc.Scenario.Name),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("connections", len(doc.Connections)),
	)

	if !actor.CanAuthor() {
		return nil, appErr.New(appErr.CodeForbidden, "only instructors and admins import scenarios")
	}

	templates, err := s.templates.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]models.RoleTemplate, len(templates))
	for _, t := range templates {
		catalog[t.Name] = t
	}

	autoCreate := s.settings.AutoCreateRoles
	if opts.AutoCreateRoles != nil {
		autoCreate = *opts.AutoCreateRoles
	}
	items := scenariofile.Check(doc, scenariofile.CheckOptions{
		KnownRole:       func(name string) bool { _, ok := catalog[name]; return ok },
		AutoCreateRoles: autoCreate,
	})
	if len(items) > 0 {
		logger.L().Info("import rejected", zap.String("user_id", actor.UserID.String()), zap.Int("errors", len(items)))
		return nil, appErr.WithItems(appErr.CodeImportSchema, "scenario document is invalid", items)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode import payload failed")
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}

	m := &materializer{tx: tx, doc: doc, catalog: catalog, grid: s.settings.Grid}
	res, err := m.run(actor)
	if err != nil {
		tx.Rollback()
		logger.L().Error("import failed", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return nil, err
	}

	record := &models.ImportRecord{
		ScenarioID:         res.ScenarioID,
		UserID:             actor.UserID,
		Checksum:           utils.Checksum(raw),
		Payload:            datatypes.JSON(payload),
		NodesCreated:       res.NodesCreated,
		ConnectionsCreated: res.ConnectionsCreated,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return nil, dbErr(err, "create import record failed")
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}

	logger.L().Info("scenario imported",
		zap.String("scenario_id", res.ScenarioID.String()),
		zap.Int("nodes_created", res.NodesCreated),
		zap.Int("connections_created", res.ConnectionsCreated),
		zap.Int("options_created", res.OptionsCreated),
		zap.Int("roles_created", res.RolesCreated),
	)
	return res, nil
}

// materializer writes one checked document inside tx.
type materializer struct {
	tx      *gorm.DB
	doc     *scenariofile.Document
	catalog map[string]models.RoleTemplate
	grid    layout.Config

	flows map[string]uuid.UUID // role name -> primary flow
	nodes map[string]*models.Node
	res   ImportResult
}

func (m *materializer) run(actor Actor) (*ImportResult, error) {
	sc := &models.Scenario{
		OwnerID:     actor.UserID,
		Name:        m.doc.Scenario.Name,
		Description: m.doc.Scenario.Description,
		State:       models.ScenarioDraft,
		IsPublic:    m.doc.Scenario.Public,
		GridColumns: m.grid.Columns,
		GridRows:    m.grid.Rows,
	}
	if err := m.tx.Create(sc).Error; err != nil {
		return nil, dbErr(err, "create scenario failed")
	}
	m.res.ScenarioID = sc.ID

	if err := m.roles(sc.ID); err != nil {
		return nil, err
	}
	if err := m.place(sc); err != nil {
		return nil, err
	}
	if err := m.connections(sc.ID); err != nil {
		return nil, err
	}
	return &m.res, nil
}

func (m *materializer) roles(scenarioID uuid.UUID) error {
	m.flows = make(map[string]uuid.UUID)
	for i, name := range m.doc.RoleNames() {
		order := i
		input := &RoleInput{Name: name, Order: &order}
		if t, ok := m.catalog[name]; ok {
			input.Color, input.Icon, input.Required = t.Color, t.Icon, t.Required
		}
		role, err := createRole(m.tx, scenarioID, input)
		if err != nil {
			return err
		}
		m.flows[name] = role.Flows[0].ID
		m.res.RolesCreated++
	}
	return nil
}

// place creates every node and assigns it a cell near its document position.
func (m *materializer) place(sc *models.Scenario) error {
	g := layout.New(m.grid)
	preferred := make([]layout.Cell, len(m.doc.Nodes))
	for i, n := range m.doc.Nodes {
		if n.Position != nil {
			preferred[i] = g.CellAt(n.Position.X, n.Position.Y)
		}
	}
	g.ResizeToFit(preferred)

	m.nodes = make(map[string]*models.Node, len(m.doc.Nodes))
	order := make(map[string]int)
	for i, dn := range m.doc.Nodes {
		kind, _ := scenariofile.KindOf(dn.Type)
		order[dn.RoleName]++
		n := &models.Node{
			ScenarioID: sc.ID,
			FlowID:     m.flows[dn.RoleName],
			Kind:       string(kind),
			Title:      dn.Title,
			Content:    dn.Content,
			IsInitial:  dn.IsInitial,
			IsFinal:    kind == dialogue.KindFinal,
			SortOrder:  order[dn.RoleName],
		}
		if err := placeNode(g, n, preferred[i]); err != nil {
			return err
		}
		if err := m.tx.Create(n).Error; err != nil {
			return dbErr(err, fmt.Sprintf("create node %d failed", i+1))
		}
		m.nodes[dn.ID] = n
		m.res.NodesCreated++
	}
	return saveGridSize(m.tx, g, sc)
}

// connections turns document edges into connections. Edges leaving a decision
// node become options A-D in document order.
func (m *materializer) connections(scenarioID uuid.UUID) error {
	labels := make(map[uuid.UUID]int)
	for i, dc := range m.doc.Connections {
		from, to := m.nodes[dc.From], m.nodes[dc.To]
		c := &models.Connection{
			ScenarioID: scenarioID,
			FromNodeID: from.ID,
			ToNodeID:   to.ID,
			Label:      dc.Text,
		}

		if dialogue.Kind(from.Kind) == dialogue.KindDecision {
			label, _ := dialogue.LabelAt(labels[from.ID])
			labels[from.ID]++
			opt := &models.Option{
				NodeID:    from.ID,
				Label:     label,
				Text:      dc.Text,
				SortOrder: dialogue.LabelIndex(label),
			}
			if dc.Color != nil {
				opt.Color = *dc.Color
			}
			if dc.Score != nil {
				opt.Score = int(math.Round(*dc.Score))
			}
			if err := m.tx.Create(opt).Error; err != nil {
				return dbErr(err, fmt.Sprintf("create option for connection %d failed", i+1))
			}
			c.OptionID = &opt.ID
			m.res.OptionsCreated++
		}

		if err := m.tx.Create(c).Error; err != nil {
			return dbErr(err, fmt.Sprintf("create connection %d failed", i+1))
		}
		m.res.ConnectionsCreated++
	}
	return nil
}
