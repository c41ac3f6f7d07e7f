package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hearing = `{
  "dialogo": {"nombre": "Robo agravado", "descripcion": "Audiencia preliminar", "publico": false},
  "nodos": [
    {"id": "n1", "titulo": "Apertura", "contenido": "Se abre la audiencia.", "rol_nombre": "Juez", "tipo": "inicio", "es_inicial": true, "es_final": false, "posicion": {"x": 0, "y": 0}},
    {"id": "n2", "titulo": "Objecion", "contenido": "La defensa objeta.", "rol_nombre": "Juez", "tipo": "decision", "es_inicial": false, "es_final": false, "posicion": {"x": 240, "y": 0}},
    {"id": "n3", "titulo": "Ha lugar", "contenido": "Se acepta la objecion.", "rol_nombre": "Juez", "tipo": "desarrollo", "es_inicial": false, "es_final": false, "posicion": {"x": 480, "y": 0}},
    {"id": "n4", "titulo": "Cierre", "contenido": "Se levanta la sesion.", "rol_nombre": "Juez", "tipo": "final", "es_inicial": false, "es_final": true, "posicion": {"x": 480, "y": 160}},
    {"id": "n5", "titulo": "Sentencia", "contenido": "Se dicta sentencia.", "rol_nombre": "Juez", "tipo": "final", "es_inicial": false, "es_final": true, "posicion": {"x": 720, "y": 0}},
    {"id": "d1", "titulo": "Alegato", "contenido": "La defensa alega.", "rol_nombre": "Defensa", "tipo": "inicio", "es_inicial": true, "es_final": false, "posicion": {"x": 0, "y": 0}}
  ],
  "conexiones": [
    {"desde": "n1", "hacia": "n2", "texto": "continuar"},
    {"desde": "n2", "hacia": "n3", "texto": "Ha lugar", "color": "#22c55e", "puntuacion": 10},
    {"desde": "n3", "hacia": "n5", "texto": "continuar"},
    {"desde": "n2", "hacia": "n4", "texto": "No ha lugar", "puntuacion": 0},
    {"desde": "d1", "hacia": "n2", "texto": "continuar"}
  ]
}`

func (s *studio) seedTemplates(t *testing.T) {
	t.Helper()
	require.NoError(t, s.templates.Upsert(context.Background(), []models.RoleTemplate{
		{Name: "Juez", Color: "#1e3a8a", Icon: "gavel", Required: true},
		{Name: "Defensa", Color: "#15803d", Icon: "shield"},
	}))
}

func TestImportMaterializesDocument(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	s.seedTemplates(t)

	res, err := s.imports.Import(ctx, s.owner, []byte(hearing), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.NodesCreated)
	assert.Equal(t, 5, res.ConnectionsCreated)
	assert.Equal(t, 2, res.OptionsCreated)
	assert.Equal(t, 2, res.RolesCreated)

	set, err := s.scenarios.Graph(ctx, s.owner, res.ScenarioID)
	require.NoError(t, err)
	assert.Equal(t, "Robo agravado", set.Scenario.Name)
	assert.Equal(t, s.owner.UserID, set.Scenario.OwnerID)
	require.Len(t, set.Roles, 2)
	assert.Equal(t, "Juez", set.Roles[0].Name)
	assert.Equal(t, "gavel", set.Roles[0].Icon)
	assert.True(t, set.Roles[0].Required)

	cells := map[[2]int]bool{}
	for _, n := range set.Nodes {
		cell := [2]int{n.GridCol, n.GridRow}
		assert.False(t, cells[cell], "cell %v shared", cell)
		cells[cell] = true
	}

	byLabel := map[string]models.Option{}
	for _, o := range set.Options {
		byLabel[o.Label] = o
	}
	require.Len(t, byLabel, 2)
	assert.Equal(t, "Ha lugar", byLabel["A"].Text)
	assert.Equal(t, "#22c55e", byLabel["A"].Color)
	assert.Equal(t, 10, byLabel["A"].Score)
	assert.Equal(t, "No ha lugar", byLabel["B"].Text)

	records, err := s.scenarios.Imports(ctx, s.owner, res.ScenarioID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, utils.Checksum([]byte(hearing)), records[0].Checksum)
	assert.Equal(t, 6, records[0].NodesCreated)

	// Imported graphs are playable as they come.
	activated, err := s.scenarios.Activate(ctx, s.owner, res.ScenarioID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioActive, activated.State)
}

func TestImportIsAtomic(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	s.seedTemplates(t)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(hearing), &doc))
	conns := doc["conexiones"].([]any)
	conns[2].(map[string]any)["hacia"] = "node_x"
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = s.imports.Import(ctx, s.owner, data, ImportOptions{})
	ae := requireRule(t, err, appErr.CodeImportSchema, "")
	assert.Equal(t, []string{"Connection 3: unknown target node_x"}, ae.Items())

	for _, m := range []any{&models.Scenario{}, &models.Role{}, &models.Flow{}, &models.Node{}, &models.Option{}, &models.Connection{}, &models.ImportRecord{}} {
		assert.Zero(t, s.count(t, m, ""), "%T", m)
	}
}

func TestImportRollsBackOnStorageFailure(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	s.seedTemplates(t)

	// A grid that cannot hold six nodes fails mid-import, after rows were written.
	tiny := testSettings
	tiny.Grid.Columns, tiny.Grid.Rows, tiny.Grid.MaxRows, tiny.Grid.Margin = 1, 1, 1, 0
	imports := NewImportService(s.db, s.templates, tiny)

	doc := strings.ReplaceAll(hearing, `"x": 720`, `"x": 0`)
	doc = strings.ReplaceAll(doc, `"x": 480`, `"x": 0`)
	doc = strings.ReplaceAll(doc, `"x": 240`, `"x": 0`)
	doc = strings.ReplaceAll(doc, `"y": 160`, `"y": 0`)

	_, err := imports.Import(ctx, s.owner, []byte(doc), ImportOptions{})
	requireRule(t, err, appErr.CodeGridExhausted, "")
	for _, m := range []any{&models.Scenario{}, &models.Role{}, &models.Flow{}, &models.Node{}} {
		assert.Zero(t, s.count(t, m, ""), "%T", m)
	}
}

func TestImportRoleResolution(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()

	_, err := s.imports.Import(ctx, s.owner, []byte(hearing), ImportOptions{})
	ae := requireRule(t, err, appErr.CodeImportSchema, "")
	assert.Contains(t, ae.Items(), "Node 1: unknown role Juez")
	assert.Contains(t, ae.Items(), "Node 6: unknown role Defensa")

	auto := true
	res, err := s.imports.Import(ctx, s.owner, []byte(hearing), ImportOptions{AutoCreateRoles: &auto})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RolesCreated)
}

func TestImportRejectsBadInput(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()

	_, err := s.imports.Import(ctx, s.owner, []byte(`{"dialogo": `), ImportOptions{})
	requireRule(t, err, appErr.CodeImportSyntax, "")

	student := Actor{UserID: uuid.New(), Role: models.UserStudent}
	_, err = s.imports.Import(ctx, student, []byte(hearing), ImportOptions{})
	requireRule(t, err, appErr.CodeForbidden, "")

	limited := NewImportService(s.db, s.templates, Settings{Grid: testSettings.Grid, MaxImportBytes: 64})
	_, err = limited.Import(ctx, s.owner, []byte(hearing), ImportOptions{})
	requireRule(t, err, appErr.CodeImportSyntax, "")
}

func TestExportRoundTrip(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	s.seedTemplates(t)

	first, err := s.imports.Import(ctx, s.owner, []byte(hearing), ImportOptions{})
	require.NoError(t, err)

	doc, err := s.scenarios.Export(ctx, s.owner, first.ScenarioID)
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	second, err := s.imports.Import(ctx, s.owner, data, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.NodesCreated, second.NodesCreated)
	assert.Equal(t, first.ConnectionsCreated, second.ConnectionsCreated)
	assert.Equal(t, first.OptionsCreated, second.OptionsCreated)
	assert.Equal(t, first.RolesCreated, second.RolesCreated)

	again, err := s.scenarios.Export(ctx, s.owner, second.ScenarioID)
	require.NoError(t, err)
	assert.Equal(t, doc.Nodes, again.Nodes)
	assert.Equal(t, doc.Connections, again.Connections)
}

func TestAuthoredScenarioReimports(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)

	start := s.node(t, sc.flow, "auto", "Apertura", true)
	ask := s.node(t, sc.flow, "decision", "Objecion", false)
	yes := s.node(t, sc.flow, "final", "Ha lugar", false)
	no := s.node(t, sc.flow, "final", "No ha lugar", false)
	s.link(t, sc.scenario, start, ask, nil)

	_, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: ""})
	requireRule(t, err, appErr.CodeInvalid, "")
	a, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "Se acepta", Color: "#22c55e", Score: 10})
	require.NoError(t, err)
	b, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "Se rechaza"})
	require.NoError(t, err)
	s.link(t, sc.scenario, ask, yes, a)
	s.link(t, sc.scenario, ask, no, b)

	_, err = s.scenarios.Activate(ctx, s.owner, sc.scenario.ID)
	require.NoError(t, err)

	doc, err := s.scenarios.Export(ctx, s.owner, sc.scenario.ID)
	require.NoError(t, err)
	assert.Empty(t, scenariofile.Check(doc, scenariofile.CheckOptions{AutoCreateRoles: true}))
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	auto := true
	res, err := s.imports.Import(ctx, s.owner, data, ImportOptions{AutoCreateRoles: &auto})
	require.NoError(t, err)
	assert.Equal(t, 4, res.NodesCreated)
	assert.Equal(t, 2, res.OptionsCreated)
	assert.Equal(t, 3, res.ConnectionsCreated)

	report, err := s.scenarios.Validate(ctx, s.owner, res.ScenarioID)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Messages())
}
