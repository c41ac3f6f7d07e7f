package scenariofile

import (
	"encoding/json"
	"testing"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "dialogo": {"nombre": "Robo agravado", "descripcion": "Audiencia preliminar", "publico": true},
  "nodos": [
    {"id": "n1", "titulo": "Apertura", "contenido": "Se abre la audiencia.", "rol_nombre": "Juez", "tipo": "inicio", "es_inicial": true, "es_final": false, "posicion": {"x": 0, "y": 0}},
    {"id": "n2", "titulo": "Objecion", "contenido": "La defensa objeta.", "rol_nombre": "Juez", "tipo": "decision", "es_inicial": false, "es_final": false, "posicion": {"x": 240, "y": 0}},
    {"id": "n3", "titulo": "Ha lugar", "contenido": "Se acepta la objecion.", "rol_nombre": "Juez", "tipo": "desarrollo", "es_inicial": false, "es_final": false, "posicion": {"x": 480, "y": 0}},
    {"id": "n4", "titulo": "Cierre", "contenido": "Se levanta la sesion.", "rol_nombre": "Juez", "tipo": "final", "es_inicial": false, "es_final": true, "posicion": {"x": 480, "y": 160}},
    {"id": "n5", "titulo": "Sentencia", "contenido": "Se dicta sentencia.", "rol_nombre": "Juez", "tipo": "final", "es_inicial": false, "es_final": true, "posicion": {"x": 720, "y": 0}}
  ],
  "conexiones": [
    {"desde": "n1", "hacia": "n2", "texto": "continuar"},
    {"desde": "n2", "hacia": "n3", "texto": "Ha lugar", "color": "#22c55e", "puntuacion": 10},
    {"desde": "n3", "hacia": "n5", "texto": "continuar"},
    {"desde": "n2", "hacia": "n4", "texto": "No ha lugar", "puntuacion": 0}
  ]
}`

func knownRoles(names ...string) CheckOptions {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return CheckOptions{KnownRole: func(name string) bool { return set[name] }}
}

func TestDecodeValid(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "Robo agravado", doc.Scenario.Name)
	assert.True(t, doc.Scenario.Public)
	require.Len(t, doc.Nodes, 5)
	assert.Equal(t, TypeDecision, doc.Nodes[1].Type)
	require.NotNil(t, doc.Connections[1].Score)
	assert.Equal(t, 10.0, *doc.Connections[1].Score)
	assert.Nil(t, doc.Connections[0].Color)

	assert.Empty(t, Check(doc, knownRoles("Juez")))
}

func TestDecodeSyntaxError(t *testing.T) {
	for _, in := range []string{"", "   ", `{"dialogo": `, `{"nodos": "x"}`} {
		_, err := Decode([]byte(in))
		require.Error(t, err, in)
		assert.True(t, appErr.IsCode(err, appErr.CodeImportSyntax), in)

		var ae *appErr.AppError
		require.ErrorAs(t, err, &ae)
		assert.Len(t, ae.Items(), 1)
	}
}

func TestCheckNamesUnknownConnectionTarget(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Connections = []Connection{
		{From: "n1", To: "n2", Text: "continuar"},
		{From: "n2", To: "n3", Text: "Ha lugar"},
		{From: "n3", To: "node_x", Text: "continuar"},
		{From: "n2", To: "n4", Text: "No ha lugar"},
		{From: "n3", To: "n5"},
	}

	items := Check(doc, knownRoles("Juez"))
	assert.Equal(t, []string{"Connection 3: unknown target node_x"}, items)
}

func TestCheckCollectsEveryProblem(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Nodes[2].Content = ""
	doc.Nodes[3].IsFinal = false
	doc.Nodes[4].ID = "n1"
	doc.Nodes[1].Type = "pregunta"
	doc.Nodes[2].IsInitial = true
	doc.Connections = append(doc.Connections,
		Connection{From: "n4", To: "n1", Text: "volver"},
		Connection{From: "n1", To: "n1"},
	)

	items := Check(doc, knownRoles("Juez"))
	assert.Contains(t, items, "Node 3: missing content")
	assert.Contains(t, items, "Node 4: final node must set es_final")
	assert.Contains(t, items, "Node 5: duplicate id n1 (first used by Node 1)")
	assert.Contains(t, items, "Node 2: unknown type pregunta")
	assert.Contains(t, items, "Connection 5: final node n4 cannot have exits")
	assert.Contains(t, items, "Connection 6: node n1 connects to itself")
	assert.Contains(t, items, "Role Juez: multiple initial nodes (Node 1, Node 3)")
}

func TestCheckRoleResolution(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Nodes[2].RoleName = "Perito"
	doc.Nodes[2].IsInitial = true
	doc.Nodes[2].Type = TypeStart

	items := Check(doc, knownRoles("Juez"))
	assert.Equal(t, []string{"Node 3: unknown role Perito"}, items)

	assert.Empty(t, Check(doc, CheckOptions{AutoCreateRoles: true}))
}

func TestCheckInitialPerRole(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Nodes[0].IsInitial = false
	doc.Nodes[0].Type = TypeBody

	items := Check(doc, knownRoles("Juez"))
	assert.Equal(t, []string{"Role Juez: no initial node"}, items)
}

func TestCheckDecisionLimits(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Connections = append(doc.Connections,
		Connection{From: "n2", To: "n5", Text: "C"},
		Connection{From: "n2", To: "n5", Text: "D"},
		Connection{From: "n2", To: "n5"},
	)
	half := 2.5
	doc.Connections[1].Score = &half

	items := Check(doc, knownRoles("Juez"))
	assert.Contains(t, items, "Connection 7: missing text for decision option")
	assert.Contains(t, items, "Connection 2: puntuacion must be a whole number")
	assert.Contains(t, items, "Node 2: decision has 5 exits, at most 4 allowed")
}

func TestCheckStorableValues(t *testing.T) {
	doc, err := Decode([]byte(validDoc))
	require.NoError(t, err)
	doc.Nodes[2].Position = nil
	wide := "rgba(255,255,255,0.5)"
	doc.Connections[1].Color = &wide
	fits := "#1e88e5"
	doc.Connections[3].Color = &fits

	items := Check(doc, knownRoles("Juez"))
	assert.Equal(t, []string{
		"Node 3: missing posicion",
		"Connection 2: color longer than 16 characters",
	}, items)
}

func TestDecodeMissingPositionIsNil(t *testing.T) {
	doc, err := Decode([]byte(`{"dialogo":{"nombre":"x"},"nodos":[{"id":"a","titulo":"A","contenido":"c","rol_nombre":"Juez","tipo":"inicio","es_inicial":true}],"conexiones":[]}`))
	require.NoError(t, err)
	assert.Nil(t, doc.Nodes[0].Position)
	assert.Contains(t, Check(doc, knownRoles("Juez")), "Node 1: missing posicion")
}

func TestKindMapping(t *testing.T) {
	k, ok := KindOf(TypeStart)
	assert.True(t, ok)
	assert.Equal(t, dialogue.KindAuto, k)

	_, ok = KindOf("pregunta")
	assert.False(t, ok)

	assert.Equal(t, TypeStart, TypeOf(dialogue.KindAuto, true))
	assert.Equal(t, TypeBody, TypeOf(dialogue.KindAuto, false))
	assert.Equal(t, TypeDecision, TypeOf(dialogue.KindDecision, false))
	assert.Equal(t, TypeFinal, TypeOf(dialogue.KindFinal, false))
}

func TestExportOrdersDecisionExitsByLabel(t *testing.T) {
	role := models.Role{ID: uuid.New(), Name: "Juez"}
	flow := models.Flow{ID: uuid.New(), RoleID: role.ID, IsPrimary: true}
	start := models.Node{ID: uuid.New(), FlowID: flow.ID, Kind: "decision", Title: "Objecion", Content: "c", IsInitial: true, SortOrder: 1}
	yes := models.Node{ID: uuid.New(), FlowID: flow.ID, Kind: "final", Title: "Si", Content: "c", IsFinal: true, SortOrder: 2, PosX: 240}
	no := models.Node{ID: uuid.New(), FlowID: flow.ID, Kind: "final", Title: "No", Content: "c", IsFinal: true, SortOrder: 3}
	optA := models.Option{ID: uuid.New(), NodeID: start.ID, Label: "A", Text: "Ha lugar", Color: "#fff", Score: 5, SortOrder: 0}
	optB := models.Option{ID: uuid.New(), NodeID: start.ID, Label: "B", Text: "No ha lugar", SortOrder: 1}

	set := &models.GraphSet{
		Scenario: models.Scenario{Name: "Caso", IsPublic: true},
		Roles:    []models.Role{role},
		Flows:    []models.Flow{flow},
		// stored out of order on purpose
		Nodes:   []models.Node{no, yes, start},
		Options: []models.Option{optB, optA},
		Connections: []models.Connection{
			{ID: uuid.New(), FromNodeID: start.ID, ToNodeID: no.ID, OptionID: &optB.ID},
			{ID: uuid.New(), FromNodeID: start.ID, ToNodeID: yes.ID, OptionID: &optA.ID},
		},
	}

	doc := Export(set)
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "Objecion", doc.Nodes[0].Title)
	assert.Equal(t, TypeDecision, doc.Nodes[0].Type)
	require.NotNil(t, doc.Nodes[1].Position)
	assert.Equal(t, 240.0, doc.Nodes[1].Position.X)

	require.Len(t, doc.Connections, 2)
	assert.Equal(t, "Ha lugar", doc.Connections[0].Text)
	assert.Equal(t, "n2", doc.Connections[0].To)
	require.NotNil(t, doc.Connections[0].Color)
	assert.Equal(t, 5.0, *doc.Connections[0].Score)
	assert.Nil(t, doc.Connections[1].Color)

	assert.Empty(t, Check(doc, knownRoles("Juez")))

	// the exported document survives a JSON round trip unchanged
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestDecodeYAML(t *testing.T) {
	src := `
dialogo:
  nombre: Caso breve
nodos:
  - id: a
    titulo: Inicio
    contenido: Comienza
    rol_nombre: Juez
    tipo: inicio
    es_inicial: true
    posicion: {x: 0, y: 0}
  - id: b
    titulo: Fin
    contenido: Termina
    rol_nombre: Juez
    tipo: final
    es_final: true
    posicion: {x: 240, y: 0}
conexiones:
  - desde: a
    hacia: b
    texto: seguir
`
	doc, err := DecodeYAML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Juez"}, doc.RoleNames())
	assert.Equal(t, map[string][]int{"a": {0}}, doc.Exits())
	assert.Empty(t, Check(doc, knownRoles("Juez")))

	_, err = DecodeYAML([]byte("nodos: [unclosed"))
	assert.True(t, appErr.IsCode(err, appErr.CodeImportSyntax))
}
