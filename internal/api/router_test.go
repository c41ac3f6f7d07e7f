package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/courtroom-studio/engine/internal/api/handlers"
	mw "github.com/courtroom-studio/engine/internal/api/middleware"
	"github.com/courtroom-studio/engine/internal/layout"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/courtroom-studio/engine/pkg/database"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	restore := logger.Replace(zap.NewNop())
	code := m.Run()
	restore()
	os.Exit(code)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string   `json:"code"`
		Kind   string   `json:"kind"`
		Errors []string `json:"errors"`
	} `json:"error"`
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any, out any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	if out != nil && env.Data != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
	return rr.Code, env
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_pragma=foreign_keys(1)"
	db, err := database.Open(ctx, database.Options{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	secret := []byte("router-test")
	settings := services.Settings{Grid: layout.Config{Columns: 6, Rows: 4, MaxRows: 20, Margin: 1, CellWidth: 200, CellHeight: 120}}
	scenarioRepo := repository.NewScenarioRepository(db)
	records := repository.NewImportRecordRepository(db)
	templates := repository.NewRoleTemplateRepository(db)

	return NewRouter(Dependencies{
		HMACSecret:  secret,
		Limiter:     mw.NewLimiter(1000, 1000),
		Ready:       func(ctx context.Context) error { return database.Ping(ctx, db) },
		Auth:        handlers.NewAuthHandler(services.NewAuthService(repository.NewUserRepository(db), secret)),
		Scenarios:   handlers.NewScenariosHandler(services.NewScenarioService(db, scenarioRepo, records, settings)),
		Roles:       handlers.NewRolesHandler(services.NewRoleService(db)),
		Nodes:       handlers.NewNodesHandler(services.NewNodeService(db, settings), services.NewOptionService(db)),
		Connections: handlers.NewConnectionsHandler(services.NewConnectionService(db)),
		Imports:     handlers.NewImportsHandler(services.NewImportService(db, templates, settings), 1<<20),
	})
}

func login(t *testing.T, h http.Handler, email, role string) *client {
	t.Helper()
	anon := &client{t: t, h: h}
	code, _ := anon.do(http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": "objection!", "name": email, "role": role,
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	code, _ = anon.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "objection!"}, &tok)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, tok.AccessToken)
	return &client{t: t, h: h, token: tok.AccessToken}
}

func TestAuthoringRoundTrip(t *testing.T) {
	h := newServer(t)
	prof := login(t, h, "prof@example.com", "instructor")
	student := login(t, h, "alumno@example.com", "student")

	code, env := student.do(http.MethodPost, "/scenarios", map[string]any{"name": "nope"}, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error.Code)

	var sc models.Scenario
	code, _ = prof.do(http.MethodPost, "/scenarios", map[string]any{"name": "Audiencia"}, &sc)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, models.ScenarioDraft, sc.State)
	base := "/scenarios/" + sc.ID.String()

	var role models.Role
	code, _ = prof.do(http.MethodPost, base+"/roles", map[string]any{"name": "Juez", "required": true, "color": "#1f77b4"}, &role)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, role.Flows, 1)
	flow := "/flows/" + role.Flows[0].ID.String()

	var open models.Node
	code, _ = prof.do(http.MethodPost, flow+"/nodes", map[string]any{"kind": "auto", "title": "Apertura", "content": "Se abre la audiencia.", "is_initial": true}, &open)
	require.Equal(t, http.StatusCreated, code)

	code, env = prof.do(http.MethodPost, flow+"/nodes", map[string]any{"kind": "auto", "title": "Otra", "content": "Otra apertura.", "is_initial": true}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "MultipleInitialNodes", env.Error.Kind)

	code, env = prof.do(http.MethodPost, base+"/activate", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_failed", env.Error.Code)
	assert.NotEmpty(t, env.Error.Errors)

	var closing models.Node
	code, _ = prof.do(http.MethodPost, flow+"/nodes", map[string]any{"kind": "final", "title": "Sentencia", "content": "Se dicta sentencia."}, &closing)
	require.Equal(t, http.StatusCreated, code)

	code, _ = prof.do(http.MethodPost, base+"/connections", map[string]any{
		"from_node_id": open.ID.String(), "to_node_id": closing.ID.String(),
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	var report handlers.ValidationResponse
	code, _ = prof.do(http.MethodGet, base+"/validation", nil, &report)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, report.OK, report.Errors)

	code, _ = student.do(http.MethodGet, base, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var active models.Scenario
	code, _ = prof.do(http.MethodPost, base+"/activate", nil, &active)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ScenarioActive, active.State)

	code, _ = prof.do(http.MethodPost, base+"/archive", nil, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = prof.do(http.MethodDelete, "/nodes/"+closing.ID.String(), nil, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestHealthAndAuthGate(t *testing.T) {
	h := newServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	anon := &client{t: t, h: h}
	code, _ := anon.do(http.MethodGet, "/scenarios", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
