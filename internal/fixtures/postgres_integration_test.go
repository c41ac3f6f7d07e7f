//go:build integration

package fixtures

import (
	"context"
	"testing"

	"github.com/courtroom-studio/engine/internal/layout"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/courtroom-studio/engine/pkg/database"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestSeedOnPostgres(t *testing.T) {
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("studio"),
		tcpostgres.WithUsername("studio"),
		tcpostgres.WithPassword("studio"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, database.Options{Driver: "postgres", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	// a second run must be a no-op
	require.NoError(t, models.Migrate(db))

	settings := services.Settings{Grid: layout.Config{Columns: 8, Rows: 6, MaxRows: 40, Margin: 1, CellWidth: 240, CellHeight: 160}}
	templates := repository.NewRoleTemplateRepository(db)
	records := repository.NewImportRecordRepository(db)
	scenarios := services.NewScenarioService(db, repository.NewScenarioRepository(db), records, settings)

	set, err := Embedded()
	require.NoError(t, err)
	res, err := NewSeeder(templates, records, services.NewImportService(db, templates, settings)).Seed(ctx, services.System, set)
	require.NoError(t, err)
	require.Len(t, res.Imported, len(set.Cases))

	for name, out := range res.Imported {
		report, err := scenarios.Validate(ctx, services.System, out.ScenarioID)
		require.NoError(t, err)
		assert.True(t, report.OK(), "%s: %v", name, report.Messages())

		activated, err := scenarios.Activate(ctx, services.System, out.ScenarioID)
		require.NoError(t, err)
		assert.Equal(t, models.ScenarioActive, activated.State)
	}

	// the partial unique index backs the one-initial-node rule
	var initial models.Node
	require.NoError(t, db.Where("is_initial = ?", true).First(&initial).Error)
	_, err = services.NewNodeService(db, settings).Create(ctx, services.System, initial.FlowID, &services.NodeInput{
		Kind: "auto", Title: "otra apertura", Content: "otra apertura", IsInitial: true,
	})
	require.Error(t, err)
	assert.Equal(t, appErr.CodeConflict, appErr.CodeOf(err))
}
