package main

import (
	"context"
	"fmt"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/courtroom-studio/engine/pkg/config"
	"github.com/courtroom-studio/engine/pkg/database"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app holds what every subcommand needs once the root pre-run has finished.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	settings services.Settings
	dsn      string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dialogctl",
		Short:         "Courtroom dialogue studio administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				_ = database.Close(a.db)
			}
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.dsn, "db", "", "database URL (overrides DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newValidateCmd(a),
		newUserCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dsn != "" {
		cfg.DatabaseURL = a.dsn
	}
	if _, err := logger.Init(cfg.LogLevel, "console"); err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Options{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.db = db
	a.settings = services.SettingsFromConfig(cfg)
	return nil
}

// actorFor resolves --owner to a stored user. An empty email acts as the system.
func (a *app) actorFor(ctx context.Context, email string) (services.Actor, error) {
	if email == "" {
		return services.System, nil
	}
	var u models.User
	if err := repository.NewUserRepository(a.db).GetByEmail(ctx, email, &u); err != nil {
		return services.Actor{}, fmt.Errorf("owner %s: %w", email, err)
	}
	return services.Actor{UserID: u.ID, Role: u.Role}, nil
}

func parseScenarioID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("scenario id %q is not a uuid", s)
	}
	return id, nil
}
