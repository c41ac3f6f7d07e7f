package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtroom-studio/engine/internal/api"
	"github.com/courtroom-studio/engine/internal/api/handlers"
	mw "github.com/courtroom-studio/engine/internal/api/middleware"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/courtroom-studio/engine/pkg/config"
	"github.com/courtroom-studio/engine/pkg/database"
	"github.com/courtroom-studio/engine/pkg/logger"
	"go.uber.org/zap"

	_ "github.com/courtroom-studio/engine/docs"
)

// @title           Courtroom Studio API
// @version         1.0
// @description     Authoring API for branching courtroom dialogue scenarios.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const devSecret = "change-me-in-production-please"

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting courtroom studio engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("db_driver", cfg.DatabaseDriver),
	)

	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{
		Driver:  cfg.DatabaseDriver,
		DSN:     cfg.DatabaseURL,
		Verbose: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	log.Info("database connected")

	if cfg.AutoMigrate {
		if err := models.Migrate(db); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("schema migrated")
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		if !cfg.IsDevelopment() {
			log.Fatal("JWT_SECRET is required outside development")
		}
		log.Warn("JWT_SECRET not set, using development default")
		secret = []byte(devSecret)
	}

	settings := services.SettingsFromConfig(cfg)
	users := repository.NewUserRepository(db)
	scenarios := repository.NewScenarioRepository(db)
	records := repository.NewImportRecordRepository(db)
	templates := repository.NewRoleTemplateRepository(db)

	limiter := mw.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := api.NewRouter(api.Dependencies{
		HMACSecret:  secret,
		Limiter:     limiter,
		Ready:       func(ctx context.Context) error { return database.Ping(ctx, db) },
		Auth:        handlers.NewAuthHandler(services.NewAuthService(users, secret)),
		Scenarios:   handlers.NewScenariosHandler(services.NewScenarioService(db, scenarios, records, settings)),
		Roles:       handlers.NewRolesHandler(services.NewRoleService(db)),
		Nodes:       handlers.NewNodesHandler(services.NewNodeService(db, settings), services.NewOptionService(db)),
		Connections: handlers.NewConnectionsHandler(services.NewConnectionService(db)),
		Imports:     handlers.NewImportsHandler(services.NewImportService(db, templates, settings), cfg.ImportMaxBytes),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-t.C:
				limiter.Sweep(10 * time.Minute)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
