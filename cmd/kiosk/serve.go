package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/api"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/audit"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/capture"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/config"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/database"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/face"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/repository"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/service"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/webhook"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	logger.Info("starting Rekko Kiosk",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.FaceProvider),
		slog.String("capture", cfg.CaptureSource),
	)

	faceProvider, err := face.NewFaceProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	defer func() { _ = faceProvider.Close() }()

	frames, err := capture.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open capture source: %w", err)
	}
	defer func() { _ = frames.Close() }()

	auditLogger, closeJournal, err := newAuditLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	hub := ws.NewHub()
	notifiers := service.Notifiers{hub}
	if cfg.WebhookEnabled() {
		dispatcher := webhook.NewDispatcher(webhookConfig(cfg), logger)
		go dispatcher.Run(ctx)
		notifiers = append(notifiers, dispatcher)
	}

	loader := service.NewModelLoader(faceProvider, provider.DefaultModels(), logger)
	session := service.NewSession(
		loader,
		enrollment.NewStore(),
		faceProvider,
		frames,
		sessionConfig(cfg),
		logger,
	).WithNotifier(notifiers).WithAudit(auditLogger)

	router := api.NewRouter(logger, &api.Dependencies{
		Session:      session,
		Loader:       loader,
		Frames:       frames,
		Hub:          hub,
		RateLimitMax: cfg.RateLimitMax,
	})
	router.Setup()

	// Models load in the background; flows report MODELS_NOT_LOADED until done
	go func() {
		if err := session.LoadModels(ctx); err != nil {
			logger.Error("failed to load models", slog.Any("error", err))
		}
	}()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

func sessionConfig(cfg *config.Config) service.SessionConfig {
	sc := service.DefaultSessionConfig()
	sc.Detection = provider.DetectionOptions{
		InputSize:      cfg.DetectorInputSize,
		ScoreThreshold: cfg.DetectorScoreThreshold,
	}
	sc.MatchThreshold = cfg.MatchThreshold
	sc.FlowTimeout = cfg.FlowTimeout
	sc.ProviderName = cfg.FaceProvider
	return sc
}

func webhookConfig(cfg *config.Config) webhook.Config {
	wc := webhook.DefaultConfig()
	wc.URL = cfg.WebhookURL
	wc.Secret = cfg.WebhookSecret
	if len(cfg.WebhookEvents) > 0 {
		wc.Events = cfg.WebhookEvents
	}
	return wc
}

// newAuditLogger always logs through slog. With DATABASE_URL set, events are
// also journaled to Postgres after applying migrations.
func newAuditLogger(ctx context.Context, cfg *config.Config) (audit.Logger, func(), error) {
	slogAudit := audit.NewSlogLogger(logger)
	if !cfg.JournalEnabled() {
		return slogAudit, func() {}, nil
	}

	if err := migrateUp(cfg); err != nil {
		return nil, nil, err
	}

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect journal database: %w", err)
	}

	worker := audit.NewJournalWorker(
		repository.NewFlowEventRepository(pool),
		logger,
		audit.DefaultJournalWorkerConfig(),
	)
	worker.Start()
	logger.Info("flow journal enabled")

	closeFn := func() {
		worker.Stop()
		pool.Close()
	}
	return audit.NewJournalLogger(slogAudit, worker), closeFn, nil
}

func openJournalPool(ctx context.Context) (*pgxpool.Pool, error) {
	if !cfg.JournalEnabled() {
		return nil, errors.New("DATABASE_URL is not set")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.NewPgxPool(connectCtx, database.DefaultPoolConfig(cfg.DatabaseURL))
}
