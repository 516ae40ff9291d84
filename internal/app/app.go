package app

import (
	"context"
	"fmt"
	"log/slog"

	"LinkStrategist/internal/config"
	"LinkStrategist/internal/httpapi"
	"LinkStrategist/internal/infrastructure/llm"
	"LinkStrategist/internal/infrastructure/sheet"
	"LinkStrategist/internal/infrastructure/storage"
	"LinkStrategist/internal/infrastructure/telegram"
	"LinkStrategist/internal/logging"
	"LinkStrategist/internal/ports"
	"LinkStrategist/internal/usecase"
)

// Application wires configs to use cases and the HTTP surface.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.Repository
	services httpapi.Services
}

// New opens storage and builds every use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if cfg.Analyzer.APIKey == "" {
		baseLogger.Warn("analyzer api key is not set; analysis requests will fail")
	}
	client := llm.NewClient(cfg.Analyzer, baseLogger.With("component", "analyzer"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	deps := usecase.Deps{
		Store:    store,
		Client:   client,
		Notifier: notifier,
		Decoders: sheet.NewRegistry(),
		Logger:   baseLogger.With("component", "usecase"),
	}

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		store:  store,
		services: httpapi.Services{
			Projects: usecase.NewProjects(deps),
			Ingestor: usecase.NewIngestor(deps),
			Analyzer: usecase.NewAnalyzer(deps),
			Exporter: usecase.NewExporter(deps),
		},
	}, nil
}

// Services exposes the use cases to command-line callers.
func (a *Application) Services() httpapi.Services {
	return a.services
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	server := httpapi.New(a.services, a.logger.With("component", "http"))
	return server.ListenAndServe(ctx, a.cfg.Server.Address)
}

// Close releases the database.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
