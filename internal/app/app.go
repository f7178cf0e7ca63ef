package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/server"
)

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// Application holds all application dependencies and lifecycle
type Application struct {
	config        *config.Config
	configPath    string
	configManager *config.ConfigManager
	logger        *AtomicLogger
	telemetry     *observability.Telemetry

	// Storage
	patternRepo repository.PatternRepository
	dbPinger    handler.ReadinessChecker
	dbCloser    io.Closer // For cleanup

	// Infrastructure clients
	clients *Clients

	// Use cases
	useCases *UseCases

	// HTTP layer
	handlers *server.Handlers
	router   http.Handler
	server   *server.Server
}

// New loads the configuration at configPath and creates a new Application.
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, configPath)
}

// NewWithConfig creates a new Application from an already loaded configuration.
func NewWithConfig(cfg *config.Config, configPath string) (*Application, error) {
	app := &Application{
		config:     cfg,
		configPath: configPath,
	}

	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Start runs the application until context is cancelled
func (app *Application) Start(ctx context.Context) error {
	app.logger.Get().Info("starting mention-bridge",
		"version", Version,
		"port", app.config.Server.Port,
		"completion_protocol", app.config.Completion.Protocol,
		"moderation_source", app.config.Moderation.Source,
	)

	return app.server.Run(ctx)
}

// Shutdown gracefully stops the application
func (app *Application) Shutdown() error {
	log := app.logger.Get()
	log.Info("shutting down mention-bridge")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Let accepted mentions finish; their failures may still be reported
	if app.handlers != nil && app.handlers.SlackEvents != nil {
		app.handlers.SlackEvents.Wait()
	}

	// Let in-flight dependency-failure reports finish
	if app.clients != nil && app.clients.Reporter != nil {
		app.clients.Reporter.Wait()
	}

	// Shutdown telemetry
	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			log.Error("failed to shutdown telemetry", "error", err)
		}
	}

	// Close database
	if app.dbCloser != nil {
		if err := app.dbCloser.Close(); err != nil {
			log.Error("failed to close database", "error", err)
			return err
		}
	}

	log.Info("mention-bridge stopped")
	return nil
}
