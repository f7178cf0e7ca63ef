package app

import (
	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/server"
)

func (app *Application) initializeHandlers() {
	ready := handler.NewReadyHandler()
	ready.AddChecker("slack", app.clients.Slack)
	if app.dbPinger != nil {
		ready.AddChecker("database", app.dbPinger)
	}

	app.handlers = &server.Handlers{
		SlackEvents: handler.NewSlackEventsHandler(app.useCases.HandleMention, app.logAdapter()),
		Health:      handler.NewHealthHandler(observability.ServiceName, Version),
		Ready:       ready,
		Metrics:     handler.NewMetricsHandler(app.telemetry.Registry),
		Reload:      handler.NewReloadHandler(app.configManager, app.logAdapter()),
	}
}

func (app *Application) setupServer() {
	log := app.logger.Get()

	if !app.config.IsSignatureVerificationEnabled() {
		log.Warn("slack signing secret not configured, request signatures will not be verified")
	}

	app.router = server.NewRouter(app.handlers, server.RouterOptions{
		SigningSecret:  app.config.Slack.SigningSecret,
		RequestTimeout: app.config.Server.RequestTimeout,
		Metrics:        app.telemetry.Metrics,
	}, app.logger.Get)

	app.server = server.New(app.config.Server, app.router, log)
}
