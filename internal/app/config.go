package app

import (
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
)

// setupConfigManager enables hot reload of the configuration file.
func (app *Application) setupConfigManager() error {
	app.configManager = config.NewConfigManager(app.configPath, app.config, app.logAdapter())

	app.configManager.OnReload(func(old, updated *config.Config) {
		if old.Logging != updated.Logging {
			app.logger.Reconfigure(updated.Logging.Level, updated.Logging.Format)
			app.logger.Get().Info("logger reconfigured",
				"level", updated.Logging.Level,
				"format", updated.Logging.Format,
			)
		}
	})

	if app.configPath == "" {
		return nil
	}
	if err := app.configManager.Watch(); err != nil {
		// A missing file is allowed; environment variables configure everything.
		app.logger.Get().Warn("config file watch disabled", "error", err)
	}
	return nil
}
