package app

import (
	"fmt"
)

func (app *Application) bootstrap() error {
	// 1. Setup logger
	app.setupLogger()

	// 2. Setup telemetry (OpenTelemetry)
	if err := app.setupTelemetry(); err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	// 3. Setup config manager with reload callback
	if err := app.setupConfigManager(); err != nil {
		return fmt.Errorf("setting up config manager: %w", err)
	}

	// 4. Initialize storage layer
	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// 5. Initialize infrastructure clients
	if err := app.initializeClients(); err != nil {
		return fmt.Errorf("initializing clients: %w", err)
	}

	// 6. Initialize use cases
	app.initializeUseCases()

	// 7. Initialize HTTP handlers
	app.initializeHandlers()

	// 8. Setup HTTP server
	app.setupServer()

	return nil
}
