package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/qj0r9j0vc2/mention-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/persistence/mysql"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/persistence/sqlite"
)

// PatternStore is an opened moderation pattern database.
type PatternStore struct {
	Repo   repository.PatternRepository
	Pinger handler.ReadinessChecker
	Closer io.Closer
}

// OpenPatternStore opens the database selected by moderation.source.
// It returns nil when the source is not database-backed.
func OpenPatternStore(ctx context.Context, cfg *config.Config) (*PatternStore, error) {
	switch cfg.Moderation.Source {
	case "sqlite":
		db, err := sqlite.NewDB(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("running sqlite migrations: %w", err)
		}

		repos := sqlite.NewRepositories(db)
		return &PatternStore{Repo: repos.Patterns, Pinger: db, Closer: db}, nil

	case "mysql":
		repos, db, err := mysql.NewRepositories(ctx, &cfg.Storage.MySQL)
		if err != nil {
			return nil, fmt.Errorf("opening mysql database: %w", err)
		}
		return &PatternStore{Repo: repos.Patterns, Pinger: db, Closer: db}, nil

	default:
		return nil, nil
	}
}

// initializeStorage opens the pattern database when moderation reads from one.
func (app *Application) initializeStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := OpenPatternStore(ctx, app.config)
	if err != nil {
		return err
	}
	if store == nil {
		app.logger.Get().Info("no pattern database configured",
			"moderation_source", app.config.Moderation.Source,
		)
		return nil
	}

	app.patternRepo = store.Repo
	app.dbPinger = store.Pinger
	app.dbCloser = store.Closer

	app.logger.Get().Info("pattern database initialized",
		"type", app.config.Moderation.Source,
	)
	return nil
}
