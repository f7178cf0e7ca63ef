package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
)

// DB wraps a MySQL database connection with health checking.
type DB struct {
	primary *sql.DB
	config  *config.MySQLConfig
}

// NewDB creates a new MySQL database connection with connection pooling.
func NewDB(cfg *config.MySQLConfig) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config is required")
	}

	dsn := buildDSN(
		cfg.Primary.Host,
		cfg.Primary.Port,
		cfg.Primary.Database,
		cfg.Primary.Username,
		cfg.Primary.Password,
		cfg.Charset,
		cfg.ParseTime,
		cfg.Timeout,
	)

	primary, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening primary connection: %w", err)
	}

	primary.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	primary.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	primary.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	primary.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := primary.PingContext(ctx); err != nil {
		primary.Close()
		return nil, fmt.Errorf("pinging primary database: %w", err)
	}

	return &DB{
		primary: primary,
		config:  cfg,
	}, nil
}

// buildDSN constructs a MySQL DSN string.
// Format: user:password@tcp(host:port)/database?params
func buildDSN(host string, port int, database, username, password, charset string, parseTime bool, timeout time.Duration) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&timeout=%s",
		username,
		password,
		host,
		port,
		database,
		charset,
		parseTime,
		timeout.String(),
	)
}

// Primary returns the database connection.
func (db *DB) Primary() *sql.DB {
	return db.primary
}

// Ping checks connectivity to the database.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.primary.PingContext(ctx); err != nil {
		return fmt.Errorf("primary ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.primary == nil {
		return nil
	}
	if err := db.primary.Close(); err != nil {
		return fmt.Errorf("closing primary: %w", err)
	}
	return nil
}

// DBStats holds connection pool statistics.
type DBStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics for monitoring.
func (db *DB) Stats() DBStats {
	s := db.primary.Stats()
	return DBStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}
}
