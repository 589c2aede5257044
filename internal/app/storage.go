package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexvite/curriculum-vitae/internal/config"
	"github.com/alexvite/curriculum-vitae/internal/identity"
	identitypostgres "github.com/alexvite/curriculum-vitae/internal/identity/postgres"
	identitysqlite "github.com/alexvite/curriculum-vitae/internal/identity/sqlite"
	"github.com/alexvite/curriculum-vitae/internal/meetings"
	meetingspostgres "github.com/alexvite/curriculum-vitae/internal/meetings/postgres"
	meetingssqlite "github.com/alexvite/curriculum-vitae/internal/meetings/sqlite"
	"github.com/alexvite/curriculum-vitae/internal/pkg/metrics"
	"github.com/alexvite/curriculum-vitae/internal/pkg/postgres"
	"github.com/alexvite/curriculum-vitae/internal/pkg/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
)

// storage bundles the repositories of one database driver.
type storage struct {
	meetings meetings.Repository
	identity identity.Repository

	ping          func(ctx context.Context) error
	recordMetrics func()
	close         func()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, err
	}

	// the pool is up, so the database accepts connections
	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.URL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	return newPostgresStorage(pool), nil
}

func newPostgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		meetings:      meetingspostgres.NewRepository(pool),
		identity:      identitypostgres.NewRepository(pool),
		ping:          pool.Ping,
		recordMetrics: func() { metrics.RecordDBPoolMetrics(pool) },
		close:         pool.Close,
	}
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := sqlite.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	return newSQLiteStorage(db), nil
}

func newSQLiteStorage(db *sql.DB) *storage {
	return &storage{
		meetings:      meetingssqlite.NewRepository(db),
		identity:      identitysqlite.NewRepository(db),
		ping:          db.PingContext,
		recordMetrics: func() { metrics.RecordSQLDBMetrics(db) },
		close:         func() { _ = db.Close() },
	}
}
