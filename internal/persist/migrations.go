package persist

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// VersionTable is the goose bookkeeping table for the snapshot schema, kept
// apart from any other goose-managed schema in the same database.
const VersionTable = "scene_snapshot_versions"

//go:embed migrations/*.sql
var migrations embed.FS

// migrationFiles returns the snapshot schema migrations rooted at ".".
func migrationFiles() (fs.FS, error) {
	return fs.Sub(migrations, "migrations")
}

// RunMigrations applies all pending snapshot schema migrations and returns
// the schema version afterwards.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	files, err := migrationFiles()
	if err != nil {
		return 0, fmt.Errorf("migration files: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(files)
	goose.SetTableName(VersionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if after != before {
		log.Info("snapshot schema migrated", zap.Int64("from", before), zap.Int64("to", after))
	}
	return after, nil
}
