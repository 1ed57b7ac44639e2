package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/coursetable/ferry/internal/db"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migrator applies the numbered SQL files of a directory once each.
type Migrator struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool, log: logger.Component("migrator")}
}

func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1);`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Version extracts the version prefix of a migration file name, e.g. "001"
// for "001_init.sql".
func Version(filename string) string {
	base := filepath.Base(filename)
	version, _, _ := strings.Cut(base, "_")
	return strings.TrimSuffix(version, ".sql")
}

// MigrateFromFile applies one SQL file and records its version in the same
// transaction. Already applied versions are skipped.
func (m *Migrator) MigrateFromFile(ctx context.Context, path string) (bool, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return false, err
	}

	filename := filepath.Base(path)
	version := Version(filename)

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if applied {
		m.log.Debug().Str("file", filename).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	err = db.WithTransaction(ctx, m.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration execution: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
			version, time.Now()); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("migration %s: %w", filename, err)
	}

	m.log.Info().Str("file", filename).Str("version", version).Msg("Migration applied")
	return true, nil
}

// PendingFiles lists the .sql files of dir in the order they are applied.
func PendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// MigrateFromDirectory applies every pending migration of dir and returns how
// many were applied.
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dir string) (int, error) {
	files, err := PendingFiles(dir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, f := range files {
		ok, err := m.MigrateFromFile(ctx, f)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}

	m.log.Info().Str("dir", dir).Int("files", len(files)).Int("applied", applied).Msg("Migrations complete")
	return applied, nil
}
