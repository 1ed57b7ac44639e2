package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/db"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SnapshotRepository replaces the resolved catalog tables with a run's result.
type SnapshotRepository struct {
	db  db.Beginner
	log zerolog.Logger
}

func NewSnapshotRepository(pool db.Beginner) *SnapshotRepository {
	return &SnapshotRepository{db: pool, log: logger.Component("snapshot_repository")}
}

// Replace truncates every output table and bulk loads result in a single
// transaction, so readers see either the old or the new catalog.
func (r *SnapshotRepository) Replace(ctx context.Context, result *models.Result) error {
	started := time.Now()
	tables := snapshotTables(result)

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE "+strings.Join(truncateOrder, ", ")); err != nil {
			return fmt.Errorf("truncating catalog: %w", err)
		}

		for _, t := range tables {
			if len(t.rows) == 0 {
				continue
			}
			n, err := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.columns, pgx.CopyFromRows(t.rows))
			if err != nil {
				return fmt.Errorf("copying %s: %w", t.name, err)
			}
			r.log.Debug().Str("table", t.name).Int64("rows", n).Msg("Copied table")
		}
		return nil
	})
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to replace catalog snapshot")
		return err
	}

	r.log.Info().
		Int("courses", len(result.Courses)).
		Int("listings", len(result.Listings)).
		Int("professors", len(result.Professors)).
		Dur("elapsed", time.Since(started)).
		Msg("Catalog snapshot replaced")
	return nil
}
