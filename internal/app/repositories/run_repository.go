package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/dberrors"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var runColumns = []string{"id", "status", "trigger", "persisted", "started_at", "finished_at", "error", "report"}

// RunRepository stores the history of pipeline runs.
type RunRepository struct {
	db  *pgxpool.Pool
	sb  squirrel.StatementBuilderType
	log zerolog.Logger
}

func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		log: logger.Component("run_repository"),
	}
}

func (r *RunRepository) insertQuery(run *models.PipelineRun) (string, []any, error) {
	return r.sb.Insert("pipeline_runs").
		Columns("id", "status", "trigger", "persisted", "started_at").
		Values(run.ID, string(run.Status), run.Trigger, run.Persisted, run.StartedAt).
		ToSql()
}

// Create inserts a RUNNING run. Only one run may be running at a time; a
// second one fails with apperrors.ErrRunInProgress.
func (r *RunRepository) Create(ctx context.Context, run *models.PipelineRun) error {
	sql, args, err := r.insertQuery(run)
	if err != nil {
		return fmt.Errorf("failed to build create run query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.SingleRunningRun) {
			return apperrors.ErrRunInProgress
		}
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Error creating run")
		return fmt.Errorf("error creating run: %w", err)
	}
	return nil
}

func (r *RunRepository) finishQuery(run *models.PipelineRun) (string, []any, error) {
	var report []byte
	if run.Report != nil {
		var err error
		if report, err = json.Marshal(run.Report); err != nil {
			return "", nil, fmt.Errorf("encoding run report: %w", err)
		}
	}

	return r.sb.Update("pipeline_runs").
		SetMap(map[string]any{
			"status":      string(run.Status),
			"persisted":   run.Persisted,
			"finished_at": run.FinishedAt,
			"error":       run.Error,
			"report":      report,
		}).
		Where(squirrel.Eq{"id": run.ID}).
		ToSql()
}

// Finish stores the final state of a run.
func (r *RunRepository) Finish(ctx context.Context, run *models.PipelineRun) error {
	sql, args, err := r.finishQuery(run)
	if err != nil {
		return fmt.Errorf("failed to build finish run query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Error finishing run")
		return fmt.Errorf("error finishing run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("run " + run.ID.String())
	}
	return nil
}

// FailInterrupted marks runs left RUNNING by a previous process as failed.
func (r *RunRepository) FailInterrupted(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Update("pipeline_runs").
		Set("status", string(models.RunFailed)).
		Set("finished_at", squirrel.Expr("NOW()")).
		Set("error", "interrupted").
		Where(squirrel.Eq{"status": string(models.RunRunning)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build interrupted runs query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error failing interrupted runs: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.log.Warn().Int64("runs", n).Msg("Marked interrupted runs as failed")
	}
	return tag.RowsAffected(), nil
}

// GetByID returns one run.
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	sql, args, err := r.sb.Select(runColumns...).
		From("pipeline_runs").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get run query: %w", err)
	}
	return r.queryOne(ctx, sql, args, "run "+id.String())
}

// Latest returns the most recently started run.
func (r *RunRepository) Latest(ctx context.Context) (*models.PipelineRun, error) {
	sql, args, err := r.sb.Select(runColumns...).
		From("pipeline_runs").
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build latest run query: %w", err)
	}
	return r.queryOne(ctx, sql, args, "latest run")
}

// List returns a page of runs, newest first, plus the total number of runs.
func (r *RunRepository) List(ctx context.Context, offset uint64, limit int) ([]models.PipelineRun, int64, error) {
	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("pipeline_runs").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count runs query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting runs: %w", err)
	}

	sql, args, err := r.sb.Select(runColumns...).
		From("pipeline_runs").
		OrderBy("started_at DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list runs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	runs := []models.PipelineRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, total, nil
}

func (r *RunRepository) queryOne(ctx context.Context, sql string, args []any, what string) (*models.PipelineRun, error) {
	run, err := scanRun(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(what)
		}
		r.log.Error().Err(err).Str("what", what).Msg("Error scanning run row")
		return nil, err
	}
	return run, nil
}

func scanRun(row pgx.Row) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var status string
	var report []byte
	if err := row.Scan(&run.ID, &status, &run.Trigger, &run.Persisted, &run.StartedAt,
		&run.FinishedAt, &run.Error, &report); err != nil {
		return nil, fmt.Errorf("error scanning run row: %w", err)
	}
	run.Status = models.RunStatus(status)

	if len(report) > 0 {
		run.Report = &models.Report{}
		if err := json.Unmarshal(report, run.Report); err != nil {
			return nil, fmt.Errorf("decoding run report: %w", err)
		}
	}
	return &run, nil
}
