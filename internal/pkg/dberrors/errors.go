package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	// SingleRunningRun is the partial unique index allowing one RUNNING
	// pipeline run at a time.
	SingleRunningRun = "pipeline_runs_single_running_idx"
)

// IsDuplicateConstraintError reports whether err is a PostgreSQL unique
// violation of the named constraint or unique index.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}
