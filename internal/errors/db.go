package errors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// errSQLNoRows aliases the stdlib sentinel; repositories go through the
// database/sql bridge, so both no-rows sentinels show up in practice.
var errSQLNoRows = sql.ErrNoRows

// MapDBError maps database errors to AppError instances.
// It handles the common patterns the repositories run into:
// - pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Foreign key violations → Validation (referenced row is gone or still in use)
// - Check / NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// Anything else is returned unchanged so callers can wrap it with context.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Database operation timed out.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Database operation was canceled.",
			Cause:   err,
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, errSQLNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "Resource not found.",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: conflictMessage(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: foreignKeyMessage(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred.",
			Cause:   pgErr,
		}
	}
}

// conflictMessage picks a caller-facing message for unique violations based on
// the table the constraint lives on.
func conflictMessage(pgErr *pgconn.PgError) string {
	switch pgErr.TableName {
	case "trackers":
		return "A tracker with this name already exists."
	case "scheduler_jobs":
		return "A scheduler job for this tracker already exists."
	default:
		return "This value already exists."
	}
}

// foreignKeyMessage distinguishes a missing parent from a still-referenced parent.
func foreignKeyMessage(pgErr *pgconn.PgError) string {
	switch pgErr.TableName {
	case "tracker_revisions":
		return "The referenced tracker does not exist."
	case "tasks":
		return "The referenced tracker does not exist."
	default:
		return "Operation violates a reference to another resource."
	}
}
