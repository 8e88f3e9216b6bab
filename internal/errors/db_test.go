package errors

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, GetCode(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, GetCode(MapDBError(context.Canceled)))
}

func TestMapDBError_NoRows(t *testing.T) {
	assert.True(t, IsNotFound(MapDBError(pgx.ErrNoRows)))
	assert.True(t, IsNotFound(MapDBError(sql.ErrNoRows)))
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name     string
		pgErr    *pgconn.PgError
		wantCode ErrorCode
	}{
		{
			name:     "unique violation on trackers",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "trackers"},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "unique violation on scheduler jobs",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "scheduler_jobs"},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "foreign key violation on revisions",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "tracker_revisions"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "check violation",
			pgErr:    &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "name"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "not null violation",
			pgErr:    &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "cron_source"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "anything else",
			pgErr:    &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.pgErr)

			var appErr *AppError
			require.True(t, errors.As(mapped, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.True(t, errors.Is(mapped, tt.pgErr))
		})
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	plain := errors.New("network hiccup")
	assert.Equal(t, plain, MapDBError(plain))
}
