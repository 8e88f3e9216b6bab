// Package data implements the PostgreSQL persistence layer.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/retrack-dev/retrack/internal/data/database"
	"github.com/retrack-dev/retrack/internal/data/pgxutil"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// TrackerRepo provides database operations for trackers.
type TrackerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTrackerRepo creates a TrackerRepo backed by the given database.
func NewTrackerRepo(db *sql.DB) *TrackerRepo {
	return &TrackerRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewTrackerRepoWithTimeProvider creates a TrackerRepo with a custom
// TimeProvider (useful for testing).
func NewTrackerRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TrackerRepo {
	return &TrackerRepo{DB: db, timeProvider: tp}
}

const trackerColumns = `id, name, enabled, target, config, tags, actions, job_id, created_at, updated_at`

// trackerRow matches the trackers table schema; JSONB columns stay raw until
// conversion to the domain type.
type trackerRow struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Enabled   bool       `db:"enabled"`
	Target    []byte     `db:"target"`
	Config    []byte     `db:"config"`
	Tags      []byte     `db:"tags"`
	Actions   []byte     `db:"actions"`
	JobID     *uuid.UUID `db:"job_id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r *trackerRow) toTracker() (model.Tracker, error) {
	tracker := model.Tracker{
		ID:        r.ID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		JobID:     r.JobID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Target, &tracker.Target); err != nil {
		return model.Tracker{}, fmt.Errorf("decode tracker target: %w", err)
	}
	if err := json.Unmarshal(r.Config, &tracker.Config); err != nil {
		return model.Tracker{}, fmt.Errorf("decode tracker config: %w", err)
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &tracker.Tags); err != nil {
			return model.Tracker{}, fmt.Errorf("decode tracker tags: %w", err)
		}
	}
	if len(r.Actions) > 0 {
		if err := json.Unmarshal(r.Actions, &tracker.Actions); err != nil {
			return model.Tracker{}, fmt.Errorf("decode tracker actions: %w", err)
		}
	}
	return tracker, nil
}

// trackerArgs encodes the JSONB columns of a tracker for insertion or update.
func trackerArgs(t model.Tracker) (target, config, tags, actions []byte, err error) {
	if target, err = json.Marshal(t.Target); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode tracker target: %w", err)
	}
	if config, err = json.Marshal(t.Config); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode tracker config: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if tags, err = json.Marshal(t.Tags); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode tracker tags: %w", err)
	}
	if t.Actions == nil {
		t.Actions = []model.TrackerAction{}
	}
	if actions, err = json.Marshal(t.Actions); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode tracker actions: %w", err)
	}
	return target, config, tags, actions, nil
}

// Create inserts a tracker. A duplicate name maps to a conflict error.
func (r *TrackerRepo) Create(ctx context.Context, tracker model.Tracker) (model.Tracker, error) {
	target, config, tags, actions, err := trackerArgs(tracker)
	if err != nil {
		return model.Tracker{}, err
	}

	now := r.timeProvider.Now().UTC()
	tracker.CreatedAt = now
	tracker.UpdatedAt = now

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO trackers (id, name, enabled, target, config, tags, actions, job_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tracker.ID, tracker.Name, tracker.Enabled, target, config, tags, actions,
		tracker.JobID, tracker.CreatedAt, tracker.UpdatedAt,
	)
	if err != nil {
		return model.Tracker{}, apperrors.MapDBError(err)
	}
	return tracker, nil
}

// Get returns a tracker by id.
func (r *TrackerRepo) Get(ctx context.Context, id uuid.UUID) (model.Tracker, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByName returns a tracker by its unique name.
func (r *TrackerRepo) GetByName(ctx context.Context, name string) (model.Tracker, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *TrackerRepo) getBy(ctx context.Context, where string, arg any) (model.Tracker, error) {
	var row trackerRow
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+trackerColumns+` FROM trackers WHERE `+where, arg,
	).Scan(
		&row.ID, &row.Name, &row.Enabled, &row.Target, &row.Config,
		&row.Tags, &row.Actions, &row.JobID, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return model.Tracker{}, apperrors.MapDBError(err)
	}
	return row.toTracker()
}

// List returns trackers matching the filter, oldest first.
func (r *TrackerRepo) List(ctx context.Context, params model.ListTrackersParams) ([]model.Tracker, error) {
	opts := []database.ListQueryOption{
		database.WithColumns(
			"id", "name", "enabled", "target", "config",
			"tags", "actions", "job_id", "created_at", "updated_at",
		),
		database.WithOrderBy("created_at", "ASC"),
	}
	if len(params.Tags) > 0 {
		encoded, err := json.Marshal(params.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tag filter: %w", err)
		}
		opts = append(opts, database.WithCondition(
			database.WhereRawCond("tags @> $1::jsonb", string(encoded)),
		))
	}
	if params.Enabled != nil {
		opts = append(opts, database.WithCondition(
			database.WhereCond("enabled", database.Equal, *params.Enabled),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("trackers", opts...))

	var trackers []model.Tracker
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Tracker, error) {
			dbRow, err := pgx.RowToStructByName[trackerRow](row)
			if err != nil {
				return model.Tracker{}, fmt.Errorf("scan tracker row: %w", err)
			}
			return dbRow.toTracker()
		})
		if err != nil {
			return err
		}
		trackers = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return trackers, nil
}

// Update rewrites all mutable columns of a tracker.
func (r *TrackerRepo) Update(ctx context.Context, tracker model.Tracker) (model.Tracker, error) {
	target, config, tags, actions, err := trackerArgs(tracker)
	if err != nil {
		return model.Tracker{}, err
	}

	tracker.UpdatedAt = r.timeProvider.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
		UPDATE trackers
		SET name = $2, enabled = $3, target = $4, config = $5,
		    tags = $6, actions = $7, job_id = $8, updated_at = $9
		WHERE id = $1`,
		tracker.ID, tracker.Name, tracker.Enabled, target, config, tags, actions,
		tracker.JobID, tracker.UpdatedAt,
	)
	if err != nil {
		return model.Tracker{}, apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Tracker{}, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return model.Tracker{}, apperrors.NotFoundf("tracker %s not found", tracker.ID)
	}
	return tracker, nil
}

// SetJobID binds or unbinds the tracker's per-tracker scheduler job.
func (r *TrackerRepo) SetJobID(ctx context.Context, trackerID uuid.UUID, jobID *uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE trackers SET job_id = $2, updated_at = $3 WHERE id = $1`,
		trackerID, jobID, r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("tracker %s not found", trackerID)
	}
	return nil
}

// Delete removes a tracker. Revisions and the per-tracker job row go with it
// through ON DELETE CASCADE.
func (r *TrackerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM trackers WHERE id = $1`, id)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("tracker %s not found", id)
	}
	return nil
}
