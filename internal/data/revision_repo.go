package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retrack-dev/retrack/internal/data/pgxutil"
	"github.com/retrack-dev/retrack/internal/domain/model"
	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// RevisionRepo provides database operations for tracker revisions.
type RevisionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRevisionRepo creates a RevisionRepo backed by the given database.
func NewRevisionRepo(db *sql.DB) *RevisionRepo {
	return &RevisionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRevisionRepoWithTimeProvider creates a RevisionRepo with a custom
// TimeProvider (useful for testing).
func NewRevisionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RevisionRepo {
	return &RevisionRepo{DB: db, timeProvider: tp}
}

// AppendIfChanged inserts a new revision unless its data is canonically equal
// to the latest one, then trims history to maxRevisions newest entries. The
// whole operation runs in one transaction with the tracker row locked, so
// concurrent appends for the same tracker serialize.
//
// The returned bool reports whether a new revision was written; when false,
// the latest existing revision is returned instead.
func (r *RevisionRepo) AppendIfChanged(
	ctx context.Context,
	trackerID uuid.UUID,
	data model.TrackerDataValue,
	maxRevisions int,
) (model.TrackerRevision, bool, error) {
	if maxRevisions < 1 {
		return model.TrackerRevision{}, false, apperrors.Validation("revision limit must be positive")
	}

	var (
		revision model.TrackerRevision
		inserted bool
	)

	err := pgxutil.WithSQLTx(ctx, r.DB, func(tx *sql.Tx) error {
		var lockedID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM trackers WHERE id = $1 FOR UPDATE`, trackerID,
		).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFoundf("tracker %s not found", trackerID)
			}
			return fmt.Errorf("lock tracker row: %w", err)
		}

		latest, err := latestRevisionTx(ctx, tx, trackerID)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode revision data: %w", err)
		}

		if latest != nil {
			previous, err := json.Marshal(latest.Data)
			if err != nil {
				return fmt.Errorf("encode latest revision data: %w", err)
			}
			equal, err := model.JSONEqual(previous, encoded)
			if err != nil {
				return fmt.Errorf("compare revision data: %w", err)
			}
			if equal {
				revision = *latest
				return nil
			}
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate revision id: %w", err)
		}
		revision = model.TrackerRevision{
			ID:        id,
			TrackerID: trackerID,
			Data:      data,
			CreatedAt: r.timeProvider.Now().UTC(),
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracker_revisions (id, tracker_id, data, created_at)
			VALUES ($1, $2, $3, $4)`,
			revision.ID, revision.TrackerID, encoded, revision.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}
		inserted = true

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM tracker_revisions
			WHERE tracker_id = $1 AND id NOT IN (
				SELECT id FROM tracker_revisions
				WHERE tracker_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			)`, trackerID, maxRevisions,
		); err != nil {
			return fmt.Errorf("trim revisions: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.TrackerRevision{}, false, apperrors.MapDBError(err)
	}
	return revision, inserted, nil
}

// Latest returns the newest revision of a tracker.
func (r *RevisionRepo) Latest(ctx context.Context, trackerID uuid.UUID) (model.TrackerRevision, error) {
	var row revisionRow
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, tracker_id, data, created_at
		FROM tracker_revisions
		WHERE tracker_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, trackerID,
	).Scan(&row.ID, &row.TrackerID, &row.Data, &row.CreatedAt)
	if err != nil {
		return model.TrackerRevision{}, apperrors.MapDBError(err)
	}
	return row.toRevision()
}

// List returns a tracker's revisions, oldest first.
func (r *RevisionRepo) List(ctx context.Context, trackerID uuid.UUID) ([]model.TrackerRevision, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, tracker_id, data, created_at
		FROM tracker_revisions
		WHERE tracker_id = $1
		ORDER BY created_at ASC, id ASC`, trackerID,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var revisions []model.TrackerRevision
	for rows.Next() {
		var row revisionRow
		if err := rows.Scan(&row.ID, &row.TrackerID, &row.Data, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision row: %w", err)
		}
		revision, err := row.toRevision()
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, revision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revisions, nil
}

// Get returns one revision of a tracker.
func (r *RevisionRepo) Get(ctx context.Context, trackerID, revisionID uuid.UUID) (model.TrackerRevision, error) {
	var row revisionRow
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, tracker_id, data, created_at
		FROM tracker_revisions
		WHERE tracker_id = $1 AND id = $2`, trackerID, revisionID,
	).Scan(&row.ID, &row.TrackerID, &row.Data, &row.CreatedAt)
	if err != nil {
		return model.TrackerRevision{}, apperrors.MapDBError(err)
	}
	return row.toRevision()
}

// Delete removes one revision of a tracker.
func (r *RevisionRepo) Delete(ctx context.Context, trackerID, revisionID uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM tracker_revisions WHERE tracker_id = $1 AND id = $2`,
		trackerID, revisionID,
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("revision %s not found for tracker %s", revisionID, trackerID)
	}
	return nil
}

// Clear removes all revisions of a tracker.
func (r *RevisionRepo) Clear(ctx context.Context, trackerID uuid.UUID) error {
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM tracker_revisions WHERE tracker_id = $1`, trackerID,
	); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

type revisionRow struct {
	ID        uuid.UUID `db:"id"`
	TrackerID uuid.UUID `db:"tracker_id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *revisionRow) toRevision() (model.TrackerRevision, error) {
	revision := model.TrackerRevision{
		ID:        r.ID,
		TrackerID: r.TrackerID,
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal(r.Data, &revision.Data); err != nil {
		return model.TrackerRevision{}, fmt.Errorf("decode revision data: %w", err)
	}
	return revision, nil
}

func latestRevisionTx(ctx context.Context, tx *sql.Tx, trackerID uuid.UUID) (*model.TrackerRevision, error) {
	var row revisionRow
	err := tx.QueryRowContext(ctx, `
		SELECT id, tracker_id, data, created_at
		FROM tracker_revisions
		WHERE tracker_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, trackerID,
	).Scan(&row.ID, &row.TrackerID, &row.Data, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("tracker %s has no revisions", trackerID)
		}
		return nil, fmt.Errorf("query latest revision: %w", err)
	}
	revision, err := row.toRevision()
	if err != nil {
		return nil, err
	}
	return &revision, nil
}
