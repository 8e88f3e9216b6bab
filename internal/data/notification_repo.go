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

// NotificationRepo provides database operations for the notification audit
// trail.
type NotificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNotificationRepo creates a NotificationRepo backed by the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Record inserts a notification audit row.
func (r *NotificationRepo) Record(ctx context.Context, notification model.Notification) (model.Notification, error) {
	destination, err := json.Marshal(notification.Destination)
	if err != nil {
		return model.Notification{}, fmt.Errorf("encode notification destination: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, destination, content, scheduled_at)
		VALUES ($1, $2, $3, $4)`,
		notification.ID, destination, []byte(notification.Content), notification.ScheduledAt.UTC(),
	); err != nil {
		return model.Notification{}, apperrors.MapDBError(err)
	}
	return notification, nil
}

// List returns the newest notifications up to limit.
func (r *NotificationRepo) List(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("notifications",
		database.WithColumns("id", "destination", "content", "scheduled_at"),
		database.WithOrderBy("scheduled_at", "DESC"),
		database.WithLimit(limit),
	))

	var notifications []model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Notification, error) {
			dbRow, err := pgx.RowToStructByName[notificationRow](row)
			if err != nil {
				return model.Notification{}, fmt.Errorf("scan notification row: %w", err)
			}
			return dbRow.toNotification()
		})
		if err != nil {
			return err
		}
		notifications = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return notifications, nil
}

// DeleteOlderThan prunes audit rows past the retention horizon.
func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM notifications WHERE scheduled_at < $1`, cutoff.UTC(),
	)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return affected, nil
}

type notificationRow struct {
	ID          uuid.UUID `db:"id"`
	Destination []byte    `db:"destination"`
	Content     []byte    `db:"content"`
	ScheduledAt time.Time `db:"scheduled_at"`
}

func (r *notificationRow) toNotification() (model.Notification, error) {
	notification := model.Notification{
		ID:          r.ID,
		Content:     json.RawMessage(r.Content),
		ScheduledAt: r.ScheduledAt,
	}
	if err := json.Unmarshal(r.Destination, &notification.Destination); err != nil {
		return model.Notification{}, fmt.Errorf("decode notification destination: %w", err)
	}
	return notification, nil
}
