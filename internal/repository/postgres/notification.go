package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: base}
}

// Create inserts the notification and its recipient rows in one transaction.
// A notification with no recipients is valid.
func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	notification.ID = uuid.New()
	notification.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO notifications (id, type, message, reason, initiative_id, is_broadcast, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query,
			notification.ID,
			notification.Type,
			notification.Message,
			notification.Reason,
			notification.InitiativeID,
			notification.IsBroadcast,
			notification.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		recipientQuery := `
			INSERT INTO notification_recipients (notification_id, user_id, is_read)
			VALUES ($1, $2, FALSE)
		`
		for _, userID := range notification.Recipients {
			if _, err := tx.ExecContext(ctx, recipientQuery, notification.ID, userID); err != nil {
				return fmt.Errorf("failed to add notification recipient: %w", err)
			}
		}
		return nil
	})
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.UserNotification, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	query := `
		SELECT n.id, n.type, n.message, n.reason, n.initiative_id,
			   n.is_broadcast, n.created_at, r.is_read
		FROM notifications n
		JOIN notification_recipients r ON r.notification_id = n.id
		WHERE r.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3
	`
	var notifications []*model.UserNotification
	err := r.db.SelectContext(ctx, &notifications, query, userID, p.PageSize, (p.Page-1)*p.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		UPDATE notification_recipients
		SET is_read = TRUE
		WHERE notification_id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
