package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Outbox is the Postgres-backed Emitter. Notify enqueues a row inside the
// caller's request; the notify-worker drains queued rows and retries
// deliveries independently of the scheduling transaction boundary.
type Outbox struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewOutbox(pool *pgxpool.Pool, log zerolog.Logger) *Outbox {
	return &Outbox{pool: pool, log: log.With().Str("component", "notify_outbox").Logger()}
}

func (o *Outbox) Notify(ctx context.Context, userIDs []uuid.UUID, eventType, message string) error {
	recipients, err := json.Marshal(userIDs)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}

	_, err = o.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_ids, event_type, message, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'queued', 0, now(), now())
	`, uuid.New(), recipients, eventType, message)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// DrainOnce delivers up to batch queued notifications. Rows are claimed with
// SKIP LOCKED so several workers can drain concurrently. A row that fails
// maxTries times is marked failed and left for operators.
func (o *Outbox) DrainOnce(ctx context.Context, sender Sender, batch, maxTries int) (int, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, user_ids, event_type, message, status, attempts, last_error, created_at, sent_at
		FROM notifications
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, batch)
	if err != nil {
		return 0, fmt.Errorf("select queued notifications: %w", err)
	}

	var pending []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, *n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range pending {
		n.Attempts++

		if sendErr := sender.Send(ctx, n); sendErr != nil {
			status := StatusQueued
			if n.Attempts >= maxTries {
				status = StatusFailed
				o.log.Error().Err(sendErr).
					Str("notification_id", n.ID.String()).
					Int("attempts", n.Attempts).
					Msg("notification gave up")
			}
			_, err = tx.Exec(ctx, `
				UPDATE notifications
				SET status = $2, attempts = $3, last_error = $4, updated_at = now()
				WHERE id = $1
			`, n.ID, status, n.Attempts, sendErr.Error())
			if err != nil {
				return delivered, fmt.Errorf("record delivery failure: %w", err)
			}
			continue
		}

		_, err = tx.Exec(ctx, `
			UPDATE notifications
			SET status = 'sent', attempts = $2, last_error = NULL, sent_at = now(), updated_at = now()
			WHERE id = $1
		`, n.ID, n.Attempts)
		if err != nil {
			return delivered, fmt.Errorf("mark notification sent: %w", err)
		}
		delivered++
	}

	if err := tx.Commit(ctx); err != nil {
		return delivered, fmt.Errorf("commit outbox tx: %w", err)
	}
	return delivered, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var recipients []byte

	err := row.Scan(
		&n.ID,
		&recipients,
		&n.EventType,
		&n.Message,
		&n.Status,
		&n.Attempts,
		&n.LastError,
		&n.CreatedAt,
		&n.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("notification not found")
		}
		return nil, err
	}

	if len(recipients) > 0 {
		if err := json.Unmarshal(recipients, &n.UserIDs); err != nil {
			return nil, fmt.Errorf("decode recipients for %s: %w", n.ID, err)
		}
	}
	return &n, nil
}
