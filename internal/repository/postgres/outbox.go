package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/repository"
	"github.com/psybot/psybot-api/pkg/metrics"
)

type outboxRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewOutboxRepository(db *sqlx.DB, m *metrics.Metrics) repository.OutboxRepository {
	return &outboxRepository{db: db, metrics: m}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) (err error) {
	defer func(start time.Time) { observe(r.metrics, "create_outbox_event", start, err) }(time.Now())

	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	event.Status = string(model.OutboxStatusPending)

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) (events []*model.OutboxEvent, err error) {
	defer func(start time.Time) { observe(r.metrics, "get_pending_events", start, err) }(time.Now())

	query := `
		SELECT id, event_type, payload, status, error_message, created_at, updated_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	err = r.db.SelectContext(ctx, &events, query, string(model.OutboxStatusPending), limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return events, err
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) (err error) {
	defer func(start time.Time) { observe(r.metrics, "update_outbox_status", start, err) }(time.Now())

	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err = r.db.ExecContext(ctx, query, string(status), errorMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	return nil
}
