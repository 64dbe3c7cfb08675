package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore writes events to the domain_events table.
type PGStore struct {
	DB DBTX
}

const insertDomainEvent = `
INSERT INTO domain_events (id, tenant_id, topic, aggregate_id, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, tenant_id, topic, aggregate_id, payload, occurred_at`

// InsertDomainEvent implements EventStore.
func (s PGStore) InsertDomainEvent(ctx context.Context, arg InsertParams) (Event, error) {
	var ev Event
	var payload []byte
	err := s.DB.QueryRow(ctx, insertDomainEvent, arg.ID, arg.TenantID, arg.Topic, arg.AggregateID, arg.Payload).
		Scan(&ev.ID, &ev.TenantID, &ev.Topic, &ev.AggregateID, &payload, &ev.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	ev.Payload = payload
	return ev, nil
}

const listByAggregate = `
SELECT id, tenant_id, topic, aggregate_id, payload, occurred_at
FROM domain_events
WHERE tenant_id = $1 AND aggregate_id = $2
ORDER BY occurred_at, id`

// ListByAggregate returns the history of one aggregate, oldest first.
func (s PGStore) ListByAggregate(ctx context.Context, tenantID string, aggregateID uuid.UUID) ([]Event, error) {
	rows, err := s.DB.Query(ctx, listByAggregate, tenantID, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("list domain events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ev Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.Topic, &ev.AggregateID, &payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		ev.Payload = payload
		out = append(out, ev)
	}
	return out, rows.Err()
}
