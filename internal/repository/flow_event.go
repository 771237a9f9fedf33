package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/audit"
)

// FlowEventRepository stores audit events in the flow_events table.
type FlowEventRepository struct {
	pool PgxPool
}

func NewFlowEventRepository(pool PgxPool) *FlowEventRepository {
	return &FlowEventRepository{pool: pool}
}

const insertFlowEvent = `
	INSERT INTO flow_events (
		id, event_type, flow, user_id, distance, provider,
		success, error, metadata, ip_address, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// InsertBatch writes all events in one transaction.
func (r *FlowEventRepository) InsertBatch(ctx context.Context, events []audit.Event) (err error) {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin flow events tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, e := range events {
		_, err = tx.Exec(ctx, insertFlowEvent,
			e.ID,
			string(e.EventType),
			e.Flow,
			nullable(e.UserID),
			e.Distance,
			e.Provider,
			e.Success,
			nullable(e.Error),
			e.Metadata,
			nullable(e.IPAddress),
			e.Duration.Milliseconds(),
			e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert flow event %s: %w", e.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit flow events: %w", err)
	}
	return nil
}

// EventCount is the number of events of one type.
type EventCount struct {
	EventType audit.EventType
	Count     int
}

// CountSince counts events per type created at or after since.
func (r *FlowEventRepository) CountSince(ctx context.Context, since time.Time) ([]EventCount, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM flow_events
		WHERE created_at >= $1
		GROUP BY event_type
		ORDER BY event_type
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count flow events: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EventCount, error) {
		var c EventCount
		var eventType string
		if err := row.Scan(&eventType, &c.Count); err != nil {
			return c, err
		}
		c.EventType = audit.EventType(eventType)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan flow event counts: %w", err)
	}

	return counts, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ audit.Writer = (*FlowEventRepository)(nil)
