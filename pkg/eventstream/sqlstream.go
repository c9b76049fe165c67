package eventstream

import (
	"context"
	"database/sql"
	"time"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/sqltx"
	"github.com/meridian/orchestrator/pkg/types"
)

// SQLStream is the relational-backed Stream, storing events in the
// event_queue table created by storage's embedded schema and
// acknowledgements in event_acks. It shares its *sql.DB with a
// storage.SQLStore so Send can run inside the same
// storage.Store.WithinTransaction call as the entity write it
// accompanies.
type SQLStream struct {
	db *sql.DB
}

// NewSQLStream wraps db, normally obtained via (*storage.SQLStore).DB().
func NewSQLStream(db *sql.DB) *SQLStream {
	return &SQLStream{db: db}
}

// sortableTimestamp is RFC 3339 with a fixed nine-digit fraction, so the
// TEXT column sorts in time order; time.RFC3339Nano still parses it.
const sortableTimestamp = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLStream) exec(ctx context.Context) sqltx.Executor {
	return sqltx.Pick(ctx, s.db)
}

func (s *SQLStream) Send(ctx context.Context, event *types.Event) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO event_queue
			(id, timestamp, operation_id, event_type, model_type, serialized_previous_model, serialized_current_model)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(sortableTimestamp), event.OperationID,
		string(event.EventType), string(event.ModelType),
		nullableString(event.SerializedPreviousModel), nullableString(event.SerializedCurrentModel))
	if err != nil {
		return errs.Wrap(errs.Internal, "append event", err)
	}
	return nil
}

func (s *SQLStream) Receive(ctx context.Context, consumerID string, maxN int) ([]*types.Event, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT e.id, e.timestamp, e.operation_id, e.event_type, e.model_type,
		       e.serialized_previous_model, e.serialized_current_model
		FROM event_queue e
		WHERE NOT EXISTS (
			SELECT 1 FROM event_acks a WHERE a.consumer_id = ? AND a.event_id = e.id
		)
		ORDER BY e.timestamp ASC, e.id ASC
		LIMIT ?`, consumerID, maxN)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "receive events", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		var e types.Event
		var ts string
		var prev, cur sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.OperationID, &e.EventType, &e.ModelType, &prev, &cur); err != nil {
			return nil, errs.Wrap(errs.Internal, "scan event", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "parse event timestamp", err)
		}
		e.Timestamp = parsed
		e.SerializedPreviousModel = prev.String
		e.SerializedCurrentModel = cur.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *SQLStream) Delete(ctx context.Context, consumerID, eventID string) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO event_acks (consumer_id, event_id) VALUES (?, ?)
		 ON CONFLICT(consumer_id, event_id) DO NOTHING`, consumerID, eventID)
	if err != nil {
		return errs.Wrap(errs.Internal, "acknowledge event", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
