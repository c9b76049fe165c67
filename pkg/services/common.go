package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/types"
)

// mutation captures the before/after state of one entity write so emit
// can derive the right EventType: nil previous means Created, nil
// current means Deleted, both present means Updated.
type mutation struct {
	modelType types.ModelType
	previous  interface{}
	current   interface{}
}

func serialize(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", errs.Wrap(errs.Internal, "serialize model", err)
	}
	return string(b), nil
}

// emit appends the Event for m and returns its operation_id. Callers
// invoke it from inside the same store.WithinTransaction call that
// writes the entity, so the write and the event become visible
// together or not at all.
func emit(ctx context.Context, stream eventstream.Stream, m mutation) (string, error) {
	prevJSON, err := serialize(m.previous)
	if err != nil {
		return "", err
	}
	curJSON, err := serialize(m.current)
	if err != nil {
		return "", err
	}

	eventType := types.EventUpdated
	switch {
	case m.previous == nil:
		eventType = types.EventCreated
	case m.current == nil:
		eventType = types.EventDeleted
	}

	operationID := uuid.NewString()
	event := &types.Event{
		ID:                      uuid.NewString(),
		Timestamp:               time.Now().UTC(),
		OperationID:             operationID,
		EventType:               eventType,
		ModelType:               m.modelType,
		SerializedPreviousModel: prevJSON,
		SerializedCurrentModel:  curJSON,
	}
	if err := stream.Send(ctx, event); err != nil {
		return "", err
	}
	return operationID, nil
}

// ignoreNotFound turns a NotFound error into (nil, nil), used when a
// service looks up the previous state of an entity that may not exist
// yet (the Upsert-as-Create path).
func ignoreNotFound(err error) error {
	if errs.KindOf(err) == errs.NotFound {
		return nil
	}
	return err
}
