package eventstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/types"
)

func runConformanceSuite(t *testing.T, newStream func(t *testing.T) Stream) {
	t.Run("fresh consumer sees the full historical log", func(t *testing.T) {
		s := newStream(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Send(ctx, &types.Event{
				ID: idOf(i), Timestamp: base.Add(time.Duration(i) * time.Second),
				OperationID: "op-1", EventType: types.EventCreated, ModelType: types.ModelHost,
				SerializedCurrentModel: "{}",
			}))
		}

		events, err := s.Receive(ctx, "consumer-a", 10)
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.Equal(t, "event-0", events[0].ID)
		require.Equal(t, "event-2", events[2].ID)
	})

	t.Run("receive respects maxN and ascending order", func(t *testing.T) {
		s := newStream(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Send(ctx, &types.Event{
				ID: idOf(i), Timestamp: base.Add(time.Duration(4-i) * time.Second),
				OperationID: "op-1", EventType: types.EventCreated, ModelType: types.ModelHost,
			}))
		}

		events, err := s.Receive(ctx, "consumer-a", 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.True(t, events[0].Timestamp.Before(events[1].Timestamp) || events[0].Timestamp.Equal(events[1].Timestamp))
		require.Equal(t, "event-4", events[0].ID) // earliest timestamp sent last
	})

	t.Run("delete acknowledges for that consumer only", func(t *testing.T) {
		s := newStream(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.Send(ctx, &types.Event{
			ID: "e1", Timestamp: base, OperationID: "op-1",
			EventType: types.EventCreated, ModelType: types.ModelHost,
		}))

		require.NoError(t, s.Delete(ctx, "consumer-a", "e1"))

		fromA, err := s.Receive(ctx, "consumer-a", 10)
		require.NoError(t, err)
		require.Empty(t, fromA)

		fromB, err := s.Receive(ctx, "consumer-b", 10)
		require.NoError(t, err)
		require.Len(t, fromB, 1)
	})

	t.Run("unacknowledged events are redelivered", func(t *testing.T) {
		s := newStream(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.Send(ctx, &types.Event{
			ID: "e1", Timestamp: base, OperationID: "op-1",
			EventType: types.EventCreated, ModelType: types.ModelHost,
		}))

		first, err := s.Receive(ctx, "consumer-a", 10)
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := s.Receive(ctx, "consumer-a", 10)
		require.NoError(t, err)
		require.Len(t, second, 1, "events are redelivered until acknowledged")
	})
}

func idOf(i int) string {
	return "event-" + string(rune('0'+i))
}
