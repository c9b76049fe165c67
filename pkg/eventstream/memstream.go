package eventstream

import (
	"context"
	"sort"
	"sync"

	"github.com/meridian/orchestrator/pkg/types"
)

// MemStream is an in-memory Stream used by unit tests and the
// conformance suite shared with SQLStream.
type MemStream struct {
	mu     sync.Mutex
	events []types.Event
	acked  map[string]map[string]bool // consumerID -> eventID -> true
}

// NewMemStream creates an empty in-memory Stream.
func NewMemStream() *MemStream {
	return &MemStream{acked: make(map[string]map[string]bool)}
}

func (m *MemStream) Send(ctx context.Context, event *types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *MemStream) Receive(ctx context.Context, consumerID string, maxN int) ([]*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acked := m.acked[consumerID]
	var pending []types.Event
	for _, e := range m.events {
		if acked[e.ID] {
			continue
		}
		pending = append(pending, e)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Timestamp.Equal(pending[j].Timestamp) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})
	if maxN > 0 && len(pending) > maxN {
		pending = pending[:maxN]
	}
	out := make([]*types.Event, len(pending))
	for i := range pending {
		e := pending[i]
		out[i] = &e
	}
	return out, nil
}

func (m *MemStream) Delete(ctx context.Context, consumerID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acked[consumerID] == nil {
		m.acked[consumerID] = make(map[string]bool)
	}
	m.acked[consumerID][eventID] = true
	return nil
}
