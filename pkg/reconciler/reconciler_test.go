package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

type harness struct {
	store   storage.Store
	stream  eventstream.Stream
	hosts   *services.HostService
	targets *services.TargetService
	deploy  *services.DeploymentService
	assign  *services.AssignmentService
	rec     *Reconciler
}

func newHarness() *harness {
	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	deploy := services.NewDeploymentService(store, stream)
	assign := services.NewAssignmentService(store, stream)
	h := &harness{
		store:   store,
		stream:  stream,
		hosts:   services.NewHostService(store, stream, assign),
		targets: services.NewTargetService(store, stream),
		deploy:  deploy,
		assign:  assign,
	}
	h.rec = New(store, stream, deploy, assign)
	return h
}

// drain runs processEvent over every event currently queued for the
// reconciler's consumer, synchronously, without the poll loop.
func (h *harness) drain(t *testing.T, ctx context.Context) {
	t.Helper()
	for {
		batch, err := h.stream.Receive(ctx, consumerID, batchSize)
		require.NoError(t, err)
		relevant := filterRelevant(batch)
		if len(relevant) == 0 {
			return
		}
		for _, e := range relevant {
			h.rec.processEvent(ctx, e)
		}
	}
}

func TestReconciler_AssignsEligibleHostsOnDeploymentCreate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.store.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
	require.NoError(t, h.store.UpsertTemplate(ctx, &types.Template{ID: "tpl-1", Repository: "https://example.com/repo.git", GitRef: "main"}))
	require.NoError(t, h.store.UpsertWorkload(ctx, &types.Workload{ID: "w1", Name: "api", TeamID: "team-1", TemplateID: "tpl-1"}))

	_, err := h.targets.Upsert(ctx, &types.Target{ID: "t1", Labels: []string{"zone:us"}})
	require.NoError(t, err)
	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-1", Labels: []string{"zone:us", "rack:a"}})
	require.NoError(t, err)
	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-2", Labels: []string{"zone:us", "rack:b"}})
	require.NoError(t, err)
	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-3", Labels: []string{"zone:eu"}})
	require.NoError(t, err)

	_, err = h.deploy.Upsert(ctx, &types.Deployment{ID: "d1", Name: "api", WorkloadID: "w1", TargetID: "t1", HostCount: types.HostCountAll})
	require.NoError(t, err)

	h.drain(t, ctx)

	assignments, err := h.assign.ListByDeployment(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	got := map[string]bool{}
	for _, a := range assignments {
		got[a.HostID] = true
	}
	require.True(t, got["host-1"])
	require.True(t, got["host-2"])
	require.False(t, got["host-3"])
}

func TestReconciler_NewHostTriggersRecomputeAcrossDeployments(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.store.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
	require.NoError(t, h.store.UpsertTemplate(ctx, &types.Template{ID: "tpl-1", Repository: "https://example.com/repo.git", GitRef: "main"}))
	require.NoError(t, h.store.UpsertWorkload(ctx, &types.Workload{ID: "w1", Name: "api", TeamID: "team-1", TemplateID: "tpl-1"}))
	_, err := h.targets.Upsert(ctx, &types.Target{ID: "t1", Labels: []string{"zone:us"}})
	require.NoError(t, err)
	_, err = h.deploy.Upsert(ctx, &types.Deployment{ID: "d1", Name: "api", WorkloadID: "w1", TargetID: "t1", HostCount: 1})
	require.NoError(t, err)

	h.drain(t, ctx)
	assignments, err := h.assign.ListByDeployment(ctx, "d1")
	require.NoError(t, err)
	require.Empty(t, assignments)

	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-1", Labels: []string{"zone:us"}})
	require.NoError(t, err)

	h.drain(t, ctx)
	assignments, err = h.assign.ListByDeployment(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "host-1", assignments[0].HostID)
}

func TestReconciler_ShrinkingHostCountRemovesAssignments(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.store.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
	require.NoError(t, h.store.UpsertTemplate(ctx, &types.Template{ID: "tpl-1", Repository: "https://example.com/repo.git", GitRef: "main"}))
	require.NoError(t, h.store.UpsertWorkload(ctx, &types.Workload{ID: "w1", Name: "api", TeamID: "team-1", TemplateID: "tpl-1"}))
	_, err := h.targets.Upsert(ctx, &types.Target{ID: "t1", Labels: []string{"zone:us"}})
	require.NoError(t, err)
	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-1", Labels: []string{"zone:us"}})
	require.NoError(t, err)
	_, err = h.hosts.Upsert(ctx, &types.Host{ID: "host-2", Labels: []string{"zone:us"}})
	require.NoError(t, err)

	_, err = h.deploy.Upsert(ctx, &types.Deployment{ID: "d1", Name: "api", WorkloadID: "w1", TargetID: "t1", HostCount: types.HostCountAll})
	require.NoError(t, err)
	h.drain(t, ctx)

	assignments, err := h.assign.ListByDeployment(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	_, err = h.deploy.Upsert(ctx, &types.Deployment{ID: "d1", Name: "api", WorkloadID: "w1", TargetID: "t1", HostCount: 1})
	require.NoError(t, err)
	h.drain(t, ctx)

	assignments, err = h.assign.ListByDeployment(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
}

func TestReconciler_DeploymentEventSkipsTerminalAfterBoundedRetries(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	event := &types.Event{
		ID:                     "bad-event",
		Timestamp:              time.Now().UTC(),
		OperationID:            "op-1",
		EventType:              types.EventUpdated,
		ModelType:              types.ModelDeployment,
		SerializedCurrentModel: `{"ID":"does-not-exist"}`,
	}
	require.NoError(t, h.stream.Send(ctx, event))

	for i := 0; i < maxSkipRetries+1; i++ {
		batch, err := h.stream.Receive(ctx, consumerID, batchSize)
		require.NoError(t, err)
		for _, e := range batch {
			h.rec.processEvent(ctx, e)
		}
		// force the next attempt to be due immediately for the test
		h.rec.retryMu.Lock()
		if st, ok := h.rec.retries[event.ID]; ok {
			st.nextAttempt = time.Time{}
		}
		h.rec.retryMu.Unlock()
	}

	batch, err := h.stream.Receive(ctx, consumerID, batchSize)
	require.NoError(t, err)
	require.Empty(t, batch, "event should have been acknowledged after exhausting retries")
}
