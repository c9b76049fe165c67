package reconciler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/log"
	"github.com/meridian/orchestrator/pkg/metrics"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

const (
	consumerID = "reconciler"
	batchSize  = 50

	minPollBackoff = 100 * time.Millisecond
	maxPollBackoff = 5 * time.Second

	maxRetryBackoff = 30 * time.Second
	maxSkipRetries  = 5

	// persistenceGracePeriod bounds how long a retryable (Unavailable or
	// Internal) failure is allowed to block an event before the process
	// gives up rather than spin forever against a dead store.
	persistenceGracePeriod = 5 * time.Minute
)

// retryState tracks one event's failure history across polls so
// processEvent can back off and, eventually, give up on it.
type retryState struct {
	attempts     int
	firstFailure time.Time
	nextAttempt  time.Time
}

// Reconciler derives Assignments from Targets x Hosts x Deployments. It
// consumes the event stream under its own consumer_id, computing the
// desired host set for each affected Deployment and diffing it against
// the Assignments currently on file.
type Reconciler struct {
	store       storage.Store
	stream      eventstream.Stream
	deployments *services.DeploymentService
	assignments *services.AssignmentService
	logger      zerolog.Logger

	retryMu sync.Mutex
	retries map[string]*retryState

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(store storage.Store, stream eventstream.Stream, deployments *services.DeploymentService, assignments *services.AssignmentService) *Reconciler {
	return &Reconciler{
		store:       store,
		stream:      stream,
		deployments: deployments,
		assignments: assignments,
		logger:      log.WithConsumerID(consumerID),
		retries:     make(map[string]*retryState),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the poll loop in its own goroutine.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop signals the poll loop to exit and waits for it to drain, up to
// ctx's deadline.
func (r *Reconciler) Stop(ctx context.Context) error {
	close(r.stopCh)
	select {
	case <-r.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reconciler) run() {
	defer close(r.doneCh)
	r.logger.Info().Msg("reconciler started")

	backoff := minPollBackoff
	for {
		select {
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		default:
		}

		ctx := context.Background()
		timer := metrics.NewTimer()
		batch, err := r.stream.Receive(ctx, consumerID, batchSize)
		timer.ObserveDurationVec(metrics.StreamPollDuration, consumerID)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to poll event stream")
			if !r.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		metrics.StreamQueueDepth.WithLabelValues(consumerID).Set(float64(len(batch)))

		relevant := filterRelevant(batch)
		// Events of other model types need no work here; acknowledge
		// them so they cannot fill every later batch.
		if len(relevant) < len(batch) {
			keep := make(map[string]bool, len(relevant))
			for _, e := range relevant {
				keep[e.ID] = true
			}
			for _, e := range batch {
				if !keep[e.ID] {
					if err := r.stream.Delete(ctx, consumerID, e.ID); err != nil {
						r.logger.Error().Err(err).Str("event_id", e.ID).Msg("failed to acknowledge event")
					}
				}
			}
		}
		if len(relevant) == 0 {
			if !r.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minPollBackoff

		cycleTimer := metrics.NewTimer()
		for _, event := range relevant {
			r.processEvent(ctx, event)
		}
		cycleTimer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}
}

// sleep waits for d or until stopCh closes, reporting whether the loop
// should keep running.
func (r *Reconciler) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-r.stopCh:
		return false
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxPollBackoff {
		return maxPollBackoff
	}
	return next
}

func filterRelevant(events []*types.Event) []*types.Event {
	var out []*types.Event
	for _, e := range events {
		switch e.ModelType {
		case types.ModelHost, types.ModelTarget, types.ModelDeployment:
			out = append(out, e)
		}
	}
	return out
}

// processEvent handles one event's retry bookkeeping around handle: on
// success it acknowledges the event and clears any retry state, on a
// retryable failure it leaves the event unacknowledged for redelivery,
// and on a terminal failure it retries a bounded number of times before
// acknowledging anyway so a permanently invalid event cannot block the
// queue forever.
func (r *Reconciler) processEvent(ctx context.Context, event *types.Event) {
	if state := r.retryStateFor(event.ID); state != nil && time.Now().Before(state.nextAttempt) {
		return
	}

	err := r.handle(ctx, event)
	if err == nil {
		r.clearRetry(event.ID)
		if ackErr := r.stream.Delete(ctx, consumerID, event.ID); ackErr != nil {
			r.logger.Error().Err(ackErr).Str("event_id", event.ID).Msg("failed to acknowledge event")
		}
		return
	}

	attempts, firstFailure := r.bumpRetry(event.ID)
	logEvt := r.logger.Error().Err(err).Str("event_id", event.ID).Str("model_type", string(event.ModelType)).Int("attempt", attempts)

	if errs.Retryable(err) {
		if time.Since(firstFailure) > persistenceGracePeriod {
			r.logger.Fatal().Err(err).Str("event_id", event.ID).Msg("persistence unreachable beyond grace period, exiting")
		}
		logEvt.Msg("reconciliation failed, will retry")
		r.scheduleRetry(event.ID, attempts)
		return
	}

	if attempts < maxSkipRetries {
		logEvt.Msg("reconciliation failed, will retry before skipping")
		r.scheduleRetry(event.ID, attempts)
		return
	}

	logEvt.Str("kind", string(errs.KindOf(err))).Msg("reconciliation failed terminally, acknowledging to unblock the queue")
	r.clearRetry(event.ID)
	if ackErr := r.stream.Delete(ctx, consumerID, event.ID); ackErr != nil {
		r.logger.Error().Err(ackErr).Str("event_id", event.ID).Msg("failed to acknowledge event")
	}
}

// handle maps one event to the Deployments it affects and reconciles
// each of them. Deployment-deleted events need no recomputation: the
// storage layer already cascades the deletion of its Assignments.
func (r *Reconciler) handle(ctx context.Context, event *types.Event) error {
	affected, err := r.affectedDeployments(ctx, event)
	if err != nil {
		return err
	}
	for _, d := range affected {
		if err := r.reconcileDeployment(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) affectedDeployments(ctx context.Context, event *types.Event) ([]*types.Deployment, error) {
	switch event.ModelType {
	case types.ModelHost:
		return r.store.ListDeployments(ctx)

	case types.ModelTarget:
		if event.EventType != types.EventUpdated {
			return nil, nil
		}
		var target types.Target
		if err := unmarshalModel(event.SerializedCurrentModel, &target); err != nil {
			return nil, err
		}
		return r.store.ListDeploymentsByTarget(ctx, target.ID)

	case types.ModelDeployment:
		if event.EventType == types.EventDeleted {
			return nil, nil
		}
		var d types.Deployment
		if err := unmarshalModel(event.SerializedCurrentModel, &d); err != nil {
			return nil, err
		}
		current, err := r.store.GetDeployment(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		return []*types.Deployment{current}, nil

	default:
		return nil, nil
	}
}

func unmarshalModel(serialized string, out interface{}) error {
	if serialized == "" {
		return errs.New(errs.InvalidArgument, "event carries no current model to decode")
	}
	if err := json.Unmarshal([]byte(serialized), out); err != nil {
		return errs.Wrap(errs.InvalidArgument, "malformed event payload", err)
	}
	return nil
}

// reconcileDeployment recomputes the desired host set for d and applies
// the diff through AssignmentService, so each change is itself written
// and emitted as an Assignment event for the GitOps writer to consume.
func (r *Reconciler) reconcileDeployment(ctx context.Context, d *types.Deployment) error {
	target, err := r.store.GetTarget(ctx, d.TargetID)
	if err != nil {
		return err
	}
	eligibleHosts, err := r.store.ListHostsMatchingLabels(ctx, target.Labels)
	if err != nil {
		return err
	}
	eligible := make([]string, len(eligibleHosts))
	for i, h := range eligibleHosts {
		eligible[i] = h.ID
	}

	currentAssignments, err := r.store.ListAssignmentsByDeployment(ctx, d.ID)
	if err != nil {
		return err
	}
	current := make([]string, len(currentAssignments))
	byHost := make(map[string]*types.Assignment, len(currentAssignments))
	for i, a := range currentAssignments {
		current[i] = a.HostID
		byHost[a.HostID] = a
	}

	desired := desiredHostSet(eligible, current, d.HostCount, types.HostCountAll)
	desiredSet := make(map[string]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}

	for _, hostID := range desired {
		if _, ok := byHost[hostID]; ok {
			continue
		}
		if _, err := r.assignments.Create(ctx, d.ID, hostID); err != nil {
			return err
		}
		metrics.AssignmentChangesTotal.WithLabelValues(string(types.EventCreated)).Inc()
	}

	for hostID, a := range byHost {
		if desiredSet[hostID] {
			continue
		}
		if _, err := r.assignments.Delete(ctx, a.ID); err != nil {
			return err
		}
		metrics.AssignmentChangesTotal.WithLabelValues(string(types.EventDeleted)).Inc()
	}

	return nil
}

func (r *Reconciler) retryStateFor(eventID string) *retryState {
	r.retryMu.Lock()
	defer r.retryMu.Unlock()
	return r.retries[eventID]
}

func (r *Reconciler) bumpRetry(eventID string) (attempts int, firstFailure time.Time) {
	r.retryMu.Lock()
	defer r.retryMu.Unlock()
	state, ok := r.retries[eventID]
	if !ok {
		state = &retryState{firstFailure: time.Now()}
		r.retries[eventID] = state
	}
	state.attempts++
	return state.attempts, state.firstFailure
}

func (r *Reconciler) scheduleRetry(eventID string, attempts int) {
	r.retryMu.Lock()
	defer r.retryMu.Unlock()
	state := r.retries[eventID]
	delay := minPollBackoff << uint(attempts)
	if delay > maxRetryBackoff || delay <= 0 {
		delay = maxRetryBackoff
	}
	state.nextAttempt = time.Now().Add(delay)
}

func (r *Reconciler) clearRetry(eventID string) {
	r.retryMu.Lock()
	defer r.retryMu.Unlock()
	delete(r.retries, eventID)
}
