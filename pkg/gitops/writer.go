package gitops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/log"
	"github.com/meridian/orchestrator/pkg/metrics"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/template"
	"github.com/meridian/orchestrator/pkg/types"
)

const (
	consumerID     = "gitops"
	batchSize      = 50
	branchName     = "main"
	maxPushRetries = 3

	minPollBackoff = 100 * time.Millisecond
	maxPollBackoff = 5 * time.Second
)

// Writer converges the GitOps working tree toward the rendered
// Assignments currently on file.
type Writer struct {
	repoPath     string
	organization string

	repo   *git.Repository
	lock   *fileLock
	logger zerolog.Logger

	store       storage.Store
	stream      eventstream.Stream
	renderer    *template.Renderer
	deployments *services.DeploymentService

	stopCh chan struct{}
	doneCh chan struct{}
}

type Deps struct {
	Store       storage.Store
	Stream      eventstream.Stream
	Renderer    *template.Renderer
	Deployments *services.DeploymentService
}

// Open opens the existing local clone at repoPath and returns a Writer
// over it; it fails if no repository is there.
func Open(repoPath, organization string, deps Deps) (*Writer, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open gitops working tree", err)
	}
	return &Writer{
		repoPath:     repoPath,
		organization: organization,
		repo:         repo,
		lock:         newFileLock(filepath.Join(repoPath, ".orchestrator-gitops.lock")),
		logger:       log.WithConsumerID(consumerID),
		store:        deps.Store,
		stream:       deps.Stream,
		renderer:     deps.Renderer,
		deployments:  deps.Deployments,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

func (w *Writer) Start() {
	go w.run()
}

func (w *Writer) Stop(ctx context.Context) error {
	close(w.stopCh)
	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.doneCh)
	w.logger.Info().Msg("gitops writer started")

	backoff := minPollBackoff
	for {
		select {
		case <-w.stopCh:
			w.logger.Info().Msg("gitops writer stopped")
			return
		default:
		}

		ctx := context.Background()
		batch, err := w.stream.Receive(ctx, consumerID, batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to poll event stream")
			if !w.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

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
					if err := w.stream.Delete(ctx, consumerID, e.ID); err != nil {
						w.logger.Error().Err(err).Str("event_id", e.ID).Msg("failed to acknowledge event")
					}
				}
			}
		}
		if len(relevant) == 0 {
			if !w.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minPollBackoff

		if err := w.processBatch(ctx, relevant); err != nil {
			w.logger.Error().Err(err).Msg("batch failed, leaving events unacknowledged")
			if !w.sleep(backoff) {
				return
			}
			continue
		}
		for _, e := range relevant {
			if err := w.stream.Delete(ctx, consumerID, e.ID); err != nil {
				w.logger.Error().Err(err).Str("event_id", e.ID).Msg("failed to acknowledge event")
			}
		}
	}
}

func (w *Writer) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-w.stopCh:
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
		case types.ModelAssignment, types.ModelDeployment, types.ModelTemplate, types.ModelConfig, types.ModelWorkload:
			out = append(out, e)
		}
	}
	return out
}

// processBatch applies every event's filesystem effect, then stages,
// commits and pushes once for the whole batch so a single commit
// represents a consistent snapshot. It only returns nil once the push
// has succeeded; the caller acknowledges the batch's events on that
// basis.
func (w *Writer) processBatch(ctx context.Context, events []*types.Event) error {
	if err := w.lock.Acquire(); err != nil {
		return err
	}
	defer w.lock.Release()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GitOpsCommitDuration)

	apply := func() error {
		for _, e := range events {
			if err := w.applyEvent(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	if err := apply(); err != nil {
		return err
	}

	operationIDs := make([]string, 0, len(events))
	for _, e := range events {
		operationIDs = append(operationIDs, e.OperationID)
	}

	return w.commitAndPush(ctx, operationIDs, apply)
}

func (w *Writer) applyEvent(ctx context.Context, e *types.Event) error {
	switch e.ModelType {
	case types.ModelAssignment:
		return w.applyAssignmentEvent(ctx, e)
	case types.ModelDeployment:
		return w.applyDeploymentEvent(ctx, e)
	case types.ModelTemplate:
		return w.applyTemplateEvent(ctx, e)
	case types.ModelWorkload:
		return w.applyWorkloadEvent(ctx, e)
	case types.ModelConfig:
		return w.applyConfigEvent(ctx, e)
	default:
		return nil
	}
}

func (w *Writer) applyAssignmentEvent(ctx context.Context, e *types.Event) error {
	if e.EventType == types.EventDeleted {
		var a types.Assignment
		if err := unmarshalModel(e.SerializedPreviousModel, &a); err != nil {
			return err
		}
		return removeHostDeploymentSubtree(w.repoPath, a.HostID, a.DeploymentID)
	}
	var a types.Assignment
	if err := unmarshalModel(e.SerializedCurrentModel, &a); err != nil {
		return err
	}
	return w.renderAssignment(ctx, a.DeploymentID, a.HostID)
}

func (w *Writer) applyDeploymentEvent(ctx context.Context, e *types.Event) error {
	if e.EventType == types.EventDeleted {
		var d types.Deployment
		if err := unmarshalModel(e.SerializedPreviousModel, &d); err != nil {
			return err
		}
		return removeDeploymentSubtrees(w.repoPath, d.ID)
	}
	var d types.Deployment
	if err := unmarshalModel(e.SerializedCurrentModel, &d); err != nil {
		return err
	}
	return w.renderDeploymentAssignments(ctx, d.ID)
}

// applyTemplateEvent recomputes every Deployment that renders with this
// Template, either directly or as its Workload's default.
func (w *Writer) applyTemplateEvent(ctx context.Context, e *types.Event) error {
	if e.EventType == types.EventDeleted {
		return nil
	}
	var t types.Template
	if err := unmarshalModel(e.SerializedCurrentModel, &t); err != nil {
		return err
	}

	direct, err := w.store.ListDeploymentsByTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	workloads, err := w.store.ListWorkloadsByTemplate(ctx, t.ID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(direct))
	for _, d := range direct {
		seen[d.ID] = true
		if err := w.renderDeploymentAssignments(ctx, d.ID); err != nil {
			return err
		}
	}
	for _, wl := range workloads {
		owned, err := w.store.ListDeploymentsByWorkload(ctx, wl.ID)
		if err != nil {
			return err
		}
		for _, d := range owned {
			if d.TemplateID != "" || seen[d.ID] {
				continue
			}
			if err := w.renderDeploymentAssignments(ctx, d.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) applyWorkloadEvent(ctx context.Context, e *types.Event) error {
	if e.EventType == types.EventDeleted {
		return nil
	}
	var wl types.Workload
	if err := unmarshalModel(e.SerializedCurrentModel, &wl); err != nil {
		return err
	}
	owned, err := w.store.ListDeploymentsByWorkload(ctx, wl.ID)
	if err != nil {
		return err
	}
	for _, d := range owned {
		if err := w.renderDeploymentAssignments(ctx, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// applyConfigEvent is conservative about scope the same way the
// reconciler is conservative about Host events: a Config scoped to a
// Team or to "global" may influence any Deployment, so every
// Deployment is re-rendered.
func (w *Writer) applyConfigEvent(ctx context.Context, e *types.Event) error {
	serialized := e.SerializedCurrentModel
	if serialized == "" {
		serialized = e.SerializedPreviousModel
	}
	var c types.Config
	if err := unmarshalModel(serialized, &c); err != nil {
		return err
	}

	kind, id, _ := strings.Cut(c.OwningModel, ":")
	switch kind {
	case "deployment":
		return w.renderDeploymentAssignments(ctx, id)
	case "workload":
		owned, err := w.store.ListDeploymentsByWorkload(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range owned {
			if err := w.renderDeploymentAssignments(ctx, d.ID); err != nil {
				return err
			}
		}
		return nil
	default:
		all, err := w.store.ListDeployments(ctx)
		if err != nil {
			return err
		}
		for _, d := range all {
			if err := w.renderDeploymentAssignments(ctx, d.ID); err != nil {
				return err
			}
		}
		return nil
	}
}

func (w *Writer) renderDeploymentAssignments(ctx context.Context, deploymentID string) error {
	assignments, err := w.store.ListAssignmentsByDeployment(ctx, deploymentID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if err := w.renderAssignment(ctx, deploymentID, a.HostID); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) renderAssignment(ctx context.Context, deploymentID, hostID string) error {
	deployment, err := w.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return err
	}
	workload, err := w.store.GetWorkload(ctx, deployment.WorkloadID)
	if err != nil {
		return err
	}
	team, err := w.store.GetTeam(ctx, workload.TeamID)
	if err != nil {
		return err
	}
	templateID, err := w.deployments.EffectiveTemplateID(ctx, deployment)
	if err != nil {
		return err
	}
	tpl, err := w.store.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}

	files, err := w.renderer.Render(ctx, tpl, deployment, workload, template.RenderContext{
		Organization: w.organization,
		Team:         team.Name,
		Workload:     workload.Name,
		Deployment:   deployment.Name,
		Host:         hostID,
	})
	if err != nil {
		return err
	}

	dest := bundlePath(w.repoPath, hostID, team.ID, workload.ID, deployment.ID)
	return writeBundle(dest, files)
}

func unmarshalModel(serialized string, out interface{}) error {
	if serialized == "" {
		return errs.New(errs.InvalidArgument, "event carries no model to decode")
	}
	if err := json.Unmarshal([]byte(serialized), out); err != nil {
		return errs.Wrap(errs.InvalidArgument, "malformed event payload", err)
	}
	return nil
}

func (w *Writer) commitAndPush(ctx context.Context, operationIDs []string, apply func() error) error {
	wt, err := w.repo.Worktree()
	if err != nil {
		return errs.Wrap(errs.Internal, "open gitops worktree", err)
	}

	for attempt := 0; ; attempt++ {
		if err := w.stageAndCommit(wt, operationIDs); err != nil {
			return err
		}

		err := w.repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin"})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			metrics.GitOpsCommitsTotal.Inc()
			return nil
		}
		if !isRejectedNonFastForward(err) || attempt >= maxPushRetries {
			return errs.Wrap(errs.Unavailable, "push gitops commit", err)
		}

		metrics.GitOpsPushRetriesTotal.Inc()
		if err := w.fetchAndResetToRemote(ctx, wt); err != nil {
			return err
		}
		// The working tree now matches the fetched remote head; redo
		// this batch's renders on top of it before retrying the push.
		if err := apply(); err != nil {
			return err
		}
	}
}

func (w *Writer) stageAndCommit(wt *git.Worktree, operationIDs []string) error {
	status, err := wt.Status()
	if err != nil {
		return errs.Wrap(errs.Internal, "read gitops worktree status", err)
	}
	if status.IsClean() {
		return nil
	}
	if _, err := wt.Add("."); err != nil {
		return errs.Wrap(errs.Internal, "stage gitops changes", err)
	}

	message := fmt.Sprintf("reconcile: %s", strings.Join(truncatedIDs(operationIDs), ","))
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "orchestrator", Email: "orchestrator@local", When: time.Now()},
	})
	if err != nil {
		return errs.Wrap(errs.Internal, "commit gitops changes", err)
	}
	return nil
}

func (w *Writer) fetchAndResetToRemote(ctx context.Context, wt *git.Worktree) error {
	if err := w.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin"}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return errs.Wrap(errs.Unavailable, "fetch before rebase retry", err)
	}
	remoteRef, err := w.repo.Reference(plumbing.NewRemoteReferenceName("origin", branchName), true)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "resolve fetched remote head", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return errs.Wrap(errs.Internal, "reset to fetched remote head", err)
	}
	return nil
}

// isRejectedNonFastForward reports whether err is a push rejection
// caused by the remote having moved ahead of our local head. go-git
// does not expose a typed sentinel for this case the way it does for
// NoErrAlreadyUpToDate, so the rejection is recognized by the reason
// string the remote's ref-update report carries.
func isRejectedNonFastForward(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "fetch first")
}

// truncatedIDs shortens operation ids to their first 8 characters for
// a readable commit subject line.
func truncatedIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > 8 {
			id = id[:8]
		}
		out[i] = id
	}
	return out
}
