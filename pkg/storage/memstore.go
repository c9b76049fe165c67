package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/types"
)

type memTxKey struct{}

// MemStore is an in-memory Store used by unit tests and by the
// conformance suite shared with SQLStore. A single mutex makes every
// call serializable; WithinTransaction snapshots the maps before
// running fn and restores them if fn returns an error, giving the
// same all-or-nothing guarantee as the sqlite BEGIN IMMEDIATE path
// without a real WAL.
type MemStore struct {
	mu sync.Mutex

	teams       map[string]types.Team
	templates   map[string]types.Template
	workloads   map[string]types.Workload
	targets     map[string]types.Target
	hosts       map[string]types.Host
	deployments map[string]types.Deployment
	assignments map[string]types.Assignment
	configs     map[string]types.Config
}

// NewMemStore creates an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{
		teams:       make(map[string]types.Team),
		templates:   make(map[string]types.Template),
		workloads:   make(map[string]types.Workload),
		targets:     make(map[string]types.Target),
		hosts:       make(map[string]types.Host),
		deployments: make(map[string]types.Deployment),
		assignments: make(map[string]types.Assignment),
		configs:     make(map[string]types.Config),
	}
}

func (s *MemStore) Close() error { return nil }

type memSnapshot struct {
	teams       map[string]types.Team
	templates   map[string]types.Template
	workloads   map[string]types.Workload
	targets     map[string]types.Target
	hosts       map[string]types.Host
	deployments map[string]types.Deployment
	assignments map[string]types.Assignment
	configs     map[string]types.Config
}

func (s *MemStore) snapshot() memSnapshot {
	return memSnapshot{
		teams:       copyMap(s.teams),
		templates:   copyMap(s.templates),
		workloads:   copyMap(s.workloads),
		targets:     copyMap(s.targets),
		hosts:       copyMap(s.hosts),
		deployments: copyMap(s.deployments),
		assignments: copyMap(s.assignments),
		configs:     copyMap(s.configs),
	}
}

func (s *MemStore) restore(snap memSnapshot) {
	s.teams = snap.teams
	s.templates = snap.templates
	s.workloads = snap.workloads
	s.targets = snap.targets
	s.hosts = snap.hosts
	s.deployments = snap.deployments
	s.assignments = snap.assignments
	s.configs = snap.configs
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *MemStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(bool); ok {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemStore) lockUnlessInTx(ctx context.Context) func() {
	if _, ok := ctx.Value(memTxKey{}).(bool); ok {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// --- Team ---

func (s *MemStore) UpsertTeam(ctx context.Context, t *types.Team) error {
	defer s.lockUnlessInTx(ctx)()
	s.teams[t.ID] = *t
	return nil
}

func (s *MemStore) GetTeam(ctx context.Context, id string) (*types.Team, error) {
	defer s.lockUnlessInTx(ctx)()
	t, ok := s.teams[id]
	if !ok {
		return nil, notFound("team", id)
	}
	return &t, nil
}

func (s *MemStore) ListTeams(ctx context.Context) ([]*types.Team, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Team
	for _, t := range s.teams {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) DeleteTeam(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.teams, id)
	return nil
}

// --- Template ---

func (s *MemStore) UpsertTemplate(ctx context.Context, t *types.Template) error {
	defer s.lockUnlessInTx(ctx)()
	s.templates[t.ID] = *t
	return nil
}

func (s *MemStore) GetTemplate(ctx context.Context, id string) (*types.Template, error) {
	defer s.lockUnlessInTx(ctx)()
	t, ok := s.templates[id]
	if !ok {
		return nil, notFound("template", id)
	}
	return &t, nil
}

func (s *MemStore) ListTemplates(ctx context.Context) ([]*types.Template, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Template
	for _, t := range s.templates {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) DeleteTemplate(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.templates, id)
	return nil
}

// --- Workload ---

func (s *MemStore) UpsertWorkload(ctx context.Context, w *types.Workload) error {
	defer s.lockUnlessInTx(ctx)()
	s.workloads[w.ID] = *w
	return nil
}

func (s *MemStore) GetWorkload(ctx context.Context, id string) (*types.Workload, error) {
	defer s.lockUnlessInTx(ctx)()
	w, ok := s.workloads[id]
	if !ok {
		return nil, notFound("workload", id)
	}
	return &w, nil
}

func (s *MemStore) ListWorkloads(ctx context.Context) ([]*types.Workload, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Workload
	for _, w := range s.workloads {
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListWorkloadsByTeam(ctx context.Context, teamID string) ([]*types.Workload, error) {
	all, _ := s.ListWorkloads(ctx)
	var out []*types.Workload
	for _, w := range all {
		if w.TeamID == teamID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *MemStore) ListWorkloadsByTemplate(ctx context.Context, templateID string) ([]*types.Workload, error) {
	all, _ := s.ListWorkloads(ctx)
	var out []*types.Workload
	for _, w := range all {
		if w.TemplateID == templateID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteWorkload(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.workloads, id)
	return nil
}

// --- Target ---

func (s *MemStore) UpsertTarget(ctx context.Context, t *types.Target) error {
	defer s.lockUnlessInTx(ctx)()
	cp := *t
	cp.Labels = append([]string(nil), t.Labels...)
	sort.Strings(cp.Labels)
	s.targets[t.ID] = cp
	return nil
}

func (s *MemStore) GetTarget(ctx context.Context, id string) (*types.Target, error) {
	defer s.lockUnlessInTx(ctx)()
	t, ok := s.targets[id]
	if !ok {
		return nil, notFound("target", id)
	}
	return &t, nil
}

func (s *MemStore) ListTargets(ctx context.Context) ([]*types.Target, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Target
	for _, t := range s.targets {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) DeleteTarget(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.targets, id)
	return nil
}

// --- Host ---

func (s *MemStore) UpsertHost(ctx context.Context, h *types.Host) error {
	defer s.lockUnlessInTx(ctx)()
	cp := *h
	cp.Labels = append([]string(nil), h.Labels...)
	sort.Strings(cp.Labels)
	s.hosts[h.ID] = cp
	return nil
}

func (s *MemStore) GetHost(ctx context.Context, id string) (*types.Host, error) {
	defer s.lockUnlessInTx(ctx)()
	h, ok := s.hosts[id]
	if !ok {
		return nil, notFound("host", id)
	}
	return &h, nil
}

func (s *MemStore) ListHosts(ctx context.Context) ([]*types.Host, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Host
	for _, h := range s.hosts {
		h := h
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListHostsMatchingLabels(ctx context.Context, subset []string) ([]*types.Host, error) {
	all, _ := s.ListHosts(ctx)
	if len(subset) == 0 {
		return all, nil
	}
	want := make(map[string]struct{}, len(subset))
	for _, l := range subset {
		want[l] = struct{}{}
	}
	var out []*types.Host
	for _, h := range all {
		have := make(map[string]struct{}, len(h.Labels))
		for _, l := range h.Labels {
			have[l] = struct{}{}
		}
		matches := true
		for l := range want {
			if _, ok := have[l]; !ok {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteHost(ctx context.Context, id string) error {
	unlock := s.lockUnlessInTx(ctx)
	defer unlock()
	delete(s.hosts, id)
	for aid, a := range s.assignments {
		if a.HostID == id {
			delete(s.assignments, aid)
		}
	}
	return nil
}

// --- Deployment ---

func (s *MemStore) UpsertDeployment(ctx context.Context, d *types.Deployment) error {
	defer s.lockUnlessInTx(ctx)()
	s.deployments[d.ID] = *d
	return nil
}

func (s *MemStore) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	defer s.lockUnlessInTx(ctx)()
	d, ok := s.deployments[id]
	if !ok {
		return nil, notFound("deployment", id)
	}
	return &d, nil
}

func (s *MemStore) ListDeployments(ctx context.Context) ([]*types.Deployment, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Deployment
	for _, d := range s.deployments {
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListDeploymentsByTarget(ctx context.Context, targetID string) ([]*types.Deployment, error) {
	all, _ := s.ListDeployments(ctx)
	var out []*types.Deployment
	for _, d := range all {
		if d.TargetID == targetID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemStore) ListDeploymentsByWorkload(ctx context.Context, workloadID string) ([]*types.Deployment, error) {
	all, _ := s.ListDeployments(ctx)
	var out []*types.Deployment
	for _, d := range all {
		if d.WorkloadID == workloadID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemStore) ListDeploymentsByTemplate(ctx context.Context, templateID string) ([]*types.Deployment, error) {
	all, _ := s.ListDeployments(ctx)
	var out []*types.Deployment
	for _, d := range all {
		if d.TemplateID == templateID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteDeployment(ctx context.Context, id string) error {
	unlock := s.lockUnlessInTx(ctx)
	defer unlock()
	delete(s.deployments, id)
	for aid, a := range s.assignments {
		if a.DeploymentID == id {
			delete(s.assignments, aid)
		}
	}
	return nil
}

// --- Assignment ---

func (s *MemStore) UpsertAssignment(ctx context.Context, a *types.Assignment) error {
	defer s.lockUnlessInTx(ctx)()
	for _, existing := range s.assignments {
		if existing.ID != a.ID && existing.DeploymentID == a.DeploymentID && existing.HostID == a.HostID {
			return errs.New(errs.Conflict, "assignment already exists for deployment/host pair")
		}
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *MemStore) GetAssignment(ctx context.Context, id string) (*types.Assignment, error) {
	defer s.lockUnlessInTx(ctx)()
	a, ok := s.assignments[id]
	if !ok {
		return nil, notFound("assignment", id)
	}
	return &a, nil
}

func (s *MemStore) ListAssignments(ctx context.Context) ([]*types.Assignment, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Assignment
	for _, a := range s.assignments {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListAssignmentsByDeployment(ctx context.Context, deploymentID string) ([]*types.Assignment, error) {
	all, _ := s.ListAssignments(ctx)
	var out []*types.Assignment
	for _, a := range all {
		if a.DeploymentID == deploymentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostID < out[j].HostID })
	return out, nil
}

func (s *MemStore) ListAssignmentsByHost(ctx context.Context, hostID string) ([]*types.Assignment, error) {
	all, _ := s.ListAssignments(ctx)
	var out []*types.Assignment
	for _, a := range all {
		if a.HostID == hostID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteAssignment(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.assignments, id)
	return nil
}

// --- Config ---

func (s *MemStore) UpsertConfig(ctx context.Context, c *types.Config) error {
	defer s.lockUnlessInTx(ctx)()
	s.configs[c.ID] = *c
	return nil
}

func (s *MemStore) GetConfig(ctx context.Context, id string) (*types.Config, error) {
	defer s.lockUnlessInTx(ctx)()
	c, ok := s.configs[id]
	if !ok {
		return nil, notFound("config", id)
	}
	return &c, nil
}

func (s *MemStore) ListConfigs(ctx context.Context) ([]*types.Config, error) {
	defer s.lockUnlessInTx(ctx)()
	var out []*types.Config
	for _, c := range s.configs {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListConfigsByOwningModel(ctx context.Context, owningModel string) ([]*types.Config, error) {
	all, _ := s.ListConfigs(ctx)
	var out []*types.Config
	for _, c := range all {
		if c.OwningModel == owningModel {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemStore) DeleteConfig(ctx context.Context, id string) error {
	defer s.lockUnlessInTx(ctx)()
	delete(s.configs, id)
	return nil
}
