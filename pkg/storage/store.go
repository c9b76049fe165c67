package storage

import (
	"context"

	"github.com/meridian/orchestrator/pkg/types"
)

// Store is the persistence interface shared by every model service, the
// reconciler and the template renderer. Each entity exposes Upsert,
// Delete, GetByID and List; entities referenced by label or by another
// entity's foreign key also expose the relationship queries those
// consumers need.
//
// WithinTransaction lets a caller run several Store calls (and,
// typically, one eventstream.Stream.Send call) atomically: the entity
// write and its event append must either both become visible or
// neither does. Implementations thread the active transaction through
// ctx so nested Store calls made from inside fn automatically
// participate in it.
type Store interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	UpsertTeam(ctx context.Context, t *types.Team) error
	GetTeam(ctx context.Context, id string) (*types.Team, error)
	ListTeams(ctx context.Context) ([]*types.Team, error)
	DeleteTeam(ctx context.Context, id string) error

	UpsertWorkload(ctx context.Context, w *types.Workload) error
	GetWorkload(ctx context.Context, id string) (*types.Workload, error)
	ListWorkloads(ctx context.Context) ([]*types.Workload, error)
	ListWorkloadsByTeam(ctx context.Context, teamID string) ([]*types.Workload, error)
	ListWorkloadsByTemplate(ctx context.Context, templateID string) ([]*types.Workload, error)
	DeleteWorkload(ctx context.Context, id string) error

	UpsertTemplate(ctx context.Context, t *types.Template) error
	GetTemplate(ctx context.Context, id string) (*types.Template, error)
	ListTemplates(ctx context.Context) ([]*types.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	UpsertTarget(ctx context.Context, t *types.Target) error
	GetTarget(ctx context.Context, id string) (*types.Target, error)
	ListTargets(ctx context.Context) ([]*types.Target, error)
	DeleteTarget(ctx context.Context, id string) error

	UpsertHost(ctx context.Context, h *types.Host) error
	GetHost(ctx context.Context, id string) (*types.Host, error)
	ListHosts(ctx context.Context) ([]*types.Host, error)
	ListHostsMatchingLabels(ctx context.Context, subset []string) ([]*types.Host, error)
	DeleteHost(ctx context.Context, id string) error

	UpsertDeployment(ctx context.Context, d *types.Deployment) error
	GetDeployment(ctx context.Context, id string) (*types.Deployment, error)
	ListDeployments(ctx context.Context) ([]*types.Deployment, error)
	ListDeploymentsByTarget(ctx context.Context, targetID string) ([]*types.Deployment, error)
	ListDeploymentsByWorkload(ctx context.Context, workloadID string) ([]*types.Deployment, error)
	ListDeploymentsByTemplate(ctx context.Context, templateID string) ([]*types.Deployment, error)
	DeleteDeployment(ctx context.Context, id string) error

	UpsertAssignment(ctx context.Context, a *types.Assignment) error
	GetAssignment(ctx context.Context, id string) (*types.Assignment, error)
	ListAssignments(ctx context.Context) ([]*types.Assignment, error)
	ListAssignmentsByDeployment(ctx context.Context, deploymentID string) ([]*types.Assignment, error)
	ListAssignmentsByHost(ctx context.Context, hostID string) ([]*types.Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error

	UpsertConfig(ctx context.Context, c *types.Config) error
	GetConfig(ctx context.Context, id string) (*types.Config, error)
	ListConfigs(ctx context.Context) ([]*types.Config, error)
	ListConfigsByOwningModel(ctx context.Context, owningModel string) ([]*types.Config, error)
	DeleteConfig(ctx context.Context, id string) error

	Close() error
}
