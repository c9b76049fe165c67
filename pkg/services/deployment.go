package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// DeploymentService is the only writer of the deployments table.
type DeploymentService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewDeploymentService(store storage.Store, stream eventstream.Stream) *DeploymentService {
	return &DeploymentService{store: store, stream: stream}
}

func (s *DeploymentService) Upsert(ctx context.Context, d *types.Deployment) (operationID string, err error) {
	if d.Name == "" {
		return "", errs.New(errs.InvalidArgument, "deployment name is required")
	}
	if d.WorkloadID == "" || d.TargetID == "" {
		return "", errs.New(errs.InvalidArgument, "workload_id and target_id are required")
	}
	if d.HostCount < 0 && d.HostCount != types.HostCountAll {
		return "", errs.New(errs.InvalidArgument, "host_count must be non-negative or ALL")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetWorkload(ctx, d.WorkloadID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "workload_id does not exist", err)
		}
		if _, err := s.store.GetTarget(ctx, d.TargetID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "target_id does not exist", err)
		}
		if d.TemplateID != "" {
			if _, err := s.store.GetTemplate(ctx, d.TemplateID); err != nil {
				return errs.Wrap(errs.InvalidArgument, "template_id does not exist", err)
			}
		}

		prev, getErr := s.store.GetDeployment(ctx, d.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertDeployment(ctx, d); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelDeployment, previous: prevModel, current: d})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *DeploymentService) GetByID(ctx context.Context, id string) (*types.Deployment, error) {
	return s.store.GetDeployment(ctx, id)
}

func (s *DeploymentService) List(ctx context.Context) ([]*types.Deployment, error) {
	return s.store.ListDeployments(ctx)
}

func (s *DeploymentService) ListByTarget(ctx context.Context, targetID string) ([]*types.Deployment, error) {
	return s.store.ListDeploymentsByTarget(ctx, targetID)
}

func (s *DeploymentService) ListByWorkload(ctx context.Context, workloadID string) ([]*types.Deployment, error) {
	return s.store.ListDeploymentsByWorkload(ctx, workloadID)
}

// EffectiveTemplateID resolves the Template a Deployment renders with:
// its own override if set, else its owning Workload's default.
func (s *DeploymentService) EffectiveTemplateID(ctx context.Context, d *types.Deployment) (string, error) {
	if d.TemplateID != "" {
		return d.TemplateID, nil
	}
	w, err := s.store.GetWorkload(ctx, d.WorkloadID)
	if err != nil {
		return "", err
	}
	return w.TemplateID, nil
}

// Delete removes the Deployment. The reconciler, not this service, is
// responsible for reacting to the resulting Deleted event; in practice
// that reaction is a no-op because storage.DeleteDeployment already
// cascades the removal of its Assignments at the DB level.
func (s *DeploymentService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetDeployment(ctx, id)
		if getErr != nil {
			return getErr
		}
		if err := s.store.DeleteDeployment(ctx, id); err != nil {
			return errs.Wrap(errs.Internal, "delete deployment", err)
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelDeployment, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
