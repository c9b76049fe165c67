package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// WorkloadService is the only writer of the workloads table.
type WorkloadService struct {
	store  storage.Store
	stream eventstream.Stream
	// deployments deletes the Deployments this Workload owns when the
	// Workload itself is deleted, so each deletion still emits its own
	// Deployment event.
	deployments *DeploymentService
}

func NewWorkloadService(store storage.Store, stream eventstream.Stream, deployments *DeploymentService) *WorkloadService {
	return &WorkloadService{store: store, stream: stream, deployments: deployments}
}

func (s *WorkloadService) Upsert(ctx context.Context, w *types.Workload) (operationID string, err error) {
	if w.Name == "" {
		return "", errs.New(errs.InvalidArgument, "workload name is required")
	}
	if w.TeamID == "" {
		return "", errs.New(errs.InvalidArgument, "team_id is required")
	}
	if w.TemplateID == "" {
		return "", errs.New(errs.InvalidArgument, "template_id is required")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetTeam(ctx, w.TeamID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "team_id does not exist", err)
		}
		if _, err := s.store.GetTemplate(ctx, w.TemplateID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "template_id does not exist", err)
		}

		prev, getErr := s.store.GetWorkload(ctx, w.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertWorkload(ctx, w); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelWorkload, previous: prevModel, current: w})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *WorkloadService) GetByID(ctx context.Context, id string) (*types.Workload, error) {
	return s.store.GetWorkload(ctx, id)
}

func (s *WorkloadService) List(ctx context.Context) ([]*types.Workload, error) {
	return s.store.ListWorkloads(ctx)
}

func (s *WorkloadService) ListByTeam(ctx context.Context, teamID string) ([]*types.Workload, error) {
	return s.store.ListWorkloadsByTeam(ctx, teamID)
}

// Delete removes the Workload, first cascading into deleting every
// Deployment it owns so each produces its own Deleted event.
func (s *WorkloadService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetWorkload(ctx, id)
		if getErr != nil {
			return getErr
		}
		owned, err := s.store.ListDeploymentsByWorkload(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range owned {
			if _, err := s.deployments.Delete(ctx, d.ID); err != nil {
				return err
			}
		}
		if err := s.store.DeleteWorkload(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelWorkload, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
