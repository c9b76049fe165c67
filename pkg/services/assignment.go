package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// AssignmentService is the only writer of the assignments table.
// Assignment is a derived entity: it is never written by a user
// request, only by the reconciler diffing desired against current
// state, but it goes through the same transactional write-plus-event
// path as every other entity so 4.f's GitOps writer can react to it.
type AssignmentService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewAssignmentService(store storage.Store, stream eventstream.Stream) *AssignmentService {
	return &AssignmentService{store: store, stream: stream}
}

func (s *AssignmentService) Create(ctx context.Context, deploymentID, hostID string) (operationID string, err error) {
	a := &types.Assignment{ID: uuid.NewString(), DeploymentID: deploymentID, HostID: hostID}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetDeployment(ctx, deploymentID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "deployment_id does not exist", err)
		}
		if _, err := s.store.GetHost(ctx, hostID); err != nil {
			return errs.Wrap(errs.InvalidArgument, "host_id does not exist", err)
		}
		if err := s.store.UpsertAssignment(ctx, a); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelAssignment, previous: nil, current: a})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *AssignmentService) List(ctx context.Context) ([]*types.Assignment, error) {
	return s.store.ListAssignments(ctx)
}

func (s *AssignmentService) ListByDeployment(ctx context.Context, deploymentID string) ([]*types.Assignment, error) {
	return s.store.ListAssignmentsByDeployment(ctx, deploymentID)
}

func (s *AssignmentService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetAssignment(ctx, id)
		if getErr != nil {
			return getErr
		}
		if err := s.store.DeleteAssignment(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelAssignment, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
