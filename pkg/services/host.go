package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// HostService is the only writer of the hosts table. Hosts do not own
// Assignments, but storage.Store enforces referential integrity by
// deleting a Host's Assignments as part of DeleteHost. The gitops
// writer does not listen for Host events directly, so Delete must
// still cascade through assignments to produce the Assignment Deleted
// events that are the only channel it has to react on.
type HostService struct {
	store       storage.Store
	stream      eventstream.Stream
	assignments *AssignmentService
}

func NewHostService(store storage.Store, stream eventstream.Stream, assignments *AssignmentService) *HostService {
	return &HostService{store: store, stream: stream, assignments: assignments}
}

func (s *HostService) Upsert(ctx context.Context, h *types.Host) (operationID string, err error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetHost(ctx, h.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertHost(ctx, h); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelHost, previous: prevModel, current: h})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *HostService) GetByID(ctx context.Context, id string) (*types.Host, error) {
	return s.store.GetHost(ctx, id)
}

func (s *HostService) List(ctx context.Context) ([]*types.Host, error) {
	return s.store.ListHosts(ctx)
}

func (s *HostService) ListMatchingLabels(ctx context.Context, subset []string) ([]*types.Host, error) {
	return s.store.ListHostsMatchingLabels(ctx, subset)
}

// Delete removes the Host, first cascading into deleting every
// Assignment it holds through AssignmentService so each produces its
// own Deleted event, the same pattern WorkloadService.Delete uses for
// Deployments. storage.DeleteHost still cascades the assignments rows
// at the DB level, but by then AssignmentService has already deleted
// them and emitted their events, so that cascade is a no-op.
func (s *HostService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetHost(ctx, id)
		if getErr != nil {
			return getErr
		}
		held, err := s.store.ListAssignmentsByHost(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range held {
			if _, err := s.assignments.Delete(ctx, a.ID); err != nil {
				return err
			}
		}
		if err := s.store.DeleteHost(ctx, id); err != nil {
			return errs.Wrap(errs.Internal, "delete host", err)
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelHost, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
