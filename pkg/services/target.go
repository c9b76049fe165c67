package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// TargetService is the only writer of the targets table.
type TargetService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewTargetService(store storage.Store, stream eventstream.Stream) *TargetService {
	return &TargetService{store: store, stream: stream}
}

func (s *TargetService) Upsert(ctx context.Context, t *types.Target) (operationID string, err error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTarget(ctx, t.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertTarget(ctx, t); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelTarget, previous: prevModel, current: t})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *TargetService) GetByID(ctx context.Context, id string) (*types.Target, error) {
	return s.store.GetTarget(ctx, id)
}

func (s *TargetService) List(ctx context.Context) ([]*types.Target, error) {
	return s.store.ListTargets(ctx)
}

func (s *TargetService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTarget(ctx, id)
		if getErr != nil {
			return getErr
		}
		byTarget, err := s.store.ListDeploymentsByTarget(ctx, id)
		if err != nil {
			return err
		}
		if len(byTarget) > 0 {
			return errs.New(errs.InvalidArgument, "target is still referenced by a deployment")
		}
		if err := s.store.DeleteTarget(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelTarget, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
