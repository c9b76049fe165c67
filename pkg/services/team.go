package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// TeamService is the only writer of the teams table.
type TeamService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewTeamService(store storage.Store, stream eventstream.Stream) *TeamService {
	return &TeamService{store: store, stream: stream}
}

func (s *TeamService) Upsert(ctx context.Context, t *types.Team) (operationID string, err error) {
	if t.Name == "" {
		return "", errs.New(errs.InvalidArgument, "team name is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTeam(ctx, t.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertTeam(ctx, t); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelWorkspace, previous: prevModel, current: t})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *TeamService) GetByID(ctx context.Context, id string) (*types.Team, error) {
	return s.store.GetTeam(ctx, id)
}

func (s *TeamService) List(ctx context.Context) ([]*types.Team, error) {
	return s.store.ListTeams(ctx)
}

func (s *TeamService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTeam(ctx, id)
		if getErr != nil {
			return getErr
		}
		owned, err := s.store.ListWorkloadsByTeam(ctx, id)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			return errs.New(errs.InvalidArgument, "team still owns workloads")
		}
		if err := s.store.DeleteTeam(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelWorkspace, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
