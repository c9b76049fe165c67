package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// TemplateService is the only writer of the templates table. Templates
// are referenced but not owned: a Template in use by any Workload or
// Deployment cannot be deleted.
type TemplateService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewTemplateService(store storage.Store, stream eventstream.Stream) *TemplateService {
	return &TemplateService{store: store, stream: stream}
}

func (s *TemplateService) Upsert(ctx context.Context, t *types.Template) (operationID string, err error) {
	if t.Repository == "" || t.GitRef == "" {
		return "", errs.New(errs.InvalidArgument, "repository and git_ref are required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTemplate(ctx, t.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertTemplate(ctx, t); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelTemplate, previous: prevModel, current: t})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *TemplateService) GetByID(ctx context.Context, id string) (*types.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

func (s *TemplateService) List(ctx context.Context) ([]*types.Template, error) {
	return s.store.ListTemplates(ctx)
}

func (s *TemplateService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetTemplate(ctx, id)
		if getErr != nil {
			return getErr
		}
		byWorkload, err := s.store.ListWorkloadsByTemplate(ctx, id)
		if err != nil {
			return err
		}
		byDeployment, err := s.store.ListDeploymentsByTemplate(ctx, id)
		if err != nil {
			return err
		}
		if len(byWorkload) > 0 || len(byDeployment) > 0 {
			return errs.New(errs.InvalidArgument, "template is still referenced by a workload or deployment")
		}
		if err := s.store.DeleteTemplate(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelTemplate, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}
