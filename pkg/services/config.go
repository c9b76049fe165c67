package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// ConfigService is the only writer of the configs table. owning_model
// is a "kind:id" reference such as "deployment:42"; "global" owns no
// id and sits at the root of the inheritance chain.
type ConfigService struct {
	store  storage.Store
	stream eventstream.Stream
}

func NewConfigService(store storage.Store, stream eventstream.Stream) *ConfigService {
	return &ConfigService{store: store, stream: stream}
}

func (s *ConfigService) Upsert(ctx context.Context, c *types.Config) (operationID string, err error) {
	if c.Key == "" {
		return "", errs.New(errs.InvalidArgument, "key is required")
	}
	switch c.ValueType {
	case types.ValueTypeString, types.ValueTypeKeyValue, types.ValueTypeKeyValueList:
	default:
		return "", errs.New(errs.InvalidArgument, "value_type must be string, keyvalue or keyvaluelist")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.validateOwningModel(ctx, c.OwningModel); err != nil {
			return err
		}
		prev, getErr := s.store.GetConfig(ctx, c.ID)
		if getErr = ignoreNotFound(getErr); getErr != nil {
			return getErr
		}
		if err := s.store.UpsertConfig(ctx, c); err != nil {
			return err
		}
		var prevModel interface{}
		if prev != nil {
			prevModel = prev
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelConfig, previous: prevModel, current: c})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

func (s *ConfigService) validateOwningModel(ctx context.Context, owningModel string) error {
	if owningModel == "global" {
		return nil
	}
	kind, id, ok := strings.Cut(owningModel, ":")
	if !ok || id == "" {
		return errs.New(errs.InvalidArgument, `owning_model must be "global" or "kind:id"`)
	}
	var err error
	switch kind {
	case "deployment":
		_, err = s.store.GetDeployment(ctx, id)
	case "workload":
		_, err = s.store.GetWorkload(ctx, id)
	case "team":
		_, err = s.store.GetTeam(ctx, id)
	default:
		return errs.New(errs.InvalidArgument, "unknown owning_model kind: "+kind)
	}
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "owning_model does not reference an existing entity", err)
	}
	return nil
}

func (s *ConfigService) GetByID(ctx context.Context, id string) (*types.Config, error) {
	return s.store.GetConfig(ctx, id)
}

func (s *ConfigService) List(ctx context.Context) ([]*types.Config, error) {
	return s.store.ListConfigs(ctx)
}

func (s *ConfigService) ListByOwningModel(ctx context.Context, owningModel string) ([]*types.Config, error) {
	return s.store.ListConfigsByOwningModel(ctx, owningModel)
}

func (s *ConfigService) Delete(ctx context.Context, id string) (operationID string, err error) {
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		prev, getErr := s.store.GetConfig(ctx, id)
		if getErr != nil {
			return getErr
		}
		if err := s.store.DeleteConfig(ctx, id); err != nil {
			return err
		}
		opID, err := emit(ctx, s.stream, mutation{modelType: types.ModelConfig, previous: prev, current: nil})
		if err != nil {
			return err
		}
		operationID = opID
		return nil
	})
	return operationID, err
}

// Effective resolves the flattened Config map for a Deployment by
// walking Deployment -> Workload -> Team -> Global, with the nearest
// owner winning on key collision.
func (s *ConfigService) Effective(ctx context.Context, deployment *types.Deployment, workload *types.Workload) (map[string]string, error) {
	configs, err := s.EffectiveConfigs(ctx, deployment, workload)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(configs))
	for _, c := range configs {
		result[c.Key] = c.Value
	}
	return result, nil
}

// EffectiveConfigs resolves the winning Config record per key along the
// same Deployment -> Workload -> Team -> Global chain as Effective, but
// keeps the full record (including ValueType) so callers that need to
// distinguish a keyvaluelist from a plain string, such as the template
// renderer, don't have to re-fetch it.
func (s *ConfigService) EffectiveConfigs(ctx context.Context, deployment *types.Deployment, workload *types.Workload) ([]*types.Config, error) {
	byKey := make(map[string]*types.Config)
	var order []string

	apply := func(owningModel string) error {
		configs, err := s.store.ListConfigsByOwningModel(ctx, owningModel)
		if err != nil {
			return err
		}
		for _, c := range configs {
			if _, exists := byKey[c.Key]; !exists {
				byKey[c.Key] = c
				order = append(order, c.Key)
			}
		}
		return nil
	}

	if err := apply("deployment:" + deployment.ID); err != nil {
		return nil, err
	}
	if err := apply("workload:" + workload.ID); err != nil {
		return nil, err
	}
	if err := apply("team:" + workload.TeamID); err != nil {
		return nil, err
	}
	if err := apply("global"); err != nil {
		return nil, err
	}

	result := make([]*types.Config, len(order))
	for i, key := range order {
		result[i] = byKey[key]
	}
	return result, nil
}
