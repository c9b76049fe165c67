package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/types"
)

func teamServiceDesc(s *services.TeamService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[TeamMessage, types.Team]{
		serviceName: "orchestrator.TeamService",
		toMessage:   teamToMessage,
		fromMessage: teamFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list:        func(ctx context.Context, _ string) ([]*types.Team, error) { return s.List(ctx) },
		delete:      s.Delete,
	})
}

func templateServiceDesc(s *services.TemplateService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[TemplateMessage, types.Template]{
		serviceName: "orchestrator.TemplateService",
		toMessage:   templateToMessage,
		fromMessage: templateFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list:        func(ctx context.Context, _ string) ([]*types.Template, error) { return s.List(ctx) },
		delete:      s.Delete,
	})
}

func workloadServiceDesc(s *services.WorkloadService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[WorkloadMessage, types.Workload]{
		serviceName: "orchestrator.WorkloadService",
		toMessage:   workloadToMessage,
		fromMessage: workloadFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list: func(ctx context.Context, filter string) ([]*types.Workload, error) {
			if filter != "" {
				return s.ListByTeam(ctx, filter)
			}
			return s.List(ctx)
		},
		delete: s.Delete,
	})
}

func targetServiceDesc(s *services.TargetService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[TargetMessage, types.Target]{
		serviceName: "orchestrator.TargetService",
		toMessage:   targetToMessage,
		fromMessage: targetFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list:        func(ctx context.Context, _ string) ([]*types.Target, error) { return s.List(ctx) },
		delete:      s.Delete,
	})
}

func hostServiceDesc(s *services.HostService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[HostMessage, types.Host]{
		serviceName: "orchestrator.HostService",
		toMessage:   hostToMessage,
		fromMessage: hostFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list:        func(ctx context.Context, _ string) ([]*types.Host, error) { return s.List(ctx) },
		delete:      s.Delete,
	})
}

func deploymentServiceDesc(s *services.DeploymentService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[DeploymentMessage, types.Deployment]{
		serviceName: "orchestrator.DeploymentService",
		toMessage:   deploymentToMessage,
		fromMessage: deploymentFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list: func(ctx context.Context, filter string) ([]*types.Deployment, error) {
			if filter != "" {
				return s.ListByWorkload(ctx, filter)
			}
			return s.List(ctx)
		},
		delete: s.Delete,
	})
}

func configServiceDesc(s *services.ConfigService) *grpc.ServiceDesc {
	return crudServiceDesc(crudSpec[ConfigMessage, types.Config]{
		serviceName: "orchestrator.ConfigService",
		toMessage:   configToMessage,
		fromMessage: configFromMessage,
		upsert:      s.Upsert,
		get:         s.GetByID,
		list: func(ctx context.Context, filter string) ([]*types.Config, error) {
			if filter != "" {
				return s.ListByOwningModel(ctx, filter)
			}
			return s.List(ctx)
		},
		delete: s.Delete,
	})
}

// createAssignmentRequest carries the two foreign keys an Assignment is
// derived from; Assignment has no Upsert (it is written only by the
// reconciler's diff, never edited in place) so its service exposes
// Create instead.
type createAssignmentRequest struct {
	DeploymentID string `json:"deployment_id"`
	HostID       string `json:"host_id"`
}

func assignmentServiceDesc(s *services.AssignmentService) *grpc.ServiceDesc {
	const name = "orchestrator.AssignmentService"
	full := func(method string) string { return "/" + name + "/" + method }

	return &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod(full("Create"), "Create", func(ctx context.Context, req *createAssignmentRequest) (interface{}, error) {
				opID, err := s.Create(ctx, req.DeploymentID, req.HostID)
				if err != nil {
					return nil, toStatusError(err)
				}
				return &upsertResponse[AssignmentMessage]{OperationID: opID}, nil
			}),
			unaryMethod(full("List"), "List", func(ctx context.Context, req *listRequest) (interface{}, error) {
				var (
					assignments []*types.Assignment
					err         error
				)
				if req.Filter != "" {
					assignments, err = s.ListByDeployment(ctx, req.Filter)
				} else {
					assignments, err = s.List(ctx)
				}
				if err != nil {
					return nil, toStatusError(err)
				}
				out := make([]*AssignmentMessage, len(assignments))
				for i, a := range assignments {
					out[i] = assignmentToMessage(a)
				}
				return &listResponse[AssignmentMessage]{Models: out}, nil
			}),
			unaryMethod(full("Delete"), "Delete", func(ctx context.Context, req *deleteRequest) (interface{}, error) {
				opID, err := s.Delete(ctx, req.ID)
				if err != nil {
					return nil, toStatusError(err)
				}
				return &deleteResponse{OperationID: opID}, nil
			}),
		},
	}
}
