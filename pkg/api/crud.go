package api

import (
	"context"

	"google.golang.org/grpc"
)

// crudSpec describes the Upsert/Get/List/Delete shape every model
// service but AssignmentService exposes. crudServiceDesc turns one into
// a *grpc.ServiceDesc so each model gets its own gRPC service without
// repeating the method-registration boilerplate seven times over.
type crudSpec[M any, T any] struct {
	serviceName string
	toMessage   func(*T) *M
	fromMessage func(*M) *T
	upsert      func(ctx context.Context, model *T) (string, error)
	get         func(ctx context.Context, id string) (*T, error)
	list        func(ctx context.Context, filter string) ([]*T, error)
	delete      func(ctx context.Context, id string) (string, error)
}

func crudServiceDesc[M any, T any](spec crudSpec[M, T]) *grpc.ServiceDesc {
	full := func(method string) string { return "/" + spec.serviceName + "/" + method }

	return &grpc.ServiceDesc{
		ServiceName: spec.serviceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod(full("Upsert"), "Upsert", func(ctx context.Context, req *upsertRequest[M]) (interface{}, error) {
				model := spec.fromMessage(req.Model)
				opID, err := spec.upsert(ctx, model)
				if err != nil {
					return nil, toStatusError(err)
				}
				return &upsertResponse[M]{Model: spec.toMessage(model), OperationID: opID}, nil
			}),
			unaryMethod(full("Get"), "Get", func(ctx context.Context, req *getRequest) (interface{}, error) {
				model, err := spec.get(ctx, req.ID)
				if err != nil {
					return nil, toStatusError(err)
				}
				return &getResponse[M]{Model: spec.toMessage(model)}, nil
			}),
			unaryMethod(full("List"), "List", func(ctx context.Context, req *listRequest) (interface{}, error) {
				models, err := spec.list(ctx, req.Filter)
				if err != nil {
					return nil, toStatusError(err)
				}
				out := make([]*M, len(models))
				for i, m := range models {
					out[i] = spec.toMessage(m)
				}
				return &listResponse[M]{Models: out}, nil
			}),
			unaryMethod(full("Delete"), "Delete", func(ctx context.Context, req *deleteRequest) (interface{}, error) {
				opID, err := spec.delete(ctx, req.ID)
				if err != nil {
					return nil, toStatusError(err)
				}
				return &deleteResponse{OperationID: opID}, nil
			}),
		},
	}
}
