package api

import (
	"context"

	"google.golang.org/grpc"
)

// Generic request/response envelopes shared by every model's
// Upsert/Get/List/Delete methods. The EXTERNAL INTERFACES message
// shapes (TemplateMessage, WorkloadMessage, ...) are the payload; these
// envelopes are this server's own plumbing and carry no wire-ordinal
// contract of their own.
type upsertRequest[M any] struct {
	Model *M `json:"model"`
}

type upsertResponse[M any] struct {
	Model       *M     `json:"model"`
	OperationID string `json:"operation_id"`
}

type getRequest struct {
	ID string `json:"id"`
}

type getResponse[M any] struct {
	Model *M `json:"model"`
}

// listRequest's Filter is interpreted per service: ConfigService reads
// it as an owning_model reference, WorkloadService as a team id,
// DeploymentService as a workload id, AssignmentService as a
// deployment id. Empty means "list everything".
type listRequest struct {
	Filter string `json:"filter,omitempty"`
}

type listResponse[M any] struct {
	Models []*M `json:"models"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type deleteResponse struct {
	OperationID string `json:"operation_id"`
}

// unaryMethod builds a grpc.MethodDesc around fn, decoding the request
// with the codec negotiated for the call and threading the server's
// configured interceptor chain the same way generated stubs do.
func unaryMethod[Req any](fullMethod, methodName string, fn func(ctx context.Context, req *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: methodName,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(ctx, req.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}
