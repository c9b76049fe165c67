package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// These envelopes mirror the shape pkg/api's service handlers decode,
// field for field, but are defined independently here: the JSON codec
// only cares that the tags line up, not that the Go types are shared
// across the client/server package boundary.
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

func upsert[M any](ctx context.Context, conn *grpc.ClientConn, service string, model *M) (*M, string, error) {
	resp := new(upsertResponse[M])
	if err := conn.Invoke(ctx, method(service, "Upsert"), &upsertRequest[M]{Model: model}, resp); err != nil {
		return nil, "", err
	}
	return resp.Model, resp.OperationID, nil
}

func get[M any](ctx context.Context, conn *grpc.ClientConn, service, id string) (*M, error) {
	resp := new(getResponse[M])
	if err := conn.Invoke(ctx, method(service, "Get"), &getRequest{ID: id}, resp); err != nil {
		return nil, err
	}
	return resp.Model, nil
}

func list[M any](ctx context.Context, conn *grpc.ClientConn, service, filter string) ([]*M, error) {
	resp := new(listResponse[M])
	if err := conn.Invoke(ctx, method(service, "List"), &listRequest{Filter: filter}, resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func del(ctx context.Context, conn *grpc.ClientConn, service, id string) (string, error) {
	resp := new(deleteResponse)
	if err := conn.Invoke(ctx, method(service, "Delete"), &deleteRequest{ID: id}, resp); err != nil {
		return "", err
	}
	return resp.OperationID, nil
}

func method(service, name string) string {
	return fmt.Sprintf("/%s/%s", service, name)
}
