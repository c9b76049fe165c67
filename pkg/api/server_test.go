package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// newTestServer starts a plaintext (no TLS) instance of the api surface
// on an ephemeral loopback port, returning a client conn dialed with
// the same JSON codec the server speaks.
func newTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	deployments := services.NewDeploymentService(store, stream)
	assignments := services.NewAssignmentService(store, stream)

	deps := Deps{
		Teams:       services.NewTeamService(store, stream),
		Templates:   services.NewTemplateService(store, stream),
		Workloads:   services.NewWorkloadService(store, stream, deployments),
		Targets:     services.NewTargetService(store, stream),
		Hosts:       services.NewHostService(store, stream, assignments),
		Deployments: deployments,
		Assignments: assignments,
		Configs:     services.NewConfigService(store, stream),
	}

	srv, err := NewServer(deps, TLSFiles{})
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.grpc.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_TeamUpsertGetListDelete(t *testing.T) {
	conn := newTestServer(t)
	ctx := context.Background()

	upReq := &upsertRequest[TeamMessage]{Model: &TeamMessage{Name: "payments"}}
	upResp := new(upsertResponse[TeamMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TeamService/Upsert", upReq, upResp))
	require.NotEmpty(t, upResp.Model.ID)
	require.NotEmpty(t, upResp.OperationID)

	getResp := new(getResponse[TeamMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TeamService/Get", &getRequest{ID: upResp.Model.ID}, getResp))
	require.Equal(t, "payments", getResp.Model.Name)

	listResp := new(listResponse[TeamMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TeamService/List", &listRequest{}, listResp))
	require.Len(t, listResp.Models, 1)

	delResp := new(deleteResponse)
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TeamService/Delete", &deleteRequest{ID: upResp.Model.ID}, delResp))
	require.NotEmpty(t, delResp.OperationID)

	err := conn.Invoke(ctx, "/orchestrator.TeamService/Get", &getRequest{ID: upResp.Model.ID}, new(getResponse[TeamMessage]))
	require.Error(t, err)
}

func TestServer_DeploymentUpsertRejectsMissingWorkload(t *testing.T) {
	conn := newTestServer(t)
	ctx := context.Background()

	req := &upsertRequest[DeploymentMessage]{Model: &DeploymentMessage{
		Name: "api-prod", WorkloadID: "missing", TargetID: "missing", HostCount: 1,
	}}
	err := conn.Invoke(ctx, "/orchestrator.DeploymentService/Upsert", req, new(upsertResponse[DeploymentMessage]))
	require.Error(t, err)
}

func TestServer_AssignmentCreateAndListByDeployment(t *testing.T) {
	conn := newTestServer(t)
	ctx := context.Background()

	teamResp := new(upsertResponse[TeamMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TeamService/Upsert",
		&upsertRequest[TeamMessage]{Model: &TeamMessage{Name: "payments"}}, teamResp))

	tplResp := new(upsertResponse[TemplateMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TemplateService/Upsert",
		&upsertRequest[TemplateMessage]{Model: &TemplateMessage{Repository: "https://example.invalid/tpl.git", GitRef: "main"}}, tplResp))

	wlResp := new(upsertResponse[WorkloadMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.WorkloadService/Upsert",
		&upsertRequest[WorkloadMessage]{Model: &WorkloadMessage{Name: "api", TeamID: teamResp.Model.ID, TemplateID: tplResp.Model.ID}}, wlResp))

	targetResp := new(upsertResponse[TargetMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.TargetService/Upsert",
		&upsertRequest[TargetMessage]{Model: &TargetMessage{Labels: []string{"region:eastus2"}}}, targetResp))

	hostResp := new(upsertResponse[HostMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.HostService/Upsert",
		&upsertRequest[HostMessage]{Model: &HostMessage{Labels: []string{"region:eastus2"}}}, hostResp))

	deployResp := new(upsertResponse[DeploymentMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.DeploymentService/Upsert",
		&upsertRequest[DeploymentMessage]{Model: &DeploymentMessage{
			Name: "api-prod", WorkloadID: wlResp.Model.ID, TargetID: targetResp.Model.ID, HostCount: int(types.HostCountAll),
		}}, deployResp))

	createResp := new(upsertResponse[AssignmentMessage])
	createReq := &createAssignmentRequest{DeploymentID: deployResp.Model.ID, HostID: hostResp.Model.ID}
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.AssignmentService/Create", createReq, createResp))
	require.NotEmpty(t, createResp.OperationID)

	listResp := new(listResponse[AssignmentMessage])
	require.NoError(t, conn.Invoke(ctx, "/orchestrator.AssignmentService/List",
		&listRequest{Filter: deployResp.Model.ID}, listResp))
	require.Len(t, listResp.Models, 1)
	require.Equal(t, hostResp.Model.ID, listResp.Models[0].HostID)
}
