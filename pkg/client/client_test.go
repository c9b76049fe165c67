package client

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/api"
	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	deployments := services.NewDeploymentService(store, stream)
	assignments := services.NewAssignmentService(store, stream)

	deps := api.Deps{
		Teams:       services.NewTeamService(store, stream),
		Templates:   services.NewTemplateService(store, stream),
		Workloads:   services.NewWorkloadService(store, stream, deployments),
		Targets:     services.NewTargetService(store, stream),
		Hosts:       services.NewHostService(store, stream, assignments),
		Deployments: deployments,
		Assignments: assignments,
		Configs:     services.NewConfigService(store, stream),
	}

	srv, err := api.NewServer(deps, api.TLSFiles{})
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	c, err := Dial(lis.Addr().String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_TeamRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, opID, err := c.UpsertTeam(ctx, &api.TeamMessage{Name: "payments"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, opID)

	fetched, err := c.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "payments", fetched.Name)

	teams, err := c.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	_, err = c.DeleteTeam(ctx, created.ID)
	require.NoError(t, err)

	_, err = c.GetTeam(ctx, created.ID)
	require.Error(t, err)
}

func TestClient_DeploymentAndAssignmentLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	team, _, err := c.UpsertTeam(ctx, &api.TeamMessage{Name: "payments"})
	require.NoError(t, err)

	tpl, _, err := c.UpsertTemplate(ctx, &api.TemplateMessage{Repository: "https://example.invalid/tpl.git", GitRef: "main"})
	require.NoError(t, err)

	workload, _, err := c.UpsertWorkload(ctx, &api.WorkloadMessage{Name: "api", TeamID: team.ID, TemplateID: tpl.ID})
	require.NoError(t, err)

	target, _, err := c.UpsertTarget(ctx, &api.TargetMessage{Labels: []string{"region:eastus2"}})
	require.NoError(t, err)

	host, _, err := c.UpsertHost(ctx, &api.HostMessage{Labels: []string{"region:eastus2"}})
	require.NoError(t, err)

	deployment, _, err := c.UpsertDeployment(ctx, &api.DeploymentMessage{
		Name: "api-prod", WorkloadID: workload.ID, TargetID: target.ID, HostCount: -1,
	})
	require.NoError(t, err)

	opID, err := c.CreateAssignment(ctx, deployment.ID, host.ID)
	require.NoError(t, err)
	require.NotEmpty(t, opID)

	assignments, err := c.ListAssignmentsByDeployment(ctx, deployment.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, host.ID, assignments[0].HostID)
}
