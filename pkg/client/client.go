package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/meridian/orchestrator/pkg/api"
)

const requestTimeout = 10 * time.Second

// Client is a connection to the orchestrator's gRPC api process.
type Client struct {
	conn *grpc.ClientConn
}

// Dial opens a connection to addr. A nil tlsConfig dials without
// transport security, for use against a plaintext listener (the one
// tests stand up, or an api process started without certificates); the
// CLI passes nil whenever no client certificate is configured.
func Dial(addr string, tlsConfig *tls.Config) (*Client, error) {
	var creds credentials.TransportCredentials
	if tlsConfig != nil {
		creds = credentials.NewTLS(tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(api.Codec())),
	)
	if err != nil {
		return nil, fmt.Errorf("dial api server at %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

const (
	teamService       = "orchestrator.TeamService"
	templateService   = "orchestrator.TemplateService"
	workloadService   = "orchestrator.WorkloadService"
	targetService     = "orchestrator.TargetService"
	hostService       = "orchestrator.HostService"
	deploymentService = "orchestrator.DeploymentService"
	assignmentService = "orchestrator.AssignmentService"
	configService     = "orchestrator.ConfigService"
)

func (c *Client) UpsertTeam(ctx context.Context, t *api.TeamMessage) (*api.TeamMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, teamService, t)
}

func (c *Client) GetTeam(ctx context.Context, id string) (*api.TeamMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.TeamMessage](ctx, c.conn, teamService, id)
}

func (c *Client) ListTeams(ctx context.Context) ([]*api.TeamMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.TeamMessage](ctx, c.conn, teamService, "")
}

func (c *Client) DeleteTeam(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, teamService, id)
}

func (c *Client) UpsertTemplate(ctx context.Context, t *api.TemplateMessage) (*api.TemplateMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, templateService, t)
}

func (c *Client) GetTemplate(ctx context.Context, id string) (*api.TemplateMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.TemplateMessage](ctx, c.conn, templateService, id)
}

func (c *Client) ListTemplates(ctx context.Context) ([]*api.TemplateMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.TemplateMessage](ctx, c.conn, templateService, "")
}

func (c *Client) DeleteTemplate(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, templateService, id)
}

func (c *Client) UpsertWorkload(ctx context.Context, w *api.WorkloadMessage) (*api.WorkloadMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, workloadService, w)
}

func (c *Client) GetWorkload(ctx context.Context, id string) (*api.WorkloadMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.WorkloadMessage](ctx, c.conn, workloadService, id)
}

func (c *Client) ListWorkloads(ctx context.Context) ([]*api.WorkloadMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.WorkloadMessage](ctx, c.conn, workloadService, "")
}

func (c *Client) ListWorkloadsByTeam(ctx context.Context, teamID string) ([]*api.WorkloadMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.WorkloadMessage](ctx, c.conn, workloadService, teamID)
}

func (c *Client) DeleteWorkload(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, workloadService, id)
}

func (c *Client) UpsertTarget(ctx context.Context, t *api.TargetMessage) (*api.TargetMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, targetService, t)
}

func (c *Client) GetTarget(ctx context.Context, id string) (*api.TargetMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.TargetMessage](ctx, c.conn, targetService, id)
}

func (c *Client) ListTargets(ctx context.Context) ([]*api.TargetMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.TargetMessage](ctx, c.conn, targetService, "")
}

func (c *Client) DeleteTarget(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, targetService, id)
}

func (c *Client) UpsertHost(ctx context.Context, h *api.HostMessage) (*api.HostMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, hostService, h)
}

func (c *Client) GetHost(ctx context.Context, id string) (*api.HostMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.HostMessage](ctx, c.conn, hostService, id)
}

func (c *Client) ListHosts(ctx context.Context) ([]*api.HostMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.HostMessage](ctx, c.conn, hostService, "")
}

func (c *Client) DeleteHost(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, hostService, id)
}

func (c *Client) UpsertDeployment(ctx context.Context, d *api.DeploymentMessage) (*api.DeploymentMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, deploymentService, d)
}

func (c *Client) GetDeployment(ctx context.Context, id string) (*api.DeploymentMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.DeploymentMessage](ctx, c.conn, deploymentService, id)
}

func (c *Client) ListDeployments(ctx context.Context) ([]*api.DeploymentMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.DeploymentMessage](ctx, c.conn, deploymentService, "")
}

func (c *Client) ListDeploymentsByWorkload(ctx context.Context, workloadID string) ([]*api.DeploymentMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.DeploymentMessage](ctx, c.conn, deploymentService, workloadID)
}

func (c *Client) DeleteDeployment(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, deploymentService, id)
}

func (c *Client) CreateAssignment(ctx context.Context, deploymentID, hostID string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	resp := new(upsertResponse[api.AssignmentMessage])
	req := &struct {
		DeploymentID string `json:"deployment_id"`
		HostID       string `json:"host_id"`
	}{DeploymentID: deploymentID, HostID: hostID}
	if err := c.conn.Invoke(ctx, method(assignmentService, "Create"), req, resp); err != nil {
		return "", err
	}
	return resp.OperationID, nil
}

func (c *Client) ListAssignments(ctx context.Context) ([]*api.AssignmentMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.AssignmentMessage](ctx, c.conn, assignmentService, "")
}

func (c *Client) ListAssignmentsByDeployment(ctx context.Context, deploymentID string) ([]*api.AssignmentMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.AssignmentMessage](ctx, c.conn, assignmentService, deploymentID)
}

func (c *Client) DeleteAssignment(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, assignmentService, id)
}

func (c *Client) UpsertConfig(ctx context.Context, cfg *api.ConfigMessage) (*api.ConfigMessage, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return upsert(ctx, c.conn, configService, cfg)
}

func (c *Client) GetConfig(ctx context.Context, id string) (*api.ConfigMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return get[api.ConfigMessage](ctx, c.conn, configService, id)
}

func (c *Client) ListConfigs(ctx context.Context) ([]*api.ConfigMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.ConfigMessage](ctx, c.conn, configService, "")
}

func (c *Client) ListConfigsByOwningModel(ctx context.Context, owningModel string) ([]*api.ConfigMessage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return list[api.ConfigMessage](ctx, c.conn, configService, owningModel)
}

func (c *Client) DeleteConfig(ctx context.Context, id string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return del(ctx, c.conn, configService, id)
}
