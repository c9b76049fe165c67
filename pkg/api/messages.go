package api

import (
	"time"

	"github.com/meridian/orchestrator/pkg/types"
)

// TeamMessage mirrors types.Team on the wire. The EXTERNAL INTERFACES
// section of the design only enumerates the other seven message
// shapes, but a Team service exists alongside them for symmetry since
// every other entity references a Team transitively.
type TeamMessage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func teamToMessage(t *types.Team) *TeamMessage {
	if t == nil {
		return nil
	}
	return &TeamMessage{ID: t.ID, Name: t.Name}
}

func teamFromMessage(m *TeamMessage) *types.Team {
	if m == nil {
		return &types.Team{}
	}
	return &types.Team{ID: m.ID, Name: m.Name}
}

// TemplateMessage{id, repository, git_ref, path}
type TemplateMessage struct {
	ID         string `json:"id"`
	Repository string `json:"repository"`
	GitRef     string `json:"git_ref"`
	Path       string `json:"path"`
}

func templateToMessage(t *types.Template) *TemplateMessage {
	if t == nil {
		return nil
	}
	return &TemplateMessage{ID: t.ID, Repository: t.Repository, GitRef: t.GitRef, Path: t.Path}
}

func templateFromMessage(m *TemplateMessage) *types.Template {
	if m == nil {
		return &types.Template{}
	}
	return &types.Template{ID: m.ID, Repository: m.Repository, GitRef: m.GitRef, Path: m.Path}
}

// WorkloadMessage{id, name, team_id, template_id}
type WorkloadMessage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TeamID     string `json:"team_id"`
	TemplateID string `json:"template_id"`
}

func workloadToMessage(w *types.Workload) *WorkloadMessage {
	if w == nil {
		return nil
	}
	return &WorkloadMessage{ID: w.ID, Name: w.Name, TeamID: w.TeamID, TemplateID: w.TemplateID}
}

func workloadFromMessage(m *WorkloadMessage) *types.Workload {
	if m == nil {
		return &types.Workload{}
	}
	return &types.Workload{ID: m.ID, Name: m.Name, TeamID: m.TeamID, TemplateID: m.TemplateID}
}

// TargetMessage{id, labels[]}
type TargetMessage struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels"`
}

func targetToMessage(t *types.Target) *TargetMessage {
	if t == nil {
		return nil
	}
	return &TargetMessage{ID: t.ID, Labels: t.Labels}
}

func targetFromMessage(m *TargetMessage) *types.Target {
	if m == nil {
		return &types.Target{}
	}
	return &types.Target{ID: m.ID, Labels: m.Labels}
}

// HostMessage{id, labels[]}
type HostMessage struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels"`
}

func hostToMessage(h *types.Host) *HostMessage {
	if h == nil {
		return nil
	}
	return &HostMessage{ID: h.ID, Labels: h.Labels}
}

func hostFromMessage(m *HostMessage) *types.Host {
	if m == nil {
		return &types.Host{}
	}
	return &types.Host{ID: m.ID, Labels: m.Labels}
}

// DeploymentMessage{id, name, target_id, workload_id, host_count, template_id?}
type DeploymentMessage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TargetID   string `json:"target_id"`
	WorkloadID string `json:"workload_id"`
	HostCount  int    `json:"host_count"`
	TemplateID string `json:"template_id,omitempty"`
}

func deploymentToMessage(d *types.Deployment) *DeploymentMessage {
	if d == nil {
		return nil
	}
	return &DeploymentMessage{
		ID: d.ID, Name: d.Name, TargetID: d.TargetID, WorkloadID: d.WorkloadID,
		HostCount: d.HostCount, TemplateID: d.TemplateID,
	}
}

func deploymentFromMessage(m *DeploymentMessage) *types.Deployment {
	if m == nil {
		return &types.Deployment{}
	}
	return &types.Deployment{
		ID: m.ID, Name: m.Name, TargetID: m.TargetID, WorkloadID: m.WorkloadID,
		HostCount: m.HostCount, TemplateID: m.TemplateID,
	}
}

// AssignmentMessage{id, host_id, deployment_id}
type AssignmentMessage struct {
	ID           string `json:"id"`
	HostID       string `json:"host_id"`
	DeploymentID string `json:"deployment_id"`
}

func assignmentToMessage(a *types.Assignment) *AssignmentMessage {
	if a == nil {
		return nil
	}
	return &AssignmentMessage{ID: a.ID, HostID: a.HostID, DeploymentID: a.DeploymentID}
}

// ConfigMessage{id, key, value, owning_model, value_type}
type ConfigMessage struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	OwningModel string `json:"owning_model"`
	ValueType   string `json:"value_type"`
}

func configToMessage(c *types.Config) *ConfigMessage {
	if c == nil {
		return nil
	}
	return &ConfigMessage{ID: c.ID, Key: c.Key, Value: c.Value, OwningModel: c.OwningModel, ValueType: string(c.ValueType)}
}

func configFromMessage(m *ConfigMessage) *types.Config {
	if m == nil {
		return &types.Config{}
	}
	return &types.Config{ID: m.ID, Key: m.Key, Value: m.Value, OwningModel: m.OwningModel, ValueType: types.ValueType(m.ValueType)}
}

// EventMessage{id, timestamp, operation_id, event_type, model_type, serialized_previous_model?, serialized_current_model?}
type EventMessage struct {
	ID                      string    `json:"id"`
	Timestamp               time.Time `json:"timestamp"`
	OperationID             string    `json:"operation_id"`
	EventType               string    `json:"event_type"`
	ModelType               string    `json:"model_type"`
	SerializedPreviousModel string    `json:"serialized_previous_model,omitempty"`
	SerializedCurrentModel  string    `json:"serialized_current_model,omitempty"`
}

func eventToMessage(e *types.Event) *EventMessage {
	if e == nil {
		return nil
	}
	return &EventMessage{
		ID: e.ID, Timestamp: e.Timestamp, OperationID: e.OperationID,
		EventType: string(e.EventType), ModelType: string(e.ModelType),
		SerializedPreviousModel: e.SerializedPreviousModel,
		SerializedCurrentModel:  e.SerializedCurrentModel,
	}
}
