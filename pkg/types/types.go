// Package types defines the domain model shared by every component: the
// persistence layer, the model services, the reconciler, the template
// renderer and the GitOps writer all exchange these structs rather than
// redefining their own.
package types

import "time"

// HostCountAll is the sentinel value of Deployment.HostCount meaning
// "every Host currently matching the Target".
const HostCountAll = -1

// Team is a namespace that owns Workloads.
type Team struct {
	ID   string
	Name string
}

// Workload is a deployable application identity, independent of where it runs.
type Workload struct {
	ID         string
	Name       string
	TeamID     string
	TemplateID string
}

// Template is a parameterized manifest bundle held in Git.
type Template struct {
	ID         string
	Repository string
	GitRef     string
	Path       string
}

// Target is a set-subset label matcher that selects Hosts.
type Target struct {
	ID     string
	Labels []string // "key:value" pairs
}

// Host is a machine or cluster that eventually applies rendered manifests.
type Host struct {
	ID     string
	Labels []string // "key:value" pairs
}

// Deployment binds one Workload to one Target with a replica count.
// TemplateID overrides the Workload's default template when non-empty.
// HostCount is either a non-negative replica count or HostCountAll.
type Deployment struct {
	ID         string
	Name       string
	WorkloadID string
	TargetID   string
	TemplateID string
	HostCount  int
}

// Assignment is a derived record: Deployment D is placed on Host H.
// Only the reconciler writes Assignments.
type Assignment struct {
	ID           string
	DeploymentID string
	HostID       string
}

// ValueType enumerates the shapes a Config value can take.
type ValueType string

const (
	ValueTypeString        ValueType = "string"
	ValueTypeKeyValue      ValueType = "keyvalue"
	ValueTypeKeyValueList  ValueType = "keyvaluelist"
)

// Config is a key/value scoped to a model, inherited along
// Deployment -> Workload -> Team -> Global.
type Config struct {
	ID          string
	Key         string
	Value       string
	OwningModel string // "kind:id", e.g. "deployment:42"
	ValueType   ValueType
}

// EventType is the kind of change an Event records.
type EventType string

const (
	EventCreated EventType = "Created"
	EventUpdated EventType = "Updated"
	EventDeleted EventType = "Deleted"
)

// ModelType names the entity kind an Event describes.
type ModelType string

const (
	ModelAssignment ModelType = "Assignment"
	ModelDeployment ModelType = "Deployment"
	ModelHost       ModelType = "Host"
	ModelTarget     ModelType = "Target"
	ModelTemplate   ModelType = "Template"
	ModelWorkload   ModelType = "Workload"
	ModelWorkspace  ModelType = "Workspace"
	ModelConfig     ModelType = "Config"
)

// Event is one entry in the durable event stream. For EventCreated,
// Previous is empty; for EventDeleted, Current is empty; for
// EventUpdated both are populated.
type Event struct {
	ID                     string
	Timestamp              time.Time
	OperationID            string
	EventType              EventType
	ModelType              ModelType
	SerializedPreviousModel string
	SerializedCurrentModel  string
}
