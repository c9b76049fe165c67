// Package types is the foundation of the orchestrator's data model: Team,
// Workload, Template, Target, Host, Deployment, Assignment, Config and
// Event. Every other package imports these rather than defining its own
// copies, so a change here is a change everywhere.
package types
