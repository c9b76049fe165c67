// Package services holds one service per entity (Team, Template,
// Workload, Target, Host, Deployment, Assignment, Config). Each service
// is the only writer of its table: every mutation validates referential
// integrity, then in one storage.Store.WithinTransaction call writes
// the entity and appends the corresponding eventstream.Event, returning
// the event's operation_id.
package services
