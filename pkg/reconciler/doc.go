// Package reconciler derives Assignments from Targets x Hosts x
// Deployments. It consumes the event stream as a distinct consumer_id,
// reacting to Host, Target and Deployment changes by recomputing the
// desired assignment set and diffing it against the current one,
// issuing writes through services.AssignmentService.
//
// Structurally grounded on the teacher's ticker-driven pkg/reconciler
// loop, generalized from a 10s poll ticker into an event-stream-consumer
// loop with the poll backoff of the concurrency design (100ms when a
// batch was non-empty, growing to 5s when idle), and from two
// hardcoded entity kinds into the generic Host/Target/Deployment
// fan-out this package implements.
package reconciler
