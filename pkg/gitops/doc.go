// Package gitops converges a Git working tree toward the rendered
// Assignments on file. It consumes the event stream under its own
// consumer_id, reacting to Assignment, Deployment, Template, Config and
// Workload changes, and stages, commits and pushes one batch per poll
// using github.com/go-git/go-git/v5 — the same pure-Go client the
// template renderer uses for clone/checkout.
//
// The working tree is guarded by a process-wide advisory lock file, in
// the manner the teacher guards its single-writer BoltDB file, since
// this process is meant to be the tree's sole writer.
package gitops
