// Package metrics defines the Prometheus metric families shared by the
// api, reconciler and gitops processes, plus the HTTP health and
// readiness handlers they expose alongside /metrics.
package metrics
