// Package log provides structured, zerolog-backed logging shared by the
// api, reconciler and gitops processes: a package-level Logger
// initialized once via Init, and WithComponent/WithConsumerID/
// WithOperationID helpers for attaching correlation fields.
package log
