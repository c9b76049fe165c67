// Package template renders a Deployment's manifest bundle from a
// Template's Git-backed source tree.
//
// Clone and checkout go through github.com/go-git/go-git/v5 (a pure-Go
// implementation, chosen over shelling out to the git binary or a cgo
// libgit2 binding), with one working copy cached per (repository, ref)
// and guarded by its own mutex so concurrent renders of the same ref
// never race the checkout.
//
// Placeholder substitution is a small hand-rolled {{var}} scanner
// rather than text/template: the variable namespace and the single
// key/value iteration construct this format needs are narrower than
// text/template's control-flow surface, which would silently accept
// syntax this renderer should reject.
package template
