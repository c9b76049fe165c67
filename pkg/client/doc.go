// Package client is a thin wrapper over the orchestrator's gRPC surface,
// in the manner of the teacher's pkg/client/client.go: one named method
// per RPC, each opening a short-lived context and returning the wire
// message types straight off the call. It dials with the same JSON
// codec the server speaks (pkg/api.Codec) since no generated protobuf
// stubs exist for this build.
package client
