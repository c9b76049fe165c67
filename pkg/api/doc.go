// Package api hosts the gRPC surface: one service per model with the
// Upsert/Get/List/Delete operations each model service exposes, served
// over mTLS in the manner of the teacher's pkg/api/server.go TLS setup.
//
// No .proto toolchain runs as part of this build, so the wire messages
// below are plain Go structs carried by a JSON encoding.Codec registered
// with google.golang.org/grpc rather than generated protobuf types. The
// gRPC method contract (service name, method name, streaming vs unary)
// is unaffected by the choice of codec; only the wire encoding differs.
package api
