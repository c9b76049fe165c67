package api

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meridian/orchestrator/pkg/errs"
)

// toStatusError maps an errs.Error's Kind onto the nearest gRPC status
// code so CLI callers get the kind back as part of the wire error
// (errs.Kind is carried as the status message prefix since the plain
// status.Status has no structured-detail slot without its own
// generated descriptor types).
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(codeFor(errs.KindOf(err)), err.Error())
}

func codeFor(kind errs.Kind) codes.Code {
	switch kind {
	case errs.InvalidArgument:
		return codes.InvalidArgument
	case errs.NotFound:
		return codes.NotFound
	case errs.Conflict:
		return codes.AlreadyExists
	case errs.Unavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
