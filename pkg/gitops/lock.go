package gitops

import (
	"os"

	"github.com/meridian/orchestrator/pkg/errs"
)

// fileLock is a process-wide advisory lock on the GitOps working tree,
// realized as an exclusively-created lock file since no cross-platform
// flock(2) wrapper is part of this module's dependency set. It only
// protects against a second instance of this same process accidentally
// opening the same tree, not against external Git clients.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

func (l *fileLock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errs.New(errs.Conflict, "gitops working tree is locked by another process")
		}
		return errs.Wrap(errs.Internal, "create gitops lock file", err)
	}
	l.file = f
	return nil
}

func (l *fileLock) Release() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return errs.Wrap(errs.Internal, "close gitops lock file", err)
	}
	return os.Remove(l.path)
}
