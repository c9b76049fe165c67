package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLStore_Conformance(t *testing.T) {
	runConformanceSuite(t, func(t *testing.T) Store {
		dir := t.TempDir()
		s, err := OpenSQLite(filepath.Join(dir, "orchestrator.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
