package eventstream

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/storage"
)

func TestSQLStream_Conformance(t *testing.T) {
	runConformanceSuite(t, func(t *testing.T) Stream {
		dir := t.TempDir()
		store, err := storage.OpenSQLite(filepath.Join(dir, "orchestrator.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return NewSQLStream(store.DB())
	})
}
