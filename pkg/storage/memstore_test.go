package storage

import "testing"

func TestMemStore_Conformance(t *testing.T) {
	runConformanceSuite(t, func(t *testing.T) Store {
		return NewMemStore()
	})
}
