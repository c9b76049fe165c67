package eventstream

import "testing"

func TestMemStream_Conformance(t *testing.T) {
	runConformanceSuite(t, func(t *testing.T) Stream {
		return NewMemStream()
	})
}
