package reconciler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/types"
)

func TestDesiredHostSet_All(t *testing.T) {
	eligible := []string{"h3", "h1", "h2"}
	got := desiredHostSet(eligible, nil, types.HostCountAll, types.HostCountAll)
	require.Equal(t, []string{"h1", "h2", "h3"}, got)
}

func TestDesiredHostSet_TopUpFromEmpty(t *testing.T) {
	eligible := []string{"h3", "h1", "h2"}
	got := desiredHostSet(eligible, nil, 2, types.HostCountAll)
	require.Equal(t, []string{"h1", "h2"}, got)
}

func TestDesiredHostSet_StableTieBreak(t *testing.T) {
	eligible := []string{"h1", "h2", "h3", "h4"}
	current := []string{"h3", "h2"}
	got := desiredHostSet(eligible, current, 2, types.HostCountAll)
	require.Equal(t, []string{"h2", "h3"}, got, "already-assigned hosts stay assigned when still eligible")
}

func TestDesiredHostSet_Grow(t *testing.T) {
	eligible := []string{"h1", "h2", "h3", "h4"}
	current := []string{"h2"}
	got := desiredHostSet(eligible, current, 3, types.HostCountAll)
	require.Equal(t, []string{"h1", "h2", "h3"}, got)
}

func TestDesiredHostSet_Shrink(t *testing.T) {
	eligible := []string{"h1", "h2", "h3", "h4"}
	current := []string{"h4", "h2", "h1"}
	got := desiredHostSet(eligible, current, 1, types.HostCountAll)
	require.Equal(t, []string{"h1"}, got)
}

func TestDesiredHostSet_CurrentNoLongerEligibleIsDropped(t *testing.T) {
	eligible := []string{"h1", "h2"}
	current := []string{"h9"}
	got := desiredHostSet(eligible, current, 1, types.HostCountAll)
	require.Equal(t, []string{"h1"}, got)
}

func TestDesiredHostSet_FewerEligibleThanRequested(t *testing.T) {
	eligible := []string{"h1"}
	got := desiredHostSet(eligible, nil, 5, types.HostCountAll)
	require.Equal(t, []string{"h1"}, got)
}
