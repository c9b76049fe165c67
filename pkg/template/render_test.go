package template

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/errs"
)

func TestRenderBytes_SubstitutesFields(t *testing.T) {
	ns := NewNamespace("acme", "payments", "api", "api-prod", "host-1", 2)
	out, err := renderBytes([]byte("team={{team}} host={{host}} ordinal={{ordinal}}"), ns)
	require.NoError(t, err)
	require.Equal(t, "team=payments host=host-1 ordinal=2", string(out))
}

func TestRenderBytes_MissingVariableFails(t *testing.T) {
	ns := NewNamespace("acme", "payments", "api", "api-prod", "host-1", 0)
	_, err := renderBytes([]byte("image={{image}}"), ns)
	require.Equal(t, errs.InvalidArgument, errs.KindOf(err))
	require.Contains(t, err.Error(), "MissingVariable")
}

func TestRenderBytes_OptionalPlaceholderDefaultsEmpty(t *testing.T) {
	ns := NewNamespace("acme", "payments", "api", "api-prod", "host-1", 0)
	out, err := renderBytes([]byte("replicas={{replicas?}}"), ns)
	require.NoError(t, err)
	require.Equal(t, "replicas=", string(out))
}

func TestRenderBytes_EachIteratesKeyValueList(t *testing.T) {
	ns := NewNamespace("acme", "payments", "api", "api-prod", "host-1", 0)
	ns.Lists["extra_labels"] = []KeyValue{
		{Key: "zone", Value: "us-east"},
		{Key: "tier", Value: "gold"},
	}
	out, err := renderBytes([]byte("{{#each extra_labels}}{{key}}={{value}}\n{{/each}}"), ns)
	require.NoError(t, err)
	require.Equal(t, "zone=us-east\ntier=gold\n", string(out))
}

func TestRenderBytes_EachOnMissingListFails(t *testing.T) {
	ns := NewNamespace("acme", "payments", "api", "api-prod", "host-1", 0)
	_, err := renderBytes([]byte("{{#each extra_labels}}{{key}}{{/each}}"), ns)
	require.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestParseKeyValueList(t *testing.T) {
	got := parseKeyValueList("zone=us-east;tier=gold")
	require.Equal(t, []KeyValue{{Key: "zone", Value: "us-east"}, {Key: "tier", Value: "gold"}}, got)
}
