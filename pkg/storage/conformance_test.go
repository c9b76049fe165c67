package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/types"
)

// runConformanceSuite exercises the contract every Store implementation
// must satisfy. Both TestMemStore_Conformance and TestSQLStore_Conformance
// run it against a fresh store.
func runConformanceSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("team upsert get list delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
		got, err := s.GetTeam(ctx, "team-1")
		require.NoError(t, err)
		require.Equal(t, "payments", got.Name)

		require.NoError(t, s.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments-renamed"}))
		got, err = s.GetTeam(ctx, "team-1")
		require.NoError(t, err)
		require.Equal(t, "payments-renamed", got.Name)

		list, err := s.ListTeams(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, s.DeleteTeam(ctx, "team-1"))
		_, err = s.GetTeam(ctx, "team-1")
		require.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("host labels round-trip sorted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "host-1", Labels: []string{"zone:b", "zone:a"}}))
		got, err := s.GetHost(ctx, "host-1")
		require.NoError(t, err)
		require.Equal(t, []string{"zone:a", "zone:b"}, got.Labels)
	})

	t.Run("hosts matching labels subset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "h1", Labels: []string{"zone:us", "disk:ssd"}}))
		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "h2", Labels: []string{"zone:us"}}))
		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "h3", Labels: []string{"zone:eu", "disk:ssd"}}))

		matched, err := s.ListHostsMatchingLabels(ctx, []string{"zone:us"})
		require.NoError(t, err)
		var ids []string
		for _, h := range matched {
			ids = append(ids, h.ID)
		}
		require.ElementsMatch(t, []string{"h1", "h2"}, ids)

		matched, err = s.ListHostsMatchingLabels(ctx, []string{"zone:us", "disk:ssd"})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		require.Equal(t, "h1", matched[0].ID)

		matched, err = s.ListHostsMatchingLabels(ctx, nil)
		require.NoError(t, err)
		require.Len(t, matched, 3)
	})

	t.Run("deleting a host cascades its assignments", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedDeploymentGraph(t, s)

		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "host-x"}))
		require.NoError(t, s.UpsertAssignment(ctx, &types.Assignment{ID: "a1", DeploymentID: "deploy-1", HostID: "host-x"}))

		require.NoError(t, s.DeleteHost(ctx, "host-x"))
		remaining, err := s.ListAssignmentsByHost(ctx, "host-x")
		require.NoError(t, err)
		require.Empty(t, remaining)
	})

	t.Run("deleting a deployment cascades its assignments", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedDeploymentGraph(t, s)

		require.NoError(t, s.UpsertHost(ctx, &types.Host{ID: "host-y"}))
		require.NoError(t, s.UpsertAssignment(ctx, &types.Assignment{ID: "a2", DeploymentID: "deploy-1", HostID: "host-y"}))

		require.NoError(t, s.DeleteDeployment(ctx, "deploy-1"))
		remaining, err := s.ListAssignmentsByDeployment(ctx, "deploy-1")
		require.NoError(t, err)
		require.Empty(t, remaining)
	})

	t.Run("relationship queries by target workload and template", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seedDeploymentGraph(t, s)

		byTarget, err := s.ListDeploymentsByTarget(ctx, "target-1")
		require.NoError(t, err)
		require.Len(t, byTarget, 1)

		byWorkload, err := s.ListDeploymentsByWorkload(ctx, "workload-1")
		require.NoError(t, err)
		require.Len(t, byWorkload, 1)

		byTemplate, err := s.ListDeploymentsByTemplate(ctx, "template-1")
		require.NoError(t, err)
		require.Len(t, byTemplate, 1)
	})

	t.Run("configs by owning model", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertConfig(ctx, &types.Config{ID: "c1", Key: "replicas", Value: "3", OwningModel: "deployment:deploy-1", ValueType: types.ValueTypeString}))
		require.NoError(t, s.UpsertConfig(ctx, &types.Config{ID: "c2", Key: "region", Value: "us-east", OwningModel: "team:team-1", ValueType: types.ValueTypeString}))

		got, err := s.ListConfigsByOwningModel(ctx, "deployment:deploy-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "replicas", got[0].Key)
	})

	t.Run("withinTransaction rolls back on error", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.WithinTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, s.UpsertTeam(ctx, &types.Team{ID: "rolled-back", Name: "x"}))
			return errs.New(errs.Internal, "forced failure")
		})
		require.Error(t, err)

		_, err = s.GetTeam(ctx, "rolled-back")
		require.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("withinTransaction commits on success", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.UpsertTeam(ctx, &types.Team{ID: "committed", Name: "x"})
		})
		require.NoError(t, err)

		got, err := s.GetTeam(ctx, "committed")
		require.NoError(t, err)
		require.Equal(t, "committed", got.ID)
	})
}

func seedDeploymentGraph(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertTemplate(ctx, &types.Template{ID: "template-1", Repository: "https://example.com/repo.git", GitRef: "main", Path: "manifests"}))
	require.NoError(t, s.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
	require.NoError(t, s.UpsertWorkload(ctx, &types.Workload{ID: "workload-1", Name: "api", TeamID: "team-1", TemplateID: "template-1"}))
	require.NoError(t, s.UpsertTarget(ctx, &types.Target{ID: "target-1", Labels: []string{"zone:us"}}))
	require.NoError(t, s.UpsertDeployment(ctx, &types.Deployment{
		ID: "deploy-1", Name: "api-prod", WorkloadID: "workload-1", TargetID: "target-1",
		TemplateID: "template-1", HostCount: 2,
	}))
}
