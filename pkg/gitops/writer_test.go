package gitops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/template"
	"github.com/meridian/orchestrator/pkg/types"
)

// newLocalTemplateRepo builds a throwaway git repository on disk to
// stand in for a Template's source tree, so the renderer can clone it
// without network access.
func newLocalTemplateRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for relPath, content := range files {
		full := filepath.Join(dir, relPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(relPath)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)
	return dir
}

// newBareRemote creates an empty bare repository standing in for the
// GitOps upstream, its HEAD on the branch the writer pushes.
func newBareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		Bare:        true,
		InitOptions: git.InitOptions{DefaultBranch: plumbing.ReferenceName("refs/heads/" + branchName)},
	})
	require.NoError(t, err)
	return dir
}

// newWorkingTree creates a non-bare local clone of remotePath with an
// initial empty commit on "main" and "origin" pointed at remotePath,
// so pushes in the test need no network access.
func newWorkingTree(t *testing.T, remotePath string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.ReferenceName("refs/heads/" + branchName)},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remotePath}})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitkeep"), []byte(""), 0o644))
	_, err = wt.Add(".gitkeep")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Push(&git.PushOptions{RemoteName: "origin"}))
	return dir
}

type testHarness struct {
	store     storage.Store
	stream    eventstream.Stream
	deploy    *services.DeploymentService
	configs   *services.ConfigService
	writer    *Writer
	repoPath  string
	remoteDir string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	deploy := services.NewDeploymentService(store, stream)
	configs := services.NewConfigService(store, stream)
	renderer := template.New(t.TempDir(), configs)

	remote := newBareRemote(t)
	repoPath := newWorkingTree(t, remote)

	writer, err := Open(repoPath, "acme", Deps{
		Store:       store,
		Stream:      stream,
		Renderer:    renderer,
		Deployments: deploy,
	})
	require.NoError(t, err)

	return &testHarness{
		store: store, stream: stream, deploy: deploy, configs: configs,
		writer: writer, repoPath: repoPath, remoteDir: remote,
	}
}

func seedDeploymentGraph(t *testing.T, h *testHarness, templateRepoPath string) (*types.Deployment, *types.Workload) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.UpsertTeam(ctx, &types.Team{ID: "team-1", Name: "payments"}))
	require.NoError(t, h.store.UpsertTemplate(ctx, &types.Template{ID: "tpl-1", Repository: templateRepoPath, GitRef: "master", Path: "manifests"}))
	require.NoError(t, h.store.UpsertWorkload(ctx, &types.Workload{ID: "w1", Name: "api", TeamID: "team-1", TemplateID: "tpl-1"}))
	require.NoError(t, h.store.UpsertTarget(ctx, &types.Target{ID: "t1"}))

	d := &types.Deployment{ID: "d1", Name: "api-prod", WorkloadID: "w1", TargetID: "t1", HostCount: 1}
	_, err := h.deploy.Upsert(ctx, d)
	require.NoError(t, err)
	w, err := h.store.GetWorkload(ctx, "w1")
	require.NoError(t, err)
	return d, w
}

func TestWriter_AssignmentCreatedRendersAndPushes(t *testing.T) {
	templateRepo := newLocalTemplateRepo(t, map[string]string{
		"manifests/deployment.yaml": "name: {{deployment}}\nhost: {{host}}\n",
	})

	h := newHarness(t)
	seedDeploymentGraph(t, h, templateRepo)

	event := &types.Event{
		ID:                     "evt-1",
		OperationID:            "op-12345678",
		EventType:              types.EventCreated,
		ModelType:              types.ModelAssignment,
		SerializedCurrentModel: `{"ID":"a1","DeploymentID":"d1","HostID":"host-1"}`,
	}

	err := h.writer.processBatch(context.Background(), []*types.Event{event})
	require.NoError(t, err)

	bundle := bundlePath(h.repoPath, "host-1", "team-1", "w1", "d1")
	contents, err := os.ReadFile(filepath.Join(bundle, "deployment.yaml"))
	require.NoError(t, err)
	require.Equal(t, "name: api-prod\nhost: host-1\n", string(contents))

	repo, err := git.PlainOpen(h.remoteDir)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	require.Contains(t, commit.Message, "reconcile: op-12345")
}

func TestWriter_AssignmentDeletedRemovesSubtree(t *testing.T) {
	templateRepo := newLocalTemplateRepo(t, map[string]string{
		"manifests/deployment.yaml": "host: {{host}}\n",
	})
	h := newHarness(t)
	seedDeploymentGraph(t, h, templateRepo)

	created := &types.Event{
		ID: "evt-1", OperationID: "op-1", EventType: types.EventCreated, ModelType: types.ModelAssignment,
		SerializedCurrentModel: `{"ID":"a1","DeploymentID":"d1","HostID":"host-1"}`,
	}
	require.NoError(t, h.writer.processBatch(context.Background(), []*types.Event{created}))

	bundle := bundlePath(h.repoPath, "host-1", "team-1", "w1", "d1")
	_, err := os.Stat(bundle)
	require.NoError(t, err)

	deleted := &types.Event{
		ID: "evt-2", OperationID: "op-2", EventType: types.EventDeleted, ModelType: types.ModelAssignment,
		SerializedPreviousModel: `{"ID":"a1","DeploymentID":"d1","HostID":"host-1"}`,
	}
	require.NoError(t, h.writer.processBatch(context.Background(), []*types.Event{deleted}))

	_, err = os.Stat(bundle)
	require.True(t, os.IsNotExist(err))
}
