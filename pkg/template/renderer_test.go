package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/meridian/orchestrator/pkg/eventstream"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/storage"
	"github.com/meridian/orchestrator/pkg/types"
)

// newLocalTemplateRepo builds a throwaway git repository on disk with
// one commit on master, so Renderer.Render can clone it without network
// access. Returns the repository path suitable as a Template.Repository.
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

func TestRenderer_RendersFilesFromGitSource(t *testing.T) {
	repoPath := newLocalTemplateRepo(t, map[string]string{
		"manifests/deployment.yaml": "name: {{deployment}}\nhost: {{host}}\nimage: {{image}}\n",
	})

	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	configs := services.NewConfigService(store, stream)
	_, err := configs.Upsert(context.Background(), &types.Config{
		Key: "image", Value: "acme/api:1", OwningModel: "deployment:d1", ValueType: types.ValueTypeString,
	})
	require.NoError(t, err)

	renderer := New(t.TempDir(), configs)
	deployment := &types.Deployment{ID: "d1", Name: "api-prod", WorkloadID: "w1"}
	workload := &types.Workload{ID: "w1", Name: "api", TeamID: "team-1"}
	tpl := &types.Template{ID: "tpl-1", Repository: repoPath, GitRef: "master", Path: "manifests"}

	files, err := renderer.Render(context.Background(), tpl, deployment, workload, RenderContext{
		Organization: "acme",
		Team:         "payments",
		Workload:     "api",
		Deployment:   "api-prod",
		Host:         "host-1",
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "deployment.yaml", files[0].RelativePath)
	require.Equal(t, "name: api-prod\nhost: host-1\nimage: acme/api:1\n", string(files[0].Bytes))
}

func TestRenderer_CachesWorkingCopyAcrossRenders(t *testing.T) {
	repoPath := newLocalTemplateRepo(t, map[string]string{
		"manifests/deployment.yaml": "host={{host}}\n",
	})

	store := storage.NewMemStore()
	stream := eventstream.NewMemStream()
	configs := services.NewConfigService(store, stream)

	renderer := New(t.TempDir(), configs)
	deployment := &types.Deployment{ID: "d1", WorkloadID: "w1"}
	workload := &types.Workload{ID: "w1", TeamID: "team-1"}
	tpl := &types.Template{ID: "tpl-1", Repository: repoPath, GitRef: "master", Path: "manifests"}

	_, err := renderer.Render(context.Background(), tpl, deployment, workload, RenderContext{Host: "host-1"})
	require.NoError(t, err)

	require.Len(t, renderer.cache.entries, 1)

	_, err = renderer.Render(context.Background(), tpl, deployment, workload, RenderContext{Host: "host-2"})
	require.NoError(t, err)
	require.Len(t, renderer.cache.entries, 1, "second render reuses the cached clone for the same (repo, ref)")
}
