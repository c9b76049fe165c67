package gitops

import (
	"os"
	"path/filepath"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/template"
)

// bundlePath is where a (host, deployment) bundle's rendered files
// live inside the working tree: <host_id>/<team_id>/<workload_id>/<deployment_id>/...
//
// Path segments use ids rather than human names so a deletion can be
// located and removed without looking up ancestors that may themselves
// already be gone from persistence by the time the event is processed.
func bundlePath(root, hostID, teamID, workloadID, deploymentID string) string {
	return filepath.Join(root, hostID, teamID, workloadID, deploymentID)
}

// writeBundle replaces the contents of destDir with files, so a render
// that drops a file removes it from the tree too.
func writeBundle(destDir string, files []template.RenderedFile) error {
	if err := os.RemoveAll(destDir); err != nil {
		return errs.Wrap(errs.Internal, "clear stale bundle directory", err)
	}
	for _, f := range files {
		full := filepath.Join(destDir, f.RelativePath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errs.Wrap(errs.Internal, "create bundle directory", err)
		}
		if err := os.WriteFile(full, f.Bytes, 0o644); err != nil {
			return errs.Wrap(errs.Internal, "write rendered file", err)
		}
	}
	return nil
}

// removeDeploymentSubtrees deletes every bundle directory for
// deploymentID regardless of which host or team/workload it sits
// under, used when the deployment (or its workload) no longer exists
// to resolve those ancestors by id.
func removeDeploymentSubtrees(root, deploymentID string) error {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", "*", deploymentID))
	if err != nil {
		return errs.Wrap(errs.Internal, "glob deployment subtrees", err)
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			return errs.Wrap(errs.Internal, "remove deployment subtree", err)
		}
	}
	return nil
}

// removeHostDeploymentSubtree deletes the single bundle directory for
// (hostID, deploymentID), used on Assignment deletion.
func removeHostDeploymentSubtree(root, hostID, deploymentID string) error {
	matches, err := filepath.Glob(filepath.Join(root, hostID, "*", "*", deploymentID))
	if err != nil {
		return errs.Wrap(errs.Internal, "glob host deployment subtree", err)
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			return errs.Wrap(errs.Internal, "remove host deployment subtree", err)
		}
	}
	return nil
}
