package template

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/metrics"
	"github.com/meridian/orchestrator/pkg/services"
	"github.com/meridian/orchestrator/pkg/types"
)

// RenderedFile is one file of a rendered Deployment bundle.
type RenderedFile struct {
	RelativePath string
	Bytes        []byte
}

// RenderContext is the Deployment placement a bundle is rendered for:
// one Deployment assigned to one Host, at a given replica ordinal.
type RenderContext struct {
	Organization string
	Team         string
	Workload     string
	Deployment   string
	Host         string
	Ordinal      int
}

// Renderer produces a Deployment's manifest bundle from its Template's
// Git source tree and effective Config.
type Renderer struct {
	cache   *cloneCache
	configs *services.ConfigService
}

// New returns a Renderer that caches working copies under baseDir.
func New(baseDir string, configs *services.ConfigService) *Renderer {
	return &Renderer{cache: newCloneCache(baseDir), configs: configs}
}

// Render clones or updates tpl's source tree, resolves the variable
// namespace for rc plus deployment's effective Config, and renders
// every file under tpl.Path.
func (r *Renderer) Render(ctx context.Context, tpl *types.Template, deployment *types.Deployment, workload *types.Workload, rc RenderContext) ([]RenderedFile, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RenderDuration)

	ns, err := r.namespace(ctx, deployment, workload, rc)
	if err != nil {
		metrics.RenderFailuresTotal.WithLabelValues(string(errs.KindOf(err))).Inc()
		return nil, err
	}

	root, err := r.cache.checkout(ctx, tpl.Repository, tpl.GitRef)
	if err != nil {
		metrics.RenderFailuresTotal.WithLabelValues(string(errs.KindOf(err))).Inc()
		return nil, err
	}

	sourceDir := filepath.Join(root, tpl.Path)
	files, err := r.renderTree(sourceDir, ns)
	if err != nil {
		metrics.RenderFailuresTotal.WithLabelValues(string(errs.KindOf(err))).Inc()
		return nil, err
	}
	return files, nil
}

func (r *Renderer) namespace(ctx context.Context, deployment *types.Deployment, workload *types.Workload, rc RenderContext) (Namespace, error) {
	ns := NewNamespace(rc.Organization, rc.Team, rc.Workload, rc.Deployment, rc.Host, rc.Ordinal)

	configs, err := r.configs.EffectiveConfigs(ctx, deployment, workload)
	if err != nil {
		return Namespace{}, err
	}
	for _, c := range configs {
		switch c.ValueType {
		case types.ValueTypeKeyValueList:
			ns.Lists[c.Key] = parseKeyValueList(c.Value)
		default:
			ns.Fields[c.Key] = c.Value
		}
	}
	return ns, nil
}

// parseKeyValueList decodes a Config's raw Value into the ordered
// key/value pairs an {{#each}} block iterates over. Entries are
// separated by ";", each pair by "=". Order follows the string as
// written; the renderer makes no further ordering guarantee across
// merged Configs.
func parseKeyValueList(raw string) []KeyValue {
	var out []KeyValue
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		k, v, _ := strings.Cut(entry, "=")
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out
}

func (r *Renderer) renderTree(sourceDir string, ns Namespace) ([]RenderedFile, error) {
	var files []RenderedFile
	err := filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrap(errs.Internal, "read template source file", err)
		}
		rendered, err := renderBytes(raw, ns)
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return errs.Wrap(errs.Internal, "compute relative template path", err)
		}
		files = append(files, RenderedFile{RelativePath: filepath.ToSlash(relPath), Bytes: rendered})
		return nil
	})
	if err != nil {
		if _, ok := err.(*errs.Error); ok {
			return nil, err
		}
		return nil, errs.Wrap(errs.Internal, "walk template source tree", err)
	}
	return files, nil
}
