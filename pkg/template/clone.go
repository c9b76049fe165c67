package template

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/meridian/orchestrator/pkg/errs"
	"github.com/meridian/orchestrator/pkg/metrics"
)

// cloneCacheCap bounds the number of distinct (repository, ref) working
// copies kept on disk; the least recently used is evicted to make room.
const cloneCacheCap = 32

type cloneKey struct {
	repository string
	ref        string
}

type cachedClone struct {
	path      string
	fetchedAt time.Time
}

// cloneCache maintains one local working copy per (repository, ref),
// guarded by a per-key mutex so concurrent renders of the same ref
// never race the checkout.
type cloneCache struct {
	baseDir string

	mu      sync.Mutex
	entries map[cloneKey]*cachedClone
	locks   map[cloneKey]*sync.Mutex
	lru     []cloneKey
}

func newCloneCache(baseDir string) *cloneCache {
	return &cloneCache{
		baseDir: baseDir,
		entries: make(map[cloneKey]*cachedClone),
		locks:   make(map[cloneKey]*sync.Mutex),
	}
}

func (c *cloneCache) lockFor(key cloneKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// checkout returns the local working-copy path for repository@ref,
// fetching into the cached clone if one exists or cloning fresh
// otherwise.
func (c *cloneCache) checkout(ctx context.Context, repository, ref string) (string, error) {
	key := cloneKey{repository: repository, ref: ref}
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TemplateCloneDuration)

	c.mu.Lock()
	existing, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		if err := fetchAndCheckout(ctx, existing.path, ref); err == nil {
			existing.fetchedAt = time.Now()
			c.touch(key)
			return existing.path, nil
		}
		os.RemoveAll(existing.path)
		c.forget(key)
	}

	path := filepath.Join(c.baseDir, cloneDirName(repository, ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errs.Wrap(errs.Internal, "create template cache directory", err)
	}
	if _, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{URL: repository}); err != nil {
		return "", errs.Wrap(errs.Unavailable, "clone template repository", err)
	}
	if err := checkoutRef(path, ref); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = &cachedClone{path: path, fetchedAt: time.Now()}
	c.mu.Unlock()
	c.touch(key)
	c.evictIfNeeded()

	return path, nil
}

func fetchAndCheckout(ctx context.Context, path, ref string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return err
	}
	if err := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Force: true}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return checkoutRef(path, ref)
}

func checkoutRef(path, ref string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return errs.Wrap(errs.Internal, "open template clone", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errs.Wrap(errs.Internal, "open template worktree", err)
	}
	hash, err := resolveRef(repo, ref)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "git_ref does not resolve", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return errs.Wrap(errs.Internal, "checkout git_ref", err)
	}
	return nil
}

func resolveRef(repo *git.Repository, ref string) (*plumbing.Hash, error) {
	candidates := []plumbing.Revision{
		plumbing.Revision(ref),
		plumbing.Revision("origin/" + ref),
		plumbing.Revision("refs/tags/" + ref),
	}
	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(candidate)
		if err == nil {
			return hash, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *cloneCache) touch(key cloneKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			break
		}
	}
	c.lru = append(c.lru, key)
}

func (c *cloneCache) forget(key cloneKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	for i, k := range c.lru {
		if k == key {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			break
		}
	}
}

func (c *cloneCache) evictIfNeeded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.lru) > cloneCacheCap {
		oldest := c.lru[0]
		c.lru = c.lru[1:]
		if entry, ok := c.entries[oldest]; ok {
			os.RemoveAll(entry.path)
			delete(c.entries, oldest)
		}
		delete(c.locks, oldest)
	}
}

func cloneDirName(repository, ref string) string {
	sum := sha1.Sum([]byte(repository + "@" + ref))
	return hex.EncodeToString(sum[:])
}
