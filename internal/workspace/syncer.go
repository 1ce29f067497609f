package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/vcsync/internal/ctxutil"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// DefaultJobs is the parallelism used when the caller does not set one.
const DefaultJobs = 4

// RepoResult is the outcome of synchronizing one manifest entry.
type RepoResult struct {
	// Path is the entry path relative to the workspace root.
	Path string
	// Action is what the syncer did: "checkout", "update", or "skip".
	Action string
	// OK reports whether the action succeeded.
	OK bool
	// Version is the resulting identifier when the action succeeded.
	Version string
	// Err carries a construction error; operation failures are reported by
	// OK=false with diagnostics already logged by the adapter.
	Err error
}

// Report aggregates per-repository outcomes. Individual failures never stop
// the batch; callers inspect the report afterwards.
type Report struct {
	Results []RepoResult
}

// Failed returns the results that did not succeed.
func (r *Report) Failed() []RepoResult {
	var failed []RepoResult
	for _, res := range r.Results {
		if !res.OK {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK reports whether every repository synchronized successfully.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Syncer drives checkout/update across a manifest. Each repository gets its
// own adapter instance; nothing is shared between the workers.
type Syncer struct {
	root     string
	registry *vcs.Registry
	depsFor  func(vcs.Kind) vcs.Deps
	jobs     int
	logger   zerolog.Logger
}

// NewSyncer creates a Syncer rooted at root. depsFor supplies the adapter
// dependencies per backend kind (tool overrides differ by kind).
// jobs <= 0 selects DefaultJobs.
func NewSyncer(root string, registry *vcs.Registry, depsFor func(vcs.Kind) vcs.Deps, jobs int, logger zerolog.Logger) *Syncer {
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	return &Syncer{
		root:     root,
		registry: registry,
		depsFor:  depsFor,
		jobs:     jobs,
		logger:   logger,
	}
}

// Sync brings every manifest entry to its requested state: existing working
// copies are updated, missing ones checked out. Entries run in parallel,
// bounded by the job limit. The returned report lists every entry in
// manifest order; the error is non-nil only for context cancellation.
func (s *Syncer) Sync(ctx context.Context, m *Manifest) (*Report, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	report := &Report{Results: make([]RepoResult, len(m.Repos))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs)

	for i, entry := range m.Repos {
		g.Go(func() error {
			res := s.syncOne(ctx, entry)
			mu.Lock()
			report.Results[i] = res
			mu.Unlock()
			// Per-repository failures are reported, not propagated: batch
			// callers proceed past them.
			return ctxutil.Canceled(ctx)
		})
	}

	err := g.Wait()
	sortByPath(report.Results)
	return report, err
}

// syncOne synchronizes a single entry with its own adapter instance.
func (s *Syncer) syncOne(ctx context.Context, entry Entry) RepoResult {
	path := filepath.Join(s.root, entry.Path)
	res := RepoResult{Path: entry.Path}

	adapter, err := s.registry.New(ctx, entry.Kind, path, s.depsFor(entry.Kind))
	if err != nil {
		res.Err = fmt.Errorf("constructing %s adapter: %w", entry.Kind, err)
		s.logger.Error().Err(err).Str("path", entry.Path).Msg("adapter construction failed")
		return res
	}

	if adapter.DetectPresence() {
		res.Action = "update"
		res.OK = adapter.Update(ctx, entry.Ref)
	} else {
		res.Action = "checkout"
		res.OK = adapter.Checkout(ctx, entry.URL, entry.Ref)
	}

	if res.OK {
		res.Version = adapter.Version(ctx, "")
		s.logger.Info().
			Str("path", entry.Path).
			Str("action", res.Action).
			Str("version", res.Version).
			Msg("repository synchronized")
	}
	return res
}

// sortByPath keeps the report stable regardless of completion order.
func sortByPath(results []RepoResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
}
