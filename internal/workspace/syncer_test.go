package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/vcsync/internal/vcs"
)

// fakeAdapter is a canned vcs.Adapter for syncer tests.
type fakeAdapter struct {
	kind    vcs.Kind
	present bool
	ok      bool
	version string

	mu        sync.Mutex
	updates   int
	checkouts int
}

func (f *fakeAdapter) Kind() vcs.Kind       { return f.kind }
func (f *fakeAdapter) DetectPresence() bool { return f.present }

func (f *fakeAdapter) Checkout(_ context.Context, _, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts++
	return f.ok
}

func (f *fakeAdapter) Update(_ context.Context, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return f.ok
}

func (f *fakeAdapter) Version(_ context.Context, _ string) string { return f.version }
func (f *fakeAdapter) URL(_ context.Context) string               { return "" }
func (f *fakeAdapter) Diff(_ context.Context, _ string) string    { return "" }
func (f *fakeAdapter) Status(_ context.Context, _ string, _ bool) string {
	return ""
}

// registryWith builds a registry whose git factory hands out adapters from
// the byPath map.
func registryWith(byPath map[string]*fakeAdapter) *vcs.Registry {
	reg := vcs.NewRegistry()
	reg.Register(vcs.KindGit, func(_ context.Context, path string, _ vcs.Deps) (vcs.Adapter, error) {
		a, ok := byPath[path]
		if !ok {
			return nil, errors.New("no fake for " + path)
		}
		return a, nil
	})
	return reg
}

func depsFor(vcs.Kind) vcs.Deps { return vcs.Deps{} }

func TestSync(t *testing.T) {
	manifest := &Manifest{Repos: []Entry{
		{Path: "a", Kind: vcs.KindGit, URL: "https://example.com/a.git"},
		{Path: "b", Kind: vcs.KindGit, URL: "https://example.com/b.git"},
	}}

	t.Run("updates present, checks out missing", func(t *testing.T) {
		existing := &fakeAdapter{kind: vcs.KindGit, present: true, ok: true, version: "aaa111"}
		missing := &fakeAdapter{kind: vcs.KindGit, present: false, ok: true, version: "bbb222"}
		reg := registryWith(map[string]*fakeAdapter{
			"/ws/a": existing,
			"/ws/b": missing,
		})

		syncer := NewSyncer("/ws", reg, depsFor, 2, zerolog.Nop())
		report, err := syncer.Sync(context.Background(), manifest)
		require.NoError(t, err)
		require.True(t, report.OK())
		require.Len(t, report.Results, 2)

		assert.Equal(t, "update", report.Results[0].Action)
		assert.Equal(t, "aaa111", report.Results[0].Version)
		assert.Equal(t, "checkout", report.Results[1].Action)
		assert.Equal(t, "bbb222", report.Results[1].Version)

		assert.Equal(t, 1, existing.updates)
		assert.Zero(t, existing.checkouts)
		assert.Equal(t, 1, missing.checkouts)
	})

	t.Run("one failure does not stop the batch", func(t *testing.T) {
		good := &fakeAdapter{kind: vcs.KindGit, present: true, ok: true, version: "aaa111"}
		bad := &fakeAdapter{kind: vcs.KindGit, present: true, ok: false}
		reg := registryWith(map[string]*fakeAdapter{
			"/ws/a": bad,
			"/ws/b": good,
		})

		syncer := NewSyncer("/ws", reg, depsFor, 2, zerolog.Nop())
		report, err := syncer.Sync(context.Background(), manifest)
		require.NoError(t, err)

		assert.False(t, report.OK())
		require.Len(t, report.Failed(), 1)
		assert.Equal(t, "a", report.Failed()[0].Path)
		assert.Equal(t, 1, good.updates, "failure of one entry must not skip others")
	})

	t.Run("construction failure is reported per entry", func(t *testing.T) {
		reg := vcs.NewRegistry() // git never registered
		syncer := NewSyncer("/ws", reg, depsFor, 2, zerolog.Nop())

		report, err := syncer.Sync(context.Background(), manifest)
		require.NoError(t, err)
		assert.False(t, report.OK())
		for _, res := range report.Results {
			assert.Error(t, res.Err)
		}
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reg := registryWith(map[string]*fakeAdapter{})
		syncer := NewSyncer("/ws", reg, depsFor, 2, zerolog.Nop())

		_, err := syncer.Sync(ctx, manifest)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("results are sorted by path", func(t *testing.T) {
		many := &Manifest{Repos: []Entry{
			{Path: "z", Kind: vcs.KindGit, URL: "u"},
			{Path: "a", Kind: vcs.KindGit, URL: "u"},
			{Path: "m", Kind: vcs.KindGit, URL: "u"},
		}}
		reg := registryWith(map[string]*fakeAdapter{
			"/ws/z": {kind: vcs.KindGit, present: true, ok: true},
			"/ws/a": {kind: vcs.KindGit, present: true, ok: true},
			"/ws/m": {kind: vcs.KindGit, present: true, ok: true},
		})

		syncer := NewSyncer("/ws", reg, depsFor, 3, zerolog.Nop())
		report, err := syncer.Sync(context.Background(), many)
		require.NoError(t, err)

		paths := make([]string, 0, len(report.Results))
		for _, res := range report.Results {
			paths = append(paths, res.Path)
		}
		assert.Equal(t, []string{"a", "m", "z"}, paths)
	})
}

func TestNewSyncerDefaults(t *testing.T) {
	syncer := NewSyncer("/ws", vcs.NewRegistry(), depsFor, 0, zerolog.Nop())
	assert.Equal(t, DefaultJobs, syncer.jobs)
}
