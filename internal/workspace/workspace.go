// Package workspace implements the project lifecycle core: loading a bundle,
// configuring its compiler environment, tracking per-file buffers and dirty
// state, and producing build output through the type-checking worker.
package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tetherlab/workbench/internal/bundle"
	"github.com/tetherlab/workbench/internal/compiler"
	werrors "github.com/tetherlab/workbench/internal/errors"
	"github.com/tetherlab/workbench/internal/fetch"
	"github.com/tetherlab/workbench/internal/metrics"
	"github.com/tetherlab/workbench/internal/model"
	"github.com/tetherlab/workbench/internal/typecheck"
)

// loadState is the lifecycle flag. It moves to stateLoading synchronously,
// before the first suspension point, so overlapping loads fail fast instead
// of racing past the guard.
type loadState int

const (
	stateUnloaded loadState = iota
	stateLoading
	stateLoaded
)

// fileState is the side-table entry for one project file: the dirty flag and
// the lazily-created buffer handle. The table is keyed by file name within
// this workspace and owns nothing; discarding it never corrupts the bundle.
type fileState struct {
	dirty bool
	model *model.Model
}

// Manager owns one loaded workspace: the bundle, its compiler environment,
// and the per-file side table. A Manager loads at most once; reloading means
// a fresh Manager.
type Manager struct {
	fetcher fetch.Fetcher
	models  model.Service
	workers typecheck.Factory
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	state  loadState
	bundle *bundle.Bundle
	env    *compiler.Environment
	files  map[string]*fileState
}

// Option configures the Manager.
type Option func(*Manager)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager creates an unloaded workspace manager.
func NewManager(fetcher fetch.Fetcher, models model.Service, workers typecheck.Factory, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		fetcher: fetcher,
		models:  models,
		workers: workers,
		logger:  logger.With().Str("component", "workspace").Logger(),
		files:   make(map[string]*fileState),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load fetches, parses, and configures the bundle behind the locator. A
// second Load fails with ErrAlreadyLoaded, including while the first is still
// in flight. On any failure the manager rolls back to the unloaded state.
func (m *Manager) Load(ctx context.Context, locator string) error {
	m.mu.Lock()
	if m.state != stateUnloaded {
		m.mu.Unlock()
		return werrors.ErrAlreadyLoaded
	}
	m.state = stateLoading
	m.mu.Unlock()

	b, env, err := m.loadBundle(ctx, locator)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = stateUnloaded
		if m.metrics != nil {
			m.metrics.RecordLoad("error")
		}
		return err
	}

	m.bundle = b
	m.env = env
	m.state = stateLoaded
	if m.metrics != nil {
		m.metrics.RecordLoad("ok")
	}
	m.logger.Info().
		Str("locator", locator).
		Int("files", len(b.Files)).
		Int("environment_files", len(b.EnvironmentFiles)).
		Msg("workspace loaded")
	return nil
}

func (m *Manager) loadBundle(ctx context.Context, locator string) (*bundle.Bundle, *compiler.Environment, error) {
	data, err := m.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching bundle: %w", err)
	}

	b, err := bundle.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	env := configureEnvironment(b)
	return b, env, nil
}

// Loaded reports whether a workspace is loaded. Never fails.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateLoaded
}

// Get flushes all dirty buffers into the bundle's stored text and returns the
// bundle, or nil when nothing is loaded. An unloaded workspace is a normal,
// representable result here, not an error.
func (m *Manager) Get() *bundle.Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateLoaded {
		return nil
	}

	flushed := 0
	for _, f := range m.bundle.Files {
		st := m.files[f.Name]
		if st == nil || !st.dirty || st.model == nil {
			continue
		}
		f.Text = st.model.Value()
		flushed++
		// Dirty means "edited this session"; flushing does not clear it.
	}
	if flushed > 0 {
		if m.metrics != nil {
			m.metrics.RecordFlush(flushed)
		}
		m.logger.Debug().Int("flushed", flushed).Msg("dirty buffers flushed")
	}
	return m.bundle
}

// File returns the named project file. Unknown names on a loaded workspace
// yield (nil, nil); only the unloaded state is an error.
func (m *Manager) File(name string) (*bundle.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateLoaded {
		return nil, werrors.ErrNotLoaded
	}
	return m.bundle.Lookup(name), nil
}

// Files returns file names in bundle order, filtered to the given kinds when
// any are supplied.
func (m *Manager) Files(kinds ...bundle.Kind) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateLoaded {
		return nil, werrors.ErrNotLoaded
	}
	return m.bundle.Names(kinds...), nil
}

// Includes reports whether the workspace contains the named file. False, not
// an error, when unloaded.
func (m *Manager) Includes(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateLoaded {
		return false
	}
	return m.bundle.Lookup(name) != nil
}

// fileURI returns the virtual buffer path for a project file.
func fileURI(name string) string {
	return "file:///" + name
}
