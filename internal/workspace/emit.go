package workspace

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tetherlab/workbench/internal/bundle"
	werrors "github.com/tetherlab/workbench/internal/errors"
	"github.com/tetherlab/workbench/internal/typecheck"
)

// Emit compiles all compiled-kind files through the worker and merges the
// results with pass-through content from the remaining files. Output order is
// deterministic: compiled outputs in bundle order, then pass-through files in
// bundle order, regardless of worker completion order.
func (m *Manager) Emit(ctx context.Context) ([]bundle.EmitFile, error) {
	m.mu.Lock()
	if m.state != stateLoaded {
		m.mu.Unlock()
		return nil, werrors.ErrNotLoaded
	}
	b := m.bundle
	env := m.env
	m.mu.Unlock()

	started := time.Now()

	var compiled, passthrough []*bundle.File
	for _, f := range b.Files {
		if f.Kind.Compiled() {
			compiled = append(compiled, f)
		} else {
			passthrough = append(passthrough, f)
		}
	}

	// Emit reads live buffer content, not the flushed snapshot, so unsaved
	// edits build. Buffers are created on demand for files never opened.
	buffers := make([]typecheck.Buffer, len(compiled))
	for i, f := range compiled {
		mdl, err := m.FileModel(f.Name)
		if err != nil {
			return nil, err
		}
		buffers[i] = typecheck.Buffer{URI: mdl.URI(), Text: mdl.Value()}
	}

	// One slot per compiled file keeps output in request order across the
	// fan-out; skipped emits leave their slot nil and vanish silently.
	results := make([][]typecheck.OutputFile, len(compiled))
	if len(compiled) > 0 {
		sess, err := m.workers.Open(ctx, env, buffers)
		if err != nil {
			if m.metrics != nil {
				m.metrics.RecordWorkerError()
			}
			return nil, err
		}
		defer sess.Close()

		g, gctx := errgroup.WithContext(ctx)
		for i := range compiled {
			i := i
			g.Go(func() error {
				res, err := sess.EmitOutput(gctx, buffers[i].URI)
				if err != nil {
					return err
				}
				if res.Skipped {
					m.logger.Debug().Str("uri", buffers[i].URI).Msg("emit skipped")
					return nil
				}
				results[i] = res.Outputs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if m.metrics != nil {
				m.metrics.RecordWorkerError()
			}
			return nil, err
		}
	}

	out := make([]bundle.EmitFile, 0, len(compiled)+len(passthrough))
	for _, outputs := range results {
		for _, of := range outputs {
			out = append(out, bundle.EmitFile{Name: stripScheme(of.Name), Text: of.Text})
		}
	}
	compiledCount := len(out)

	for _, f := range passthrough {
		mdl, err := m.FileModel(f.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, bundle.EmitFile{Name: collapseDotSegments(f.Name), Text: mdl.Value()})
	}

	if m.metrics != nil {
		m.metrics.RecordEmit(time.Since(started).Seconds(), compiledCount, len(passthrough))
	}
	m.logger.Info().
		Int("compiled", compiledCount).
		Int("passthrough", len(passthrough)).
		Dur("took", time.Since(started)).
		Msg("emit complete")
	return out, nil
}

// stripScheme flattens a worker output path to a plain relative path.
func stripScheme(name string) string {
	name = strings.TrimPrefix(name, "file:///")
	name = strings.TrimPrefix(name, "file://")
	return collapseDotSegments(name)
}

// collapseDotSegments removes redundant "/./" segments and a leading "./".
func collapseDotSegments(name string) string {
	name = strings.ReplaceAll(name, "/./", "/")
	return strings.TrimPrefix(name, "./")
}
