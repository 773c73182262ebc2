// Package typecheck is the boundary to the external type-checking worker.
// The workspace never analyzes source itself; it opens a session scoped to
// the compiled-file buffers and treats the worker's emit output as opaque
// text.
package typecheck

import (
	"context"

	"github.com/tetherlab/workbench/internal/compiler"
)

// OutputFile is one file produced by a worker emit.
type OutputFile struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// EmitResult is the worker's answer for a single buffer. A skipped emit
// (blocking diagnostics) carries no outputs and is not an error.
type EmitResult struct {
	Skipped bool         `json:"emitSkipped"`
	Outputs []OutputFile `json:"outputFiles"`
}

// Buffer is one editable buffer snapshot shipped to the worker at session
// open. The URI is the buffer identifier for subsequent emit requests.
type Buffer struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

// Session is a worker handle scoped to a fixed set of buffers. One session
// covers all compiled files so cross-file references resolve.
type Session interface {
	// EmitOutput requests compiled output for a single buffer URI.
	EmitOutput(ctx context.Context, uri string) (*EmitResult, error)
	// Close releases the session.
	Close() error
}

// Factory opens worker sessions. The compiler environment travels with the
// open call; nothing process-global is configured.
type Factory interface {
	Open(ctx context.Context, env *compiler.Environment, buffers []Buffer) (Session, error)
}
