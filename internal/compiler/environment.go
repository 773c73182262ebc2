// Package compiler models the shared type-checking context for a workspace:
// the effective compiler options and the extra libraries visible to the
// worker. The environment is an owned object handed to the worker factory at
// session open; configuring one workspace never touches another.
package compiler

import "sync"

// allowedOptions is the pass-through allow-list for bundle-declared compiler
// options. Everything else the bundle declares is ignored.
var allowedOptions = map[string]struct{}{
	"lib":                          {},
	"strict":                       {},
	"alwaysStrict":                 {},
	"strictNullChecks":             {},
	"strictFunctionTypes":          {},
	"strictPropertyInitialization": {},
	"noImplicitAny":                {},
	"noImplicitThis":               {},
	"noImplicitReturns":            {},
	"noUnusedLocals":               {},
	"noUnusedParameters":           {},
	"noFallthroughCasesInSwitch":   {},
	"typeRoots":                    {},
}

// forcedOptions are required for in-browser style operation and always win
// over bundle-declared values.
var forcedOptions = map[string]any{
	"allowNonTsExtensions": true,
	"target":               "es5",
	"module":               "umd",
	"moduleResolution":     "node",
}

// ExtraLib is a support file registered with the worker, addressed by a
// virtual path. Global ambient libraries use an empty path.
type ExtraLib struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Environment is the effective compiler context for one workspace.
type Environment struct {
	mu      sync.RWMutex
	options map[string]any
	libs    []ExtraLib
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{options: make(map[string]any)}
}

// SetOptions derives the effective options from bundle-declared ones: the
// allow-list passes through, then the forced overrides are applied on top.
func (e *Environment) SetOptions(declared map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options = make(map[string]any, len(declared)+len(forcedOptions))
	for name, v := range declared {
		if _, ok := allowedOptions[name]; ok {
			e.options[name] = v
		}
	}
	for name, v := range forcedOptions {
		e.options[name] = v
	}
}

// AddExtraLib registers a support file under a virtual path. Registration
// order is preserved.
func (e *Environment) AddExtraLib(text, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.libs = append(e.libs, ExtraLib{Path: path, Text: text})
}

// Options returns a copy of the effective compiler options.
func (e *Environment) Options() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.options))
	for k, v := range e.options {
		out[k] = v
	}
	return out
}

// ExtraLibs returns the registered libraries in registration order.
func (e *Environment) ExtraLibs() []ExtraLib {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ExtraLib, len(e.libs))
	copy(out, e.libs)
	return out
}
