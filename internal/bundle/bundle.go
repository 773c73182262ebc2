// Package bundle defines the project bundle data model: the editable files,
// the read-only environment files, and the declared compiler configuration.
package bundle

import (
	"encoding/json"
	"fmt"

	werrors "github.com/tetherlab/workbench/internal/errors"
)

// File is a single project member. Identity (Name, Kind) is immutable for the
// lifetime of a loaded workspace; Text is the last-synchronized snapshot and
// is updated only by a buffer flush.
type File struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Kind Kind   `json:"type"`
}

// TSConfig carries the bundle's declared compiler configuration.
type TSConfig struct {
	CompilerOptions map[string]any `json:"compilerOptions,omitempty"`
}

// Bundle is the full loaded unit. Files order is the canonical enumeration
// order for every name-filtered query.
type Bundle struct {
	Files            []*File  `json:"files"`
	EnvironmentFiles []*File  `json:"environmentFiles"`
	TSConfig         TSConfig `json:"tsconfig"`
}

// EmitFile is one unit of build output. It relates to a project file by name
// only.
type EmitFile struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Parse decodes bundle bytes and validates the unique-name invariant across
// project files.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrMalformedBundle, err)
	}

	seen := make(map[string]struct{}, len(b.Files))
	for _, f := range b.Files {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: file with empty name", werrors.ErrMalformedBundle)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate file name %q", werrors.ErrMalformedBundle, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &b, nil
}

// Lookup returns the project file with the given name, or nil.
func (b *Bundle) Lookup(name string) *File {
	for _, f := range b.Files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Names returns file names in bundle order, filtered to the given kinds when
// any are supplied.
func (b *Bundle) Names(kinds ...Kind) []string {
	names := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		if len(kinds) == 0 || containsKind(kinds, f.Kind) {
			names = append(names, f.Name)
		}
	}
	return names
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}
