package workspace

import (
	"github.com/tetherlab/workbench/internal/bundle"
	"github.com/tetherlab/workbench/internal/compiler"
)

// configureEnvironment builds the compiler environment for a parsed bundle.
// It runs exactly once, during load, before the bundle becomes visible.
//
// Order matters and matches what the worker expects:
//  1. effective options: allow-listed bundle options plus forced overrides;
//  2. environment files as extra libs (library kind under an empty path,
//     everything else under its virtual path);
//  3. compiled-kind project files as extra libs, so cross-file type
//     information exists before the first emit request.
//
// The environment is an owned object; nothing process-global is touched, so
// construction cannot fail and a failed load leaves no residue behind.
func configureEnvironment(b *bundle.Bundle) *compiler.Environment {
	env := compiler.NewEnvironment()
	env.SetOptions(b.TSConfig.CompilerOptions)

	for _, f := range b.EnvironmentFiles {
		if f.Kind == bundle.KindLibrary {
			env.AddExtraLib(f.Text, "")
			continue
		}
		env.AddExtraLib(f.Text, fileURI(f.Name))
	}

	for _, f := range b.Files {
		if f.Kind.Compiled() {
			env.AddExtraLib(f.Text, fileURI(f.Name))
		}
	}

	return env
}
