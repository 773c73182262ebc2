package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/tetherlab/workbench/internal/errors"
)

func TestFileModel_LazyAndStable(t *testing.T) {
	m, _ := loadTestManager(t)

	m1, err := m.FileModel("index.ts")
	require.NoError(t, err)
	assert.Equal(t, "import './util';\nmain();", m1.Value())
	assert.Equal(t, "typescript", m1.Language())
	assert.Equal(t, "file:///index.ts", m1.URI())

	m2, err := m.FileModel("index.ts")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestFileModel_LanguageFromKind(t *testing.T) {
	m, _ := loadTestManager(t)

	html, err := m.FileModel("index.html")
	require.NoError(t, err)
	assert.Equal(t, "html", html.Language())

	md, err := m.FileModel("readme.md")
	require.NoError(t, err)
	assert.Equal(t, "markdown", md.Language())
}

func TestFileModel_UnknownFile(t *testing.T) {
	m, _ := loadTestManager(t)
	_, err := m.FileModel("missing.ts")
	assert.ErrorIs(t, err, werrors.ErrUnknownFile)
}

func TestFileModel_Unloaded(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.FileModel("index.ts")
	assert.ErrorIs(t, err, werrors.ErrNotLoaded)
}

func TestSetFileDirty(t *testing.T) {
	m, _ := loadTestManager(t)

	dirty, err := m.FileDirty("index.ts")
	require.NoError(t, err)
	assert.False(t, dirty)

	// Works before any buffer exists for the file.
	require.NoError(t, m.SetFileDirty("index.ts", false))
	dirty, err = m.FileDirty("index.ts")
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, m.SetFileDirty("index.ts", true))
	dirty, err = m.FileDirty("index.ts")
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestSetFileDirty_UnknownFile(t *testing.T) {
	m, _ := loadTestManager(t)
	err := m.SetFileDirty("missing.ts", false)
	assert.ErrorIs(t, err, werrors.ErrUnknownFile)

	_, err = m.FileDirty("missing.ts")
	assert.ErrorIs(t, err, werrors.ErrUnknownFile)
}

func TestGet_FlushesDirtyBuffers(t *testing.T) {
	m, _ := loadTestManager(t)

	mdl, err := m.FileModel("index.ts")
	require.NoError(t, err)
	mdl.SetValue("main(); // edited")
	require.NoError(t, m.SetFileDirty("index.ts", false))

	b := m.Get()
	require.NotNil(t, b)
	assert.Equal(t, "main(); // edited", b.Lookup("index.ts").Text)
}

func TestGet_FlushKeepsDirty(t *testing.T) {
	m, _ := loadTestManager(t)

	mdl, err := m.FileModel("readme.md")
	require.NoError(t, err)
	mdl.SetValue("edited")
	require.NoError(t, m.SetFileDirty("readme.md", false))

	_ = m.Get()

	// Dirty means "edited this session", not "has unflushed edits".
	dirty, err := m.FileDirty("readme.md")
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestGet_CleanBuffersAreNotFlushed(t *testing.T) {
	m, _ := loadTestManager(t)

	mdl, err := m.FileModel("util.ts")
	require.NoError(t, err)
	mdl.SetValue("edited without dirty flag")

	b := m.Get()
	require.NotNil(t, b)
	// Flush only moves buffers whose dirty flag was set by the editor.
	assert.Equal(t, "export function main() {}", b.Lookup("util.ts").Text)
}

func TestDirtyRoundTrip(t *testing.T) {
	m, _ := loadTestManager(t)

	require.NoError(t, m.SetFileDirty("index.ts", false))
	mdl, err := m.FileModel("index.ts")
	require.NoError(t, err)
	mdl.SetValue("const rewritten = true;")

	b := m.Get()
	require.NotNil(t, b)
	assert.Equal(t, "const rewritten = true;", b.Lookup("index.ts").Text)

	dirty, err := m.FileDirty("index.ts")
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestConfigureEnvironment(t *testing.T) {
	m, factory := loadTestManager(t)

	// The environment only becomes observable at session open.
	_, err := m.Emit(context.Background())
	require.NoError(t, err)

	env := factory.openedEnv
	require.NotNil(t, env)

	opts := env.Options()
	assert.Equal(t, true, opts["strict"])
	assert.Equal(t, "es5", opts["target"]) // forced override beats es2021
	assert.NotContains(t, opts, "outDir")  // not allow-listed

	libs := env.ExtraLibs()
	require.Len(t, libs, 5)
	// Environment files first: library kind under the empty path.
	assert.Equal(t, "", libs[0].Path)
	assert.Equal(t, "declare const GLOBAL: string;", libs[0].Text)
	assert.Equal(t, "file:///env/dom.d.ts", libs[1].Path)
	// Then compiled-kind project files in bundle order.
	assert.Equal(t, "file:///index.ts", libs[2].Path)
	assert.Equal(t, "file:///util.ts", libs[3].Path)
	assert.Equal(t, "file:///types.d.ts", libs[4].Path)
}
