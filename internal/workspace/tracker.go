package workspace

import (
	"github.com/tetherlab/workbench/internal/bundle"
	werrors "github.com/tetherlab/workbench/internal/errors"
	"github.com/tetherlab/workbench/internal/model"
)

// fileStateLocked resolves or creates the side-table entry for a file.
// Caller holds m.mu.
func (m *Manager) fileStateLocked(name string) (*fileState, *bundle.File, error) {
	if m.state != stateLoaded {
		return nil, nil, werrors.ErrNotLoaded
	}
	f := m.bundle.Lookup(name)
	if f == nil {
		return nil, nil, werrors.ErrUnknownFile
	}
	st := m.files[name]
	if st == nil {
		st = &fileState{}
		m.files[name] = st
	}
	return st, f, nil
}

// FileModel returns the editable buffer for a file, creating it on first
// access seeded with the file's current text. The handle is stable: repeated
// calls return the identical model.
func (m *Manager) FileModel(name string) (*model.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, f, err := m.fileStateLocked(name)
	if err != nil {
		return nil, err
	}
	if st.model == nil {
		st.model = m.models.Create(f.Text, f.Kind.Language(), fileURI(f.Name))
	}
	return st.model, nil
}

// FileDirty reports the dirty flag for a file.
func (m *Manager) FileDirty(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, _, err := m.fileStateLocked(name)
	if err != nil {
		return false, err
	}
	return st.dirty, nil
}

// SetFileDirty marks a file dirty, or clears the flag when reset is true.
// Safe to call before any buffer exists for the file.
func (m *Manager) SetFileDirty(name string, reset bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, _, err := m.fileStateLocked(name)
	if err != nil {
		return err
	}
	st.dirty = !reset
	return nil
}
