// Package model provides the editable buffer collaborator: in-memory text
// models addressed by a virtual URI. The workspace creates one model per
// project file on first access; the editing surface mutates models out of
// band and reports dirtiness back to the workspace.
package model

import "sync"

// Model is a single editable text buffer. The handle is stable for the
// lifetime of its service; buffer identity is the URI.
type Model struct {
	mu       sync.RWMutex
	uri      string
	language string
	value    string
	version  int
}

// URI returns the model's virtual path.
func (m *Model) URI() string { return m.uri }

// Language returns the model's display mode.
func (m *Model) Language() string { return m.language }

// Value returns the current buffer content.
func (m *Model) Value() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// Version returns the edit counter, starting at 1.
func (m *Model) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// SetValue replaces the buffer content and bumps the version.
func (m *Model) SetValue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = text
	m.version++
}

// Service creates and resolves models.
type Service interface {
	// Create returns the model for uri, creating it seeded with text when it
	// does not exist yet. Creating an existing URI returns the existing model
	// untouched.
	Create(text, language, uri string) *Model
	// Lookup returns the model for uri, or nil.
	Lookup(uri string) *Model
}

// InMemory is the in-process model service.
type InMemory struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewInMemory creates an empty model service.
func NewInMemory() *InMemory {
	return &InMemory{models: make(map[string]*Model)}
}

func (s *InMemory) Create(text, language, uri string) *Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.models[uri]; ok {
		return m
	}
	m := &Model{uri: uri, language: language, value: text, version: 1}
	s.models[uri] = m
	return m
}

func (s *InMemory) Lookup(uri string) *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models[uri]
}
