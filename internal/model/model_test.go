package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_SeedsValue(t *testing.T) {
	s := NewInMemory()
	m := s.Create("let x=1;", "typescript", "file:///a.ts")
	assert.Equal(t, "let x=1;", m.Value())
	assert.Equal(t, "typescript", m.Language())
	assert.Equal(t, "file:///a.ts", m.URI())
	assert.Equal(t, 1, m.Version())
}

func TestCreate_ExistingURIReturnsSameHandle(t *testing.T) {
	s := NewInMemory()
	m1 := s.Create("first", "typescript", "file:///a.ts")
	m1.SetValue("edited")

	m2 := s.Create("second", "typescript", "file:///a.ts")
	require.Same(t, m1, m2)
	assert.Equal(t, "edited", m2.Value())
}

func TestSetValue_BumpsVersion(t *testing.T) {
	s := NewInMemory()
	m := s.Create("a", "plaintext", "file:///n.txt")
	m.SetValue("b")
	m.SetValue("c")
	assert.Equal(t, "c", m.Value())
	assert.Equal(t, 3, m.Version())
}

func TestLookup(t *testing.T) {
	s := NewInMemory()
	assert.Nil(t, s.Lookup("file:///missing.ts"))
	m := s.Create("", "json", "file:///data.json")
	assert.Same(t, m, s.Lookup("file:///data.json"))
}
