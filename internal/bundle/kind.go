package bundle

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies a project file. The numeric values are part of the bundle
// wire format; new kinds append only.
type Kind int

const (
	KindDefinition Kind = iota // ambient type declarations (.d.ts)
	KindCompiledSource
	KindLibrary
	KindMarkup
	KindScript
	KindMarkdown
	KindStyle
	KindDataJSON
	KindPlainText
	KindStructuredXML
)

var kindNames = map[Kind]string{
	KindDefinition:     "definition",
	KindCompiledSource: "compiled_source",
	KindLibrary:        "library",
	KindMarkup:         "markup",
	KindScript:         "script",
	KindMarkdown:       "markdown",
	KindStyle:          "style",
	KindDataJSON:       "json",
	KindPlainText:      "text",
	KindStructuredXML:  "xml",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known file kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Compiled reports whether files of this kind go through the type-checking
// worker before they appear in build output.
func (k Kind) Compiled() bool {
	return k == KindCompiledSource || k == KindDefinition
}

// Language returns the buffer display mode for the kind.
func (k Kind) Language() string {
	switch k {
	case KindDefinition, KindCompiledSource:
		return "typescript"
	case KindLibrary, KindScript:
		return "javascript"
	case KindMarkup:
		return "html"
	case KindMarkdown:
		return "markdown"
	case KindStyle:
		return "css"
	case KindDataJSON:
		return "json"
	case KindStructuredXML:
		return "xml"
	default:
		return "plaintext"
	}
}

// ParseKind resolves a kind name as used in query parameters and bundles.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown file kind %q", s)
}

// UnmarshalJSON accepts both the integer wire form and the string name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := ParseKind(s)
		if perr != nil {
			return perr
		}
		*k = parsed
		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("file kind must be a number or name: %w", err)
	}
	kk := Kind(n)
	if !kk.Valid() {
		return fmt.Errorf("unknown file kind %d", n)
	}
	*k = kk
	return nil
}

// MarshalJSON emits the string name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}
