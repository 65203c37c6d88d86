package compose

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Parsing
// =============================================================================

// Top-level keys that are never services in the legacy single-level shape.
var reservedTopLevelKeys = map[string]bool{
	"version":  true,
	"services": true,
	"volumes":  true,
	"networks": true,
}

// Document is a parsed compose file.
// It only lives for the duration of a single resolve call.
type Document struct {
	root Value
}

// ServiceDescriptor is the read-only sub-tree of one named service.
type ServiceDescriptor struct {
	Name   string
	Fields Value
}

// ParseDocument parses filtered compose text into a Document.
// This is a pure function - no I/O, no side effects.
func ParseDocument(content []byte) (*Document, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyInput
	}

	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		// yaml.v3 errors carry the line number
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}

	root, err := fromNode(&node)
	if err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}
	if root.Kind != KindMapping {
		return nil, NewParseError("", "compose document must be a mapping, got "+root.Kind.String(), ErrInvalidYAML)
	}

	return &Document{root: root}, nil
}

// Root returns the top-level mapping.
func (d *Document) Root() Value {
	return d.root
}

// Version returns the declared version text and whether one was declared.
// A null version counts as undeclared. A declared version that is not a
// scalar returns empty text; CheckVersion rejects it.
func (d *Document) Version() (string, bool) {
	v, ok := d.root.Get("version")
	if !ok || v.Kind == KindNull {
		return "", false
	}
	if v.Kind != KindScalar {
		return "", true
	}
	return v.Scalar.Text, true
}

// Services returns the declared services in declaration order.
// Without a "services" key every non-reserved top-level key is a service.
func (d *Document) Services() ([]ServiceDescriptor, error) {
	var entries []Entry

	if services, ok := d.root.Get("services"); ok {
		// A present but empty or null services section declares no services.
		switch services.Kind {
		case KindMapping:
			entries = services.Entries
		case KindNull:
		default:
			return nil, NewParseError("services", "services must be a mapping", ErrInvalidService)
		}
	} else {
		for _, e := range d.root.Entries {
			if !reservedTopLevelKeys[e.Key] {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			return nil, ErrNoServices
		}
	}

	result := make([]ServiceDescriptor, 0, len(entries))
	for _, e := range entries {
		switch e.Value.Kind {
		case KindMapping:
			result = append(result, ServiceDescriptor{Name: e.Key, Fields: e.Value})
		case KindNull:
			result = append(result, ServiceDescriptor{Name: e.Key, Fields: Value{Kind: KindMapping}})
		default:
			return nil, &ParseError{
				Service: e.Key,
				Message: "service definition must be a mapping",
				Err:     ErrInvalidService,
			}
		}
	}

	return result, nil
}
