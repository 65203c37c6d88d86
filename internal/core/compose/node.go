package compose

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Generic Tree
// =============================================================================

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "null"
	}
}

// Scalar is a YAML scalar in its original textual form.
type Scalar struct {
	Tag  string // resolved YAML tag, e.g. "!!str", "!!int", "!!bool"
	Text string
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value Value
}

// Value is the untyped compose tree: null, scalar, sequence or mapping.
// Mapping entries keep their declaration order.
type Value struct {
	Kind    Kind
	Scalar  Scalar
	Items   []Value
	Entries []Entry
	Line    int
}

// Get returns the value of key in a mapping.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Keys returns mapping keys in declaration order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// IsBool reports whether the scalar was written as a YAML boolean.
func (s Scalar) IsBool() bool { return s.Tag == "!!bool" }

// IsInt reports whether the scalar was written as a YAML integer.
func (s Scalar) IsInt() bool { return s.Tag == "!!int" }

// fromNode converts a yaml.v3 node into a Value, following aliases and
// applying "<<" merge keys.
func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{Kind: KindNull, Line: n.Line}, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		if n.Alias == nil {
			return Value{}, fmt.Errorf("line %d: unresolved alias %q", n.Line, n.Value)
		}
		return fromNode(n.Alias)

	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return Value{Kind: KindNull, Line: n.Line}, nil
		}
		return Value{
			Kind:   KindScalar,
			Scalar: Scalar{Tag: n.ShortTag(), Text: n.Value},
			Line:   n.Line,
		}, nil

	case yaml.SequenceNode:
		v := Value{Kind: KindSequence, Items: make([]Value, 0, len(n.Content)), Line: n.Line}
		for _, c := range n.Content {
			item, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil

	case yaml.MappingNode:
		return fromMappingNode(n)
	}

	return Value{}, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func fromMappingNode(n *yaml.Node) (Value, error) {
	v := Value{Kind: KindMapping, Line: n.Line}
	seen := make(map[string]int)
	var merged []Entry

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}

		val, err := fromNode(valNode)
		if err != nil {
			return Value{}, err
		}

		if keyNode.ShortTag() == "!!merge" {
			switch val.Kind {
			case KindMapping:
				merged = append(merged, val.Entries...)
			case KindSequence:
				for _, item := range val.Items {
					if item.Kind != KindMapping {
						return Value{}, fmt.Errorf("line %d: merge sequence must contain mappings", item.Line)
					}
					merged = append(merged, item.Entries...)
				}
			default:
				return Value{}, fmt.Errorf("line %d: merge value must be a mapping", valNode.Line)
			}
			continue
		}

		if idx, dup := seen[keyNode.Value]; dup {
			v.Entries[idx].Value = val
			continue
		}
		seen[keyNode.Value] = len(v.Entries)
		v.Entries = append(v.Entries, Entry{Key: keyNode.Value, Value: val})
	}

	// Explicit keys win over merged ones.
	for _, e := range merged {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = len(v.Entries)
		v.Entries = append(v.Entries, e)
	}

	return v, nil
}
