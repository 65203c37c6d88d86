package compose

import (
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/samber/lo"
)

// =============================================================================
// Value Coercion
// =============================================================================

// rawText renders a value for error messages.
func rawText(v Value) string {
	if v.Kind == KindScalar {
		return v.Scalar.Text
	}
	return v.Kind.String()
}

func (t *translation) invalid(field string, v Value, message string) error {
	return newFieldError(t.service, field, rawText(v), message, ErrInvalidField)
}

// str requires a scalar and returns its text. Null yields "".
func (t *translation) str(field string, v Value) (string, error) {
	switch v.Kind {
	case KindNull:
		return "", nil
	case KindScalar:
		return v.Scalar.Text, nil
	}
	return "", t.invalid(field, v, "expected a string")
}

// stringList accepts a sequence of scalars or a single scalar.
func (t *translation) stringList(field string, v Value) ([]string, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindScalar:
		return []string{v.Scalar.Text}, nil
	case KindSequence:
		out := make([]string, 0, len(v.Items))
		for i, item := range v.Items {
			if item.Kind != KindScalar {
				return nil, t.invalid(itemField(field, i), item, "expected a string")
			}
			out = append(out, item.Scalar.Text)
		}
		return out, nil
	}
	return nil, t.invalid(field, v, "expected a string or a list of strings")
}

// keysOrList accepts a list of names or a mapping whose keys are the names,
// as used by depends_on and networks.
func (t *translation) keysOrList(field string, v Value) ([]string, error) {
	if v.Kind == KindMapping {
		return lo.Map(v.Entries, func(e Entry, _ int) string { return e.Key }), nil
	}
	return t.stringList(field, v)
}

// boolean accepts a YAML boolean or the strings "true"/"false".
func (t *translation) boolean(field string, v Value) (bool, error) {
	if v.Kind == KindNull {
		return false, nil
	}
	if v.Kind == KindScalar {
		switch strings.ToLower(v.Scalar.Text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, t.invalid(field, v, "expected a boolean")
}

// integer parses a plain integer literal.
func (t *translation) integer(field string, v Value) (int64, error) {
	if v.Kind != KindScalar {
		return 0, t.invalid(field, v, "expected an integer")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Scalar.Text), 10, 64)
	if err != nil {
		return 0, t.invalid(field, v, "expected an integer")
	}
	return n, nil
}

// byteSize parses plain byte counts and docker unit strings such as "512m".
// "-1" is kept as the unlimited marker.
func (t *translation) byteSize(field string, v Value) (*int64, error) {
	if v.Kind == KindNull {
		return nil, nil
	}
	if v.Kind != KindScalar {
		return nil, t.invalid(field, v, "expected a byte size")
	}
	text := strings.TrimSpace(v.Scalar.Text)
	if text == "-1" {
		unlimited := int64(-1)
		return &unlimited, nil
	}
	n, err := units.RAMInBytes(text)
	if err != nil || n < 0 {
		return nil, t.invalid(field, v, "expected a byte size")
	}
	return &n, nil
}

// keyValues normalizes a list of KEY=VALUE strings or a mapping into a map.
// Scalar values keep their textual form, so YAML true becomes "true".
// A key without a value maps to "".
func (t *translation) keyValues(field string, v Value) (map[string]string, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil

	case KindSequence:
		out := make(map[string]string, len(v.Items))
		for i, item := range v.Items {
			if item.Kind != KindScalar {
				return nil, t.invalid(itemField(field, i), item, "expected KEY=VALUE")
			}
			key, value, _ := strings.Cut(item.Scalar.Text, "=")
			if key == "" {
				return nil, t.invalid(itemField(field, i), item, "expected KEY=VALUE")
			}
			out[key] = value
		}
		return out, nil

	case KindMapping:
		out := make(map[string]string, len(v.Entries))
		for _, e := range v.Entries {
			switch e.Value.Kind {
			case KindNull:
				out[e.Key] = ""
			case KindScalar:
				out[e.Key] = e.Value.Scalar.Text
			default:
				return nil, t.invalid(field+"."+e.Key, e.Value, "expected a scalar value")
			}
		}
		return out, nil
	}

	return nil, t.invalid(field, v, "expected a list or a mapping")
}
