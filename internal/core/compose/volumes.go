package compose

import (
	"errors"
	"strings"

	"github.com/artpar/composeresolve/internal/core/hostpath"
)

// =============================================================================
// Volume Binds
// =============================================================================

// ParseBind validates one short-form bind string and makes a relative host
// path absolute against basedir. Accepted shapes:
//
//	containerPath
//	hostPath:containerPath[:mode]
//	namedVolume:containerPath[:mode]
//
// The mode segment is preserved verbatim. Named volumes are left untouched.
func ParseBind(spec, basedir string) (string, error) {
	if strings.TrimSpace(spec) == "" {
		return "", &ParseError{Value: spec, Message: "bind is empty", Err: ErrInvalidBind}
	}

	parts := splitBind(spec)
	if len(parts) > 3 {
		return "", &ParseError{Value: spec, Message: "bind has more than 3 ':'-separated segments", Err: ErrInvalidBind}
	}
	for _, p := range parts {
		if p == "" {
			return "", &ParseError{Value: spec, Message: "bind has an empty segment", Err: ErrInvalidBind}
		}
	}

	// Anonymous volume
	if len(parts) == 1 {
		return spec, nil
	}

	if hostpath.LooksLikePath(parts[0]) {
		parts[0] = hostpath.Resolve(parts[0], basedir)
	}
	return strings.Join(parts, ":"), nil
}

// splitBind splits on ':' but keeps a leading drive letter ("C:\data") with
// the host segment when more segments follow it.
func splitBind(spec string) []string {
	offset := 0
	if hostpath.HasDriveLetter(spec) && len(spec) > 2 && (spec[2] == '\\' || spec[2] == '/') &&
		strings.Contains(spec[2:], ":") {
		offset = 2
	}
	parts := strings.Split(spec[offset:], ":")
	parts[0] = spec[:offset] + parts[0]
	return parts
}

// volumes handles both short-form strings and long-form mappings.
func (t *translation) volumes(field string, v Value) error {
	if v.Kind == KindNull {
		return nil
	}
	if v.Kind != KindSequence {
		return t.invalid(field, v, "expected a list of volumes")
	}

	for i, item := range v.Items {
		f := itemField(field, i)

		switch item.Kind {
		case KindScalar:
			bind, err := ParseBind(item.Scalar.Text, t.opts.Basedir)
			if err != nil {
				return t.scope(f, err)
			}
			t.run().Volumes.Bind = append(t.run().Volumes.Bind, bind)

		case KindMapping:
			if err := t.longFormVolume(f, item); err != nil {
				return err
			}

		default:
			return t.invalid(f, item, "expected a bind string or a volume mapping")
		}
	}
	return nil
}

// longFormVolume renders {type, source, target, read_only} as a bind string.
func (t *translation) longFormVolume(field string, v Value) error {
	var volType, source, target string
	var readOnly bool

	for _, e := range v.Entries {
		var err error
		switch e.Key {
		case "type":
			volType, err = t.str(field+".type", e.Value)
		case "source":
			source, err = t.str(field+".source", e.Value)
		case "target":
			target, err = t.str(field+".target", e.Value)
		case "read_only":
			readOnly, err = t.boolean(field+".read_only", e.Value)
		}
		if err != nil {
			return err
		}
	}

	if target == "" {
		return newFieldError(t.service, field, "", "volume target is required", ErrInvalidBind)
	}

	switch volType {
	case "tmpfs":
		t.run().Tmpfs = append(t.run().Tmpfs, target)
		return nil
	case "", "bind", "volume":
	default:
		return newFieldError(t.service, field+".type", volType, "unsupported volume type", ErrInvalidBind)
	}

	if source == "" {
		t.run().Volumes.Bind = append(t.run().Volumes.Bind, target)
		return nil
	}

	if volType == "bind" || (volType == "" && hostpath.LooksLikePath(source)) {
		source = hostpath.Resolve(source, t.opts.Basedir)
	}

	bind := source + ":" + target
	if readOnly {
		bind += ":ro"
	}
	t.run().Volumes.Bind = append(t.run().Volumes.Bind, bind)
	return nil
}

// scope attaches the service and field to a ParseError produced by a
// context-free parser.
func (t *translation) scope(field string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		scoped := *pe
		scoped.Service = t.service
		scoped.Field = field
		return &scoped
	}
	return err
}
