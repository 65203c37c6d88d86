package compose

import (
	"github.com/Masterminds/semver"
)

// =============================================================================
// Version Gate
// =============================================================================

// SupportedVersions is the compose schema family accepted by CheckVersion.
const SupportedVersions = "2.x"

var supportedConstraint = mustConstraint(SupportedVersions)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// CheckVersion fails unless the document declares a 2.x version.
// "2", "2.0" and any "2.N" are accepted; the error text always names "2.x".
func CheckVersion(doc *Document) error {
	declared, ok := doc.Version()
	if !ok {
		return NewParseError("version", "no version declared, required "+SupportedVersions, ErrNoVersion)
	}
	if raw, _ := doc.Root().Get("version"); raw.Kind != KindScalar {
		return NewParseError("version", "version must be a scalar, required "+SupportedVersions, ErrUnsupportedVersion)
	}
	if declared == "" {
		return NewParseError("version", "no version declared, required "+SupportedVersions, ErrNoVersion)
	}

	v, err := semver.NewVersion(declared)
	if err != nil {
		return &ParseError{
			Field:   "version",
			Value:   declared,
			Message: "version is not a valid version number, required " + SupportedVersions,
			Err:     ErrUnsupportedVersion,
		}
	}

	if v.Prerelease() != "" || !supportedConstraint.Check(v) {
		return &ParseError{
			Field:   "version",
			Value:   declared,
			Message: "unsupported version, required " + SupportedVersions,
			Err:     ErrUnsupportedVersion,
		}
	}

	return nil
}
