package version

import "fmt"

// BumpKind selects which SEMVER component an operator bump increments.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// SemVer is the operator-controlled decision version.
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// DefaultVersion is used when no persisted record exists.
var DefaultVersion = SemVer{Major: 2, Minor: 0, Patch: 0}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse reads a "major.minor.patch" string.
func Parse(s string) (SemVer, error) {
	var v SemVer
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err != nil {
		return SemVer{}, fmt.Errorf("invalid semver %q: %w", s, err)
	}
	if v.Major < 0 || v.Minor < 0 || v.Patch < 0 {
		return SemVer{}, fmt.Errorf("invalid semver %q: negative component", s)
	}
	return v, nil
}

// Bump applies strict SEMVER rules: major resets minor and patch, minor
// resets patch, patch increments only patch. Unknown kinds error.
func (v SemVer) Bump(kind BumpKind) (SemVer, error) {
	switch kind {
	case BumpMajor:
		return SemVer{Major: v.Major + 1}, nil
	case BumpMinor:
		return SemVer{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpPatch:
		return SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	default:
		return SemVer{}, fmt.Errorf("invalid bump kind %q (want major, minor, or patch)", kind)
	}
}
