package version

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"golang.org/x/mod/semver"
)

var (
	// ErrInvalidFormat is returned by Parse for anything that is not exactly
	// three dot-separated decimal integers.
	ErrInvalidFormat = errors.New("invalid version format")
	// ErrOverflow is returned by the Bump methods when the incremented
	// component would exceed MaxComponent.
	ErrOverflow = errors.New("version component overflow")
)

// MaxComponent is the largest major, minor or patch number Parse accepts.
const MaxComponent = math.MaxInt32

var versionRE = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is a major.minor.patch triple. The zero value is 0.0.0.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses text of the form "1.2.3".
//
// Components with leading zeros are rejected so that Parse(s).String() == s
// holds for every accepted s. Components above MaxComponent are rejected.
func Parse(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(s)
	if m == nil || !semver.IsValid("v"+s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n > MaxComponent {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag returns the version-control tag name for v, e.g. "v1.2.3".
func (v Version) Tag() string {
	return "v" + v.String()
}

// BumpMajor returns the next major version with minor and patch reset.
func (v Version) BumpMajor() (Version, error) {
	n, err := next("major", v.Major)
	return Version{Major: n}, err
}

// BumpMinor returns the next minor version with patch reset.
func (v Version) BumpMinor() (Version, error) {
	n, err := next("minor", v.Minor)
	return Version{Major: v.Major, Minor: n}, err
}

// BumpPatch returns the next patch version.
func (v Version) BumpPatch() (Version, error) {
	n, err := next("patch", v.Patch)
	return Version{Major: v.Major, Minor: v.Minor, Patch: n}, err
}

func next(name string, n int) (int, error) {
	if n >= MaxComponent {
		return 0, fmt.Errorf("%w: %s %d cannot be incremented", ErrOverflow, name, n)
	}
	return n + 1, nil
}

// Compare returns -1, 0 or +1 depending on whether a is less than, equal to,
// or greater than b.
func Compare(a, b Version) int {
	return semver.Compare(a.Tag(), b.Tag())
}

// Less reports whether v sorts before w.
func (v Version) Less(w Version) bool {
	return Compare(v, w) < 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
