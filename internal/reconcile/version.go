package reconcile

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// compareVersions compares two version strings with semver rules, tolerating
// a leading "v". ok is false when either side is not a valid version.
func compareVersions(a, b string) (cmp int, ok bool) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, false
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, false
	}
	return av.Compare(bv), true
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
}

// drift describes how have relates to want: "", "older", "newer" or
// "different" for versions that do not parse.
func drift(have, want string) string {
	if have == "" || want == "" {
		return ""
	}
	cmp, ok := compareVersions(have, want)
	switch {
	case !ok && have != want:
		return "different"
	case !ok, cmp == 0:
		return ""
	case cmp < 0:
		return "older"
	default:
		return "newer"
	}
}
