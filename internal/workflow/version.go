package workflow

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is returned for release versions that are not X.Y.Z.
var ErrInvalidVersion = errors.New("invalid version")

// ParseVersion accepts "1.2.3", "v1.2.3" or "1.2.3-rc.1" and returns the
// version without the leading "v".
func ParseVersion(s string) (string, error) {
	v := strings.TrimSpace(s)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	// Canonical expands "v1.2" to "v1.2.0" and drops build metadata, so a
	// mismatch means the input was not a full X.Y.Z[-pre] version.
	if !semver.IsValid(v) || semver.Canonical(v) != v {
		return "", fmt.Errorf("%w: %q, expected format: X.Y.Z", ErrInvalidVersion, s)
	}
	return strings.TrimPrefix(v, "v"), nil
}

// TagName returns the release tag for a parsed version.
func TagName(version string) string {
	return "v" + version
}

// ReleaseBranch returns the release branch for a parsed version.
func ReleaseBranch(version string) string {
	return "release/" + TagName(version)
}
