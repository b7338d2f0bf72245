// Package release decides whether a proposed mod version may be released.
package release

import (
	"errors"
	"strings"

	"github.com/sotfmods/api/internal/model"
	"golang.org/x/mod/semver"
)

var (
	ErrInvalidVersion      = errors.New("invalid version")
	ErrDuplicateVersion    = errors.New("version already exists")
	ErrVersionNotAdvancing = errors.New("version is not greater than the latest version")
)

// canonical maps "1.2.3" and "v1.2.3" to the "v1.2.3" form semver expects.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "=")
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Normalize returns v in the stored form, "1.2.3", whatever prefix the caller sent.
func Normalize(v string) string {
	return strings.TrimPrefix(canonical(v), "v")
}

// Valid reports whether v is a full major.minor.patch semantic version, with optional
// pre-release and build suffixes.
func Valid(v string) bool {
	c := canonical(v)
	if !semver.IsValid(c) {
		return false
	}
	core := c
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return strings.Count(core, ".") == 2
}

// Compare returns -1, 0 or +1 by semver precedence. Invalid versions sort before valid ones.
func Compare(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// Newer reports whether candidate is strictly greater than current.
func Newer(candidate, current string) bool {
	return Compare(candidate, current) > 0
}

// Validate checks proposed against the versions already released for a mod.
func Validate(proposed string, existing []*model.ModVersion) error {
	if !Valid(proposed) {
		return ErrInvalidVersion
	}

	var latest *model.ModVersion
	for _, v := range existing {
		// build metadata does not take part in precedence
		if v.Version == proposed || Compare(v.Version, proposed) == 0 {
			return ErrDuplicateVersion
		}
		if v.IsLatest {
			latest = v
		}
	}

	if latest != nil && !Newer(proposed, latest.Version) {
		return ErrVersionNotAdvancing
	}
	return nil
}
