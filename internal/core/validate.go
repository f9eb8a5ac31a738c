package core

import "strings"

// Arch package names (and pacman's own pkgname grammar) allow lowercase
// letters, digits, and the five punctuation characters below; everything
// else is rejected before a name ever reaches a network call.
const nameExtraChars = "@._+-"

// MaxPackageNameLength bounds a package name's length per spec.md §6.
const MaxPackageNameLength = 127

// MaxQueryLength bounds a search query's length per spec.md §6; it exists
// so a caller never round-trips an absurdly long string to the AUR RPC
// endpoint only to have it rejected there.
const MaxQueryLength = 256

// ValidatePackageName checks name against the pacman pkgname grammar: it
// must be non-empty, lowercase, no longer than MaxPackageNameLength, built
// only from letters, digits, and "@._+-", and must not start with a hyphen
// or a dot.
func ValidatePackageName(name string) error {
	if name == "" {
		return NewEmptyInputError()
	}
	if len(name) > MaxPackageNameLength {
		return NewInputTooLongError(MaxPackageNameLength)
	}
	if name[0] == '-' || name[0] == '.' {
		return NewInvalidPackageNameError(name)
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if strings.ContainsRune(nameExtraChars, r) {
			continue
		}
		return NewInvalidPackageNameError(name)
	}
	return nil
}

// ValidateSearchQuery checks a search query against spec.md §6's length
// policy. In strict mode, queries shorter than 2 characters are rejected
// (AUR RPC itself rejects single-character searches); in lenient mode only
// the upper bound and emptiness are enforced.
func ValidateSearchQuery(query string, strict bool) error {
	if query == "" {
		return NewEmptyInputError()
	}
	if len(query) > MaxQueryLength {
		return NewInputTooLongError(MaxQueryLength)
	}
	if strict && len(query) < 2 {
		return NewInvalidSearchQueryError("query must be at least 2 characters")
	}
	return nil
}
