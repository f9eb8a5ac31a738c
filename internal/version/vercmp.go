// Package version implements a pacman vercmp-compatible comparator: an
// epoch-aware, segment-by-segment ordering over Arch package version
// strings, plus the requirement and major-bump helpers built on top of it.
package version

import (
	"fmt"
	"strconv"
)

// Compare returns -1, 0, or 1 according to whether a sorts before, equal
// to, or after b, using pacman's vercmp algorithm: compare epoch as an
// integer first (default 0 when absent); on a tie, compare the pkgver
// portion by alternating digit/non-digit segments; on a further tie, and
// only when both operands carry a "-pkgrel" trailer, compare pkgrel the
// same way. A version missing its pkgrel trailer is never compared on
// that axis — "1.0" and "1.0-1" are equal.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	epochA, restA := splitEpoch(a)
	epochB, restB := splitEpoch(b)
	if epochA != epochB {
		if epochA < epochB {
			return -1
		}
		return 1
	}

	verA, relA, hasRelA := splitPkgrel(restA)
	verB, relB, hasRelB := splitPkgrel(restB)

	if c := compareSegments(verA, verB); c != 0 {
		return c
	}
	if hasRelA && hasRelB {
		return compareSegments(relA, relB)
	}
	return 0
}

// splitEpoch pulls a leading "N:" epoch prefix off s, defaulting to 0 when
// absent or unparseable.
func splitEpoch(s string) (int64, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			if n, err := strconv.ParseInt(s[:i], 10, 64); err == nil {
				return n, s[i+1:]
			}
			return 0, s
		}
		if s[i] < '0' || s[i] > '9' {
			break
		}
	}
	return 0, s
}

// splitPkgrel splits s on its last '-', returning the pkgver portion, the
// pkgrel portion, and whether a trailer was present at all.
func splitPkgrel(s string) (pkgver, pkgrel string, hasPkgrel bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '-' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// compareSegments implements the body of pacman's vercmp: walk both
// strings skipping runs of non-alphanumeric separator characters (which
// are never themselves compared — "1..2", "1.2", and "1_2" all separate
// identically), then compare the next matched-type run. A numeric run is
// always greater than an alpha run at the same position. Numeric runs
// compare by length after stripping leading zeros (so arbitrarily long
// digit strings compare correctly without overflow), then lexically.
// Alpha runs compare lexically. Once either side runs out of segments,
// whichever side still has characters left wins — except when both are
// simultaneously exhausted, which is equality.
func compareSegments(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		start1, start2 := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && !isDigit(a[i]) && isAlnum(a[i]) {
				i++
			}
			for j < len(b) && !isDigit(b[j]) && isAlnum(b[j]) {
				j++
			}
		}

		seg1, seg2 := a[start1:i], b[start2:j]

		if seg2 == "" {
			// b had no run of the matching type here at all: a numeric
			// run beats an absent/alpha one, an alpha run loses to it.
			if numeric {
				return 1
			}
			return -1
		}
		if seg1 == "" {
			if numeric {
				return -1
			}
			return 1
		}

		if numeric {
			seg1 = stripLeadingZeros(seg1)
			seg2 = stripLeadingZeros(seg2)
			if len(seg1) != len(seg2) {
				if len(seg1) > len(seg2) {
					return 1
				}
				return -1
			}
		}
		if seg1 != seg2 {
			if seg1 < seg2 {
				return -1
			}
			return 1
		}
	}

	aEmpty, bEmpty := i >= len(a), j >= len(b)
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return -1
	default:
		return 1
	}
}

func stripLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

// Satisfies reports whether installed meets the constraint "op required",
// e.g. Satisfies("1.2.3", ">=", "1.2.0"). op must be one of
// "<", "<=", "=" (or "=="), ">=", ">".
func Satisfies(installed, op, required string) (bool, error) {
	c := Compare(installed, required)
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case "=", "==":
		return c == 0, nil
	case ">=":
		return c >= 0, nil
	case ">":
		return c > 0, nil
	default:
		return false, fmt.Errorf("version: unrecognized operator %q", op)
	}
}

// IsMajorVersionBump reports whether the first (leftmost) numeric pkgver
// component of to differs from that of from, in either direction — the signal a
// dependent resolver uses to flag a potentially breaking upgrade. Epoch
// changes do not count: they are a packaging escape hatch, not a semantic
// version jump.
func IsMajorVersionBump(from, to string) bool {
	_, fromRest := splitEpoch(from)
	_, toRest := splitEpoch(to)
	fromVer, _, _ := splitPkgrel(fromRest)
	toVer, _, _ := splitPkgrel(toRest)

	fromMajor := leadingNumericComponent(fromVer)
	toMajor := leadingNumericComponent(toVer)
	if fromMajor == "" || toMajor == "" {
		return false
	}
	return compareSegments(stripLeadingZeros(fromMajor), stripLeadingZeros(toMajor)) != 0
}

// leadingNumericComponent returns the first maximal digit run in s.
func leadingNumericComponent(s string) string {
	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[start:i]
}
