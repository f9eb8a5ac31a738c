// Package metadata parses the three textual formats package metadata
// arrives in: raw PKGBUILD fragments, .SRCINFO files, and pacman's
// colon-block output.
package metadata

import (
	"regexp"
	"strings"
)

var pkgbuildArrayHeader = regexp.MustCompile(`(?m)^\s*(depends|makedepends|checkdepends|optdepends|provides|conflicts|replaces)\s*\+?=\s*\(`)

var sonameSuffix = regexp.MustCompile(`\.so(\.[0-9]+)*$`)

// ParsePKGBUILD scans PKGBUILD text for depends/makedepends/checkdepends/
// optdepends array assignments and returns them as four ordered,
// deduplicated sequences, per spec.md §4.4. Virtual shared-library tokens
// (e.g. "libfoo.so=6-64") are dropped from all four arrays; +=  and  =
// both accumulate into the same key.
func ParsePKGBUILD(content string) (depends, makedepends, checkdepends, optdepends []string, err error) {
	arrays := scanArrays(content)
	return dedupSkippingSonames(arrays["depends"]),
		dedupSkippingSonames(arrays["makedepends"]),
		dedupSkippingSonames(arrays["checkdepends"]),
		dedupSkippingSonames(arrays["optdepends"]),
		nil
}

// ArrayResult is the full array roster ParsePKGBUILDArrays extracts.
type ArrayResult struct {
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Provides     []string
	Conflicts    []string
	Replaces     []string
}

// ParsePKGBUILDArrays extends ParsePKGBUILD with provides/conflicts/
// replaces, for callers working from a standalone PKGBUILD with no AUR RPC
// record to supply those fields. Unlike ParsePKGBUILD, it drops soname
// tokens only from depends/makedepends/checkdepends; optdepends and the
// three extra arrays are deduplicated but not soname-filtered.
func ParsePKGBUILDArrays(content string) ArrayResult {
	arrays := scanArrays(content)
	return ArrayResult{
		Depends:      dedupSkippingSonames(arrays["depends"]),
		MakeDepends:  dedupSkippingSonames(arrays["makedepends"]),
		CheckDepends: dedupSkippingSonames(arrays["checkdepends"]),
		OptDepends:   dedup(arrays["optdepends"]),
		Provides:     dedup(arrays["provides"]),
		Conflicts:    dedup(arrays["conflicts"]),
		Replaces:     dedup(arrays["replaces"]),
	}
}

// scanArrays walks every "key=(" / "key+=(" header in content and
// accumulates the tokenized body into arrays[key], in the order
// encountered.
func scanArrays(content string) map[string][]string {
	arrays := make(map[string][]string)
	locs := pkgbuildArrayHeader.FindAllStringSubmatchIndex(content, -1)
	for _, loc := range locs {
		key := content[loc[2]:loc[3]]
		bodyStart := loc[1] // just past the opening '('
		end := strings.IndexByte(content[bodyStart:], ')')
		if end == -1 {
			continue
		}
		body := content[bodyStart : bodyStart+end]
		arrays[key] = append(arrays[key], tokenizeArray(body)...)
	}
	return arrays
}

// tokenizeArray splits a bash array body into entries: a single- or
// double-quoted run is one entry regardless of embedded whitespace
// (needed for "pkg: description" optdepends lines); anything else
// whitespace-separates as usual. '#'-prefixed remainders of a line are
// comments and are dropped.
func tokenizeArray(body string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := byte(0)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '#':
			flush()
			if nl := strings.IndexByte(body[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(body)
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func isSonameToken(tok string) bool {
	name := tok
	if i := strings.IndexByte(tok, '='); i >= 0 {
		name = tok[:i]
	}
	return sonameSuffix.MatchString(name)
}

func dedup(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func dedupSkippingSonames(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if isSonameToken(t) {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
