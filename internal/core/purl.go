package core

import (
	"fmt"

	"github.com/git-pkgs/purl"
)

// PURL is a parsed Package URL, re-exported so callers never need to
// import github.com/git-pkgs/purl directly.
type PURL = purl.PURL

// ParsePURL parses a Package URL string into its components. Only the
// "aur" PURL type is meaningful to this module; callers get back whatever
// purl.Parse understood and can inspect Type themselves.
func ParsePURL(purlStr string) (*PURL, error) {
	return purl.Parse(purlStr)
}

// PackageRefFromPURL turns a "pkg:aur/<name>@<version>" string into a
// PackageRef. It rejects any PURL whose type is not "aur".
func PackageRefFromPURL(purlStr string) (PackageRef, error) {
	p, err := ParsePURL(purlStr)
	if err != nil {
		return PackageRef{}, NewParseError("malformed PURL", err)
	}
	if p.Type != "aur" {
		return PackageRef{}, NewParseError(fmt.Sprintf("unsupported PURL type %q, want \"aur\"", p.Type), nil)
	}
	return PackageRef{
		Name:    p.Name,
		Version: p.Version,
		Source:  PackageSource{Kind: SourceAUR},
	}, nil
}

// PURLFor builds a "pkg:aur/<name>[@<version>]" PURL string for ref.
func PURLFor(ref PackageRef) string {
	if ref.Version == "" {
		return fmt.Sprintf("pkg:aur/%s", ref.Name)
	}
	return fmt.Sprintf("pkg:aur/%s@%s", ref.Name, ref.Version)
}
