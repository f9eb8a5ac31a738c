package aur

import (
	"net/url"
	"strings"
)

// BaseRPCURL, BaseCgitURL, and BasePackageURL are the AUR endpoints this
// client talks to, per spec.md §6. They are vars, not consts, so tests can
// point them at a local httptest.Server.
var (
	BaseRPCURL     = "https://aur.archlinux.org/rpc/"
	BaseCgitURL    = "https://aur.archlinux.org/cgit/aur.git/plain/"
	BasePackageURL = "https://aur.archlinux.org/packages/"
)

// SearchURL builds the RPC v5 search-by-name URL for query.
func SearchURL(query string) string {
	v := url.Values{}
	v.Set("v", "5")
	v.Set("type", "search")
	v.Set("by", "name")
	v.Set("arg", query)
	return BaseRPCURL + "?" + v.Encode()
}

// InfoURL builds the RPC v5 multiinfo URL for one or more package names.
func InfoURL(names []string) string {
	v := url.Values{}
	v.Set("v", "5")
	v.Set("type", "info")
	for _, n := range names {
		v.Add("arg[]", n)
	}
	return BaseRPCURL + "?" + v.Encode()
}

// CommentsURL builds the package page URL whose HTML is parsed for
// comments.
func CommentsURL(name string) string {
	return BasePackageURL + url.PathEscape(name)
}

// PkgbuildURL builds the raw-PKGBUILD cgit URL for name.
func PkgbuildURL(name string) string {
	return BaseCgitURL + "PKGBUILD?h=" + url.QueryEscape(name)
}

// SrcinfoURL builds the raw-.SRCINFO cgit URL for name.
func SrcinfoURL(name string) string {
	return BaseCgitURL + ".SRCINFO?h=" + url.QueryEscape(name)
}

// CacheKey builds the per-operation cache key per spec.md §4.5: operation
// name, a colon, and the operation's canonical argument rendering (names
// sorted and comma-joined for info).
func CacheKey(operation string, args ...string) string {
	return operation + ":" + strings.Join(args, ",")
}
