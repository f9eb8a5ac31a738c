package aur

import (
	"net/url"
	"strings"
	"testing"
)

func TestSearchURL(t *testing.T) {
	got := SearchURL("yay")
	if !strings.HasPrefix(got, BaseRPCURL+"?") {
		t.Fatalf("SearchURL = %q, want prefix %q", got, BaseRPCURL+"?")
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	q := u.Query()
	if q.Get("v") != "5" || q.Get("type") != "search" || q.Get("by") != "name" || q.Get("arg") != "yay" {
		t.Errorf("query = %v", q)
	}
}

func TestInfoURL_MultipleArgs(t *testing.T) {
	got := InfoURL([]string{"yay", "paru"})
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	args := u.Query()["arg[]"]
	if len(args) != 2 || args[0] != "yay" || args[1] != "paru" {
		t.Errorf("arg[] = %v", args)
	}
}

func TestPkgbuildURL(t *testing.T) {
	got := PkgbuildURL("yay")
	want := BaseCgitURL + "PKGBUILD?h=yay"
	if got != want {
		t.Errorf("PkgbuildURL = %q, want %q", got, want)
	}
}

func TestCommentsURL(t *testing.T) {
	got := CommentsURL("yay")
	if got != BasePackageURL+"yay" {
		t.Errorf("CommentsURL = %q", got)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("search", "yay"); got != "search:yay" {
		t.Errorf("CacheKey = %q", got)
	}
	if got := CacheKey("info", "bash", "glibc"); got != "info:bash,glibc" {
		t.Errorf("CacheKey = %q", got)
	}
}
