package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTwoTier_MemoryRoundTrip(t *testing.T) {
	c, err := New[string](10, time.Minute, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Set("search:yay", "result")
	got, ok := c.Get("search:yay")
	if !ok || got != "result" {
		t.Errorf("Get = (%q, %v), want (\"result\", true)", got, ok)
	}
}

func TestTwoTier_ExpiresAfterTTL(t *testing.T) {
	c, err := New[string](10, time.Millisecond, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Set("search:yay", "result")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("search:yay"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestTwoTier_DiskTierSurvivesMemoryEviction(t *testing.T) {
	dir := t.TempDir()
	c, err := New[string](1, time.Minute, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Set("info:yay", "a")
	c.Set("info:paru", "b") // evicts "a" from the size-1 memory tier

	got, ok := c.Get("info:yay")
	if !ok {
		t.Fatal("expected disk tier to still have info:yay")
	}
	if got != "a" {
		t.Errorf("Get = %q, want %q", got, "a")
	}
}

func TestTwoTier_DiskFileIsPercentEncodedJSON(t *testing.T) {
	dir := t.TempDir()
	c, err := New[string](10, time.Minute, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Set("info:a,b", "value")

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one cache file, got %d", len(matches))
	}
}

func TestTwoTier_DeleteAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := New[string](10, time.Minute, dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Set("info:yay", "a")
	c.Delete("info:yay")
	if _, ok := c.Get("info:yay"); ok {
		t.Error("expected miss after Delete")
	}

	c.Set("info:yay", "a")
	c.Set("info:paru", "b")
	c.Clear()
	if _, ok := c.Get("info:yay"); ok {
		t.Error("expected miss after Clear")
	}
	if _, ok := c.Get("info:paru"); ok {
		t.Error("expected miss after Clear")
	}
}

func TestInvalidator_InvalidatePackage(t *testing.T) {
	info, _ := New[string](10, time.Minute, "", nil)
	comments, _ := New[string](10, time.Minute, "", nil)
	pkgbuild, _ := New[string](10, time.Minute, "", nil)
	search, _ := New[string](10, time.Minute, "", nil)

	info.Set("info:yay", "a")
	comments.Set("comments:yay", "b")
	pkgbuild.Set("pkgbuild:yay", "c")
	search.Set("search:yay", "d")

	inv := NewInvalidator(map[string]Invalidatable{
		"info":     info,
		"comments": comments,
		"pkgbuild": pkgbuild,
		"search":   search,
	})
	inv.InvalidatePackage("yay")

	if _, ok := info.Get("info:yay"); ok {
		t.Error("expected info cache entry gone")
	}
	if _, ok := comments.Get("comments:yay"); ok {
		t.Error("expected comments cache entry gone")
	}
	if _, ok := pkgbuild.Get("pkgbuild:yay"); ok {
		t.Error("expected pkgbuild cache entry gone")
	}
	if _, ok := search.Get("search:yay"); !ok {
		t.Error("search cache entries are query-keyed and should survive InvalidatePackage")
	}
}

func TestInvalidator_ClearAll(t *testing.T) {
	info, _ := New[string](10, time.Minute, "", nil)
	info.Set("info:yay", "a")

	inv := NewInvalidator(map[string]Invalidatable{"info": info})
	inv.ClearAll()

	if _, ok := info.Get("info:yay"); ok {
		t.Error("expected miss after ClearAll")
	}
}
