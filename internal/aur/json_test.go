package aur

import (
	"testing"

	"github.com/archtk/archtk/internal/core"
)

func TestParseSearchResponse(t *testing.T) {
	body := []byte(`{
		"version": 5,
		"type": "search",
		"resultcount": 2,
		"results": [
			{"Name": "yay", "Version": "12.3.5-1", "Description": "Yet another yogurt", "Maintainer": "Jguer", "Popularity": 42.5},
			{"Name": "orphan-pkg", "Version": "1.0-1", "Description": "", "Maintainer": null}
		]
	}`)

	got, err := ParseSearchResponse(body)
	if err != nil {
		t.Fatalf("ParseSearchResponse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Name != "yay" || got[0].Maintainer != "Jguer" || got[0].Orphaned {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[0].Popularity == nil || *got[0].Popularity != 42.5 {
		t.Errorf("got[0].Popularity = %v", got[0].Popularity)
	}
	if !got[1].Orphaned || got[1].Maintainer != "" {
		t.Errorf("got[1] = %+v, want Orphaned with empty Maintainer", got[1])
	}
}

func TestParseSearchResponse_ErrorEnvelope(t *testing.T) {
	body := []byte(`{"type": "error", "error": "Too many package results."}`)
	_, err := ParseSearchResponse(body)
	aurErr, ok := core.AsError(err, core.AurService)
	if !ok {
		t.Fatalf("expected AurService error, got %v", err)
	}
	if aurErr.Message != "Too many package results." {
		t.Errorf("message = %q", aurErr.Message)
	}
}

func TestParseSearchResponse_MissingResults(t *testing.T) {
	body := []byte(`{"type": "search", "resultcount": 0}`)
	_, err := ParseSearchResponse(body)
	if _, ok := core.AsError(err, core.ParseErr); !ok {
		t.Fatalf("expected ParseErr, got %v", err)
	}
}

func TestParseInfoResponse(t *testing.T) {
	body := []byte(`{
		"type": "multiinfo",
		"resultcount": 1,
		"results": [{
			"Name": "yay", "Version": "12.3.5-1", "Maintainer": "Jguer",
			"URL": "https://github.com/Jguer/yay",
			"Depends": ["pacman", "git"],
			"MakeDepends": ["go"],
			"Provides": [], "Conflicts": ["yay-bin", "yay-git"],
			"License": ["GPL3"],
			"NumVotes": 900
		}]
	}`)
	got, err := ParseInfoResponse(body)
	if err != nil {
		t.Fatalf("ParseInfoResponse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	d := got[0]
	if d.URL != "https://github.com/Jguer/yay" || d.NumVotes != 900 {
		t.Errorf("d = %+v", d)
	}
	if len(d.Depends) != 2 || d.Depends[1] != "git" {
		t.Errorf("Depends = %v", d.Depends)
	}
	if len(d.Conflicts) != 2 {
		t.Errorf("Conflicts = %v", d.Conflicts)
	}
}

func TestParseInfoResponse_MalformedJSON(t *testing.T) {
	_, err := ParseInfoResponse([]byte(`not json`))
	if _, ok := core.AsError(err, core.ParseErr); !ok {
		t.Fatalf("expected ParseErr, got %v", err)
	}
}
