package metadata

import (
	"reflect"
	"testing"
)

func TestParsePKGBUILD(t *testing.T) {
	content := `
pkgname=example
pkgver=1.0.0
pkgrel=1
depends=(glibc 'libfoo.so' "bash>=5.0")
depends+=(zlib)
makedepends=(cmake git)
checkdepends=('gtest')
optdepends=('python: scripting support' 'curl: network features')
`
	depends, makedepends, checkdepends, optdepends, err := ParsePKGBUILD(content)
	if err != nil {
		t.Fatalf("ParsePKGBUILD: %v", err)
	}

	wantDepends := []string{"glibc", "bash>=5.0", "zlib"}
	if !reflect.DeepEqual(depends, wantDepends) {
		t.Errorf("depends = %v, want %v (libfoo.so should be dropped as a soname token)", depends, wantDepends)
	}
	if !reflect.DeepEqual(makedepends, []string{"cmake", "git"}) {
		t.Errorf("makedepends = %v", makedepends)
	}
	if !reflect.DeepEqual(checkdepends, []string{"gtest"}) {
		t.Errorf("checkdepends = %v", checkdepends)
	}
	if !reflect.DeepEqual(optdepends, []string{"python: scripting support", "curl: network features"}) {
		t.Errorf("optdepends = %v", optdepends)
	}
}

func TestParsePKGBUILD_DeduplicatesPreservingFirstOccurrence(t *testing.T) {
	content := `depends=(foo bar foo)`
	depends, _, _, _, err := ParsePKGBUILD(content)
	if err != nil {
		t.Fatalf("ParsePKGBUILD: %v", err)
	}
	if !reflect.DeepEqual(depends, []string{"foo", "bar"}) {
		t.Errorf("depends = %v, want [foo bar]", depends)
	}
}

func TestParsePKGBUILD_SkipsVersionedSonames(t *testing.T) {
	content := `depends=(libfoo.so.6 glibc)`
	depends, _, _, _, _ := ParsePKGBUILD(content)
	if !reflect.DeepEqual(depends, []string{"glibc"}) {
		t.Errorf("depends = %v, want [glibc]", depends)
	}
}

func TestParsePKGBUILDArrays_IncludesProvidesConflictsReplaces(t *testing.T) {
	content := `
depends=(glibc)
provides=(example-lib)
conflicts=(example-old)
replaces=(example-legacy)
`
	result := ParsePKGBUILDArrays(content)
	if !reflect.DeepEqual(result.Provides, []string{"example-lib"}) {
		t.Errorf("Provides = %v", result.Provides)
	}
	if !reflect.DeepEqual(result.Conflicts, []string{"example-old"}) {
		t.Errorf("Conflicts = %v", result.Conflicts)
	}
	if !reflect.DeepEqual(result.Replaces, []string{"example-legacy"}) {
		t.Errorf("Replaces = %v", result.Replaces)
	}
}

func TestIsSonameToken(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{"libfoo.so", true},
		{"libfoo.so.6", true},
		{"libfoo.so=6-64", true},
		{"libfoo", false},
		{"bash>=5.0", false},
	}
	for _, tt := range tests {
		if got := isSonameToken(tt.tok); got != tt.want {
			t.Errorf("isSonameToken(%q) = %v, want %v", tt.tok, got, tt.want)
		}
	}
}
