package metadata

import (
	"reflect"
	"testing"
)

func TestParseSrcinfo_Pkgbase(t *testing.T) {
	content := `
pkgbase = example
	pkgver = 1.2.3
	pkgrel = 1
	depends = glibc
	depends = zlib
	depends_x86_64 = lib32-glibc
	makedepends = cmake

pkgname = example
`
	data, err := ParseSrcinfo(content)
	if err != nil {
		t.Fatalf("ParseSrcinfo: %v", err)
	}
	if data.Pkgbase != "example" || data.Pkgver != "1.2.3" || data.Pkgrel != "1" {
		t.Errorf("base fields = %+v", data)
	}
	want := []string{"glibc", "zlib", "lib32-glibc"}
	if !reflect.DeepEqual(data.Depends, want) {
		t.Errorf("Depends = %v, want %v (arch-suffixed entries should merge into the base key)", data.Depends, want)
	}
	if !reflect.DeepEqual(data.MakeDepends, []string{"cmake"}) {
		t.Errorf("MakeDepends = %v", data.MakeDepends)
	}
	if len(data.Packages) != 1 || data.Packages[0].Pkgname != "example" {
		t.Fatalf("Packages = %+v", data.Packages)
	}
}

func TestParseSrcinfo_SplitPackagesHaveOwnArrays(t *testing.T) {
	content := `
pkgbase = example
	pkgver = 1.0.0
	pkgrel = 1
	depends = common-lib

pkgname = example-cli
	depends = cli-only-dep

pkgname = example-gui
	depends = gui-only-dep
	optdepends = qt6: gui toolkit
`
	data, err := ParseSrcinfo(content)
	if err != nil {
		t.Fatalf("ParseSrcinfo: %v", err)
	}
	if !reflect.DeepEqual(data.Depends, []string{"common-lib"}) {
		t.Errorf("base Depends = %v", data.Depends)
	}
	if len(data.Packages) != 2 {
		t.Fatalf("expected 2 split packages, got %d", len(data.Packages))
	}
	if !reflect.DeepEqual(data.Packages[0].Depends, []string{"cli-only-dep"}) {
		t.Errorf("package[0].Depends = %v", data.Packages[0].Depends)
	}
	if !reflect.DeepEqual(data.Packages[1].OptDepends, []string{"qt6: gui toolkit"}) {
		t.Errorf("package[1].OptDepends = %v", data.Packages[1].OptDepends)
	}
}
