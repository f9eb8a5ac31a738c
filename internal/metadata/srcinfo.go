package metadata

import (
	"strings"

	"github.com/archtk/archtk/internal/core"
)

var srcinfoArrayKeys = map[string]bool{
	"depends": true, "makedepends": true, "checkdepends": true,
	"optdepends": true, "provides": true, "conflicts": true, "replaces": true,
}

// ParseSrcinfo parses a .SRCINFO file per spec.md §4.4: one "key = value"
// per line, keys optionally carrying an architecture suffix that merges
// into the base key, with pkgname lines starting a new split-package
// section whose array keys accumulate independently of the pkgbase
// section's.
func ParseSrcinfo(content string) (*core.SrcinfoData, error) {
	data := &core.SrcinfoData{}
	curIdx := -1 // -1 while still in the pkgbase section

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		key = baseKey(key)

		switch key {
		case "pkgbase":
			data.Pkgbase = value
		case "pkgver":
			data.Pkgver = value
		case "pkgrel":
			data.Pkgrel = value
		case "pkgname":
			data.Packages = append(data.Packages, core.SrcinfoPackage{Pkgname: value})
			curIdx = len(data.Packages) - 1
			continue
		}

		if !srcinfoArrayKeys[key] {
			continue
		}
		if curIdx >= 0 {
			appendSrcinfoArray(&data.Packages[curIdx], key, value)
		} else {
			appendBaseArray(data, key, value)
		}
	}
	return data, nil
}

// baseKey strips a trailing "_<arch>" suffix (e.g. "depends_x86_64") so
// architecture-specific entries merge into their base key.
func baseKey(key string) string {
	if i := strings.IndexByte(key, '_'); i >= 0 {
		base := key[:i]
		if srcinfoArrayKeys[base] || base == "source" || base == "sha256sums" {
			return base
		}
	}
	return key
}

func appendBaseArray(data *core.SrcinfoData, key, value string) {
	switch key {
	case "depends":
		data.Depends = append(data.Depends, value)
	case "makedepends":
		data.MakeDepends = append(data.MakeDepends, value)
	case "checkdepends":
		data.CheckDepends = append(data.CheckDepends, value)
	case "optdepends":
		data.OptDepends = append(data.OptDepends, value)
	case "provides":
		data.Provides = append(data.Provides, value)
	case "conflicts":
		data.Conflicts = append(data.Conflicts, value)
	case "replaces":
		data.Replaces = append(data.Replaces, value)
	}
}

func appendSrcinfoArray(pkg *core.SrcinfoPackage, key, value string) {
	switch key {
	case "depends":
		pkg.Depends = append(pkg.Depends, value)
	case "makedepends":
		pkg.MakeDepends = append(pkg.MakeDepends, value)
	case "checkdepends":
		pkg.CheckDepends = append(pkg.CheckDepends, value)
	case "optdepends":
		pkg.OptDepends = append(pkg.OptDepends, value)
	case "provides":
		pkg.Provides = append(pkg.Provides, value)
	case "conflicts":
		pkg.Conflicts = append(pkg.Conflicts, value)
	case "replaces":
		pkg.Replaces = append(pkg.Replaces, value)
	}
}
