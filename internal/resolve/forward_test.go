package resolve

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/archtk/archtk/internal/core"
	"github.com/archtk/archtk/internal/pacmanexec"
)

// fakePacmanRouter writes an executable script that dispatches on its
// argument vector to one of routes (exact "arg1 arg2 ..." match), falling
// back to the empty string for anything unmapped. This lets a single fake
// binary answer differently to -Si, -Qi, and -Q calls within one test.
func fakePacmanRouter(t *testing.T, routes map[string]string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pacman")

	var b strings.Builder
	b.WriteString("#!/bin/sh\ncase \"$*\" in\n")
	for args, output := range routes {
		b.WriteString("\"" + args + "\")\ncat <<'EOF'\n" + output + "\nEOF\n;;\n")
	}
	b.WriteString("*) ;;\nesac\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write fake pacman: %v", err)
	}
	orig := pacmanexec.Binary
	pacmanexec.Binary = path
	t.Cleanup(func() { pacmanexec.Binary = orig })
}

func TestResolver_OfficialRootInstalledAndToInstall(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Si yay": "Repository      : extra\nName            : yay\nVersion         : 12.3.5-1\nDepends On      : pacman>=6.0  git  go\nConflicts With  : None\n",
		"-Q pacman": "pacman 6.1.0-1",
		"-Q git":    "",
		"-Q go":     "",
		"-Si git":   "Repository      : core\nName            : git\nVersion         : 2.43-1\n",
		"-Si go":    "",
	})

	r := NewResolver(ForwardOptions{}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "yay", Source: core.PackageSource{Kind: core.SourceOfficial}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	byName := make(map[string]core.Dependency, len(got.Dependencies))
	for _, d := range got.Dependencies {
		byName[d.Name] = d
	}

	pacmanDep, ok := byName["pacman"]
	if !ok || pacmanDep.Status.Kind != core.StatusInstalled {
		t.Fatalf("pacman = %+v, want Installed", pacmanDep)
	}
	if !pacmanDep.IsSystem {
		t.Errorf("pacman.IsSystem = false, want true")
	}

	gitDep, ok := byName["git"]
	if !ok || gitDep.Status.Kind != core.StatusToInstall {
		t.Fatalf("git = %+v, want ToInstall", gitDep)
	}
	if !gitDep.IsCore {
		t.Errorf("git.IsCore = false, want true (core repo)")
	}

	goDep, ok := byName["go"]
	if !ok || goDep.Status.Kind != core.StatusMissing {
		t.Fatalf("go = %+v, want Missing (not installed, not in any repo)", goDep)
	}
}

func TestResolver_UpgradeStatus(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Si yay":    "Repository      : extra\nName            : yay\nVersion         : 12.3.5-1\nDepends On      : glibc>=2.39\nConflicts With  : None\n",
		"-Q glibc":   "glibc 2.38-1",
		"-Si glibc":  "Repository      : core\nName            : glibc\nVersion         : 2.39-1\n",
	})

	r := NewResolver(ForwardOptions{}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "yay", Source: core.PackageSource{Kind: core.SourceOfficial}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got.Dependencies) != 1 {
		t.Fatalf("Dependencies = %+v, want 1 entry", got.Dependencies)
	}
	dep := got.Dependencies[0]
	if dep.Status.Kind != core.StatusToUpgrade || dep.Status.Current != "2.38-1" {
		t.Errorf("glibc = %+v, want ToUpgrade{current 2.38-1}", dep)
	}
}

func TestResolver_FiltersSonameDependency(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Si yay": "Repository      : extra\nName            : yay\nVersion         : 1-1\nDepends On      : libfoo.so=6-64\nConflicts With  : None\n",
	})
	r := NewResolver(ForwardOptions{}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "yay", Source: core.PackageSource{Kind: core.SourceOfficial}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got.Dependencies) != 0 {
		t.Fatalf("Dependencies = %+v, want none (soname dep filtered)", got.Dependencies)
	}
}

func TestResolver_MaxDepthZeroStopsAtDirectDeps(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Si a": "Repository      : extra\nName            : a\nVersion         : 1-1\nDepends On      : b\nConflicts With  : None\n",
		"-Si b": "Repository      : extra\nName            : b\nVersion         : 1-1\nDepends On      : c\nConflicts With  : None\n",
	})
	r := NewResolver(ForwardOptions{MaxDepth: 0}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "a", Source: core.PackageSource{Kind: core.SourceOfficial}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var names []string
	for _, d := range got.Dependencies {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	if len(names) != 1 || names[0] != "b" {
		t.Fatalf("Dependencies = %v, want [b] only (max_depth=0 is direct-only)", names)
	}
}

func TestResolver_AURRootUsesPkgbuildCache(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Q git": "",
		"-Si git": "Repository      : core\nName            : git\nVersion         : 2.43-1\n",
	})
	r := NewResolver(ForwardOptions{
		PkgbuildCache: func(name string) (string, bool) {
			if name == "yay-bin" {
				return "pkgname=yay-bin\ndepends=('git')\n", true
			}
			return "", false
		},
	}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "yay-bin", Source: core.PackageSource{Kind: core.SourceAUR}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Name != "git" {
		t.Fatalf("Dependencies = %+v, want [git]", got.Dependencies)
	}
}

type fakeAUR struct {
	srcinfo map[string]string
}

func (f fakeAUR) Pkgbuild(ctx context.Context, name string) (string, error) {
	return "", core.NewPackageNotFoundError(name)
}

func (f fakeAUR) Srcinfo(ctx context.Context, name string) (string, error) {
	if text, ok := f.srcinfo[name]; ok {
		return text, nil
	}
	return "", core.NewPackageNotFoundError(name)
}

func TestResolver_AURRootFallsBackToSrcinfoWhenCheckAUR(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Q git": "",
	})
	aur := fakeAUR{srcinfo: map[string]string{
		"yay": "pkgbase = yay\n\tpkgver = 12.3.5\n\tdepends = git\n",
	}}
	r := NewResolver(ForwardOptions{CheckAUR: true}, aur)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "yay", Source: core.PackageSource{Kind: core.SourceAUR}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Name != "git" {
		t.Fatalf("Dependencies = %+v, want [git]", got.Dependencies)
	}
}

func TestResolver_MergesMultipleRoots(t *testing.T) {
	fakePacmanRouter(t, map[string]string{
		"-Si a b": "Repository      : extra\nName            : a\nVersion         : 1-1\nDepends On      : shared\nConflicts With  : None\n\n" +
			"Repository      : extra\nName            : b\nVersion         : 1-1\nDepends On      : shared\nConflicts With  : None\n",
		"-Si shared": "",
	})
	r := NewResolver(ForwardOptions{}, nil)
	got, err := r.Resolve(context.Background(), []core.PackageRef{
		{Name: "a", Source: core.PackageSource{Kind: core.SourceOfficial}},
		{Name: "b", Source: core.PackageSource{Kind: core.SourceOfficial}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got.Dependencies) != 1 {
		t.Fatalf("Dependencies = %+v, want one merged 'shared' entry", got.Dependencies)
	}
	shared := got.Dependencies[0]
	sort.Strings(shared.RequiredBy)
	if shared.Name != "shared" || len(shared.RequiredBy) != 2 {
		t.Fatalf("shared = %+v, want RequiredBy [a b]", shared)
	}
}
