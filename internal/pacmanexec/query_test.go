package pacmanexec

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// fakePacman writes an executable shell script that prints output
// regardless of its arguments, points Binary at it for the duration of
// the test, and restores the original Binary on cleanup.
func fakePacman(t *testing.T, output string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pacman")
	script := "#!/bin/sh\ncat <<'EOF'\n" + output + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake pacman: %v", err)
	}
	orig := Binary
	Binary = path
	t.Cleanup(func() { Binary = orig })
}

func fakePacmanMissing(t *testing.T) {
	t.Helper()
	orig := Binary
	Binary = filepath.Join(t.TempDir(), "no-such-binary")
	t.Cleanup(func() { Binary = orig })
}

func TestInstalledNames(t *testing.T) {
	fakePacman(t, "bash\nglibc\nlinux")
	got := InstalledNames(context.Background())
	want := []string{"bash", "glibc", "linux"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InstalledNames = %v, want %v", got, want)
	}
}

func TestInstalledNames_MissingBinaryDegradesGracefully(t *testing.T) {
	fakePacmanMissing(t)
	if got := InstalledNames(context.Background()); got != nil {
		t.Errorf("InstalledNames = %v, want nil on spawn failure", got)
	}
}

func TestExplicitlyInstalled_Full(t *testing.T) {
	fakePacman(t, "bash 5.2.15-1\nvim 9.0-1")
	got := ExplicitlyInstalled(context.Background(), false)
	want := []string{"bash", "vim"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExplicitlyInstalled = %v, want %v", got, want)
	}
}

func TestExplicitlyInstalled_LeavesOnly(t *testing.T) {
	fakePacman(t, "vim")
	got := ExplicitlyInstalled(context.Background(), true)
	if !reflect.DeepEqual(got, []string{"vim"}) {
		t.Errorf("ExplicitlyInstalled(leaves) = %v", got)
	}
}

func TestUpgradable(t *testing.T) {
	fakePacman(t, "bash 5.2.15-1 -> 5.2.26-1\nvim 9.0-1 -> 9.1-1")
	got := Upgradable(context.Background())
	want := []Upgrade{
		{Name: "bash", OldVersion: "5.2.15-1", NewVersion: "5.2.26-1"},
		{Name: "vim", OldVersion: "9.0-1", NewVersion: "9.1-1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Upgradable = %+v, want %+v", got, want)
	}
}

func TestInstalledVersion(t *testing.T) {
	fakePacman(t, "bash 5.2.15-1")
	if got := InstalledVersion(context.Background(), "bash"); got != "5.2.15-1" {
		t.Errorf("InstalledVersion = %q, want 5.2.15-1", got)
	}
}

func TestInstalledVersion_NotInstalled(t *testing.T) {
	fakePacman(t, "")
	if got := InstalledVersion(context.Background(), "nonexistent"); got != "" {
		t.Errorf("InstalledVersion = %q, want empty", got)
	}
}

func TestRepoVersion(t *testing.T) {
	fakePacman(t, "Name            : bash\nVersion         : 5.2.15-1\nRepository      : core\n")
	if got := RepoVersion(context.Background(), "bash"); got != "5.2.15-1" {
		t.Errorf("RepoVersion = %q, want 5.2.15-1", got)
	}
}

func TestInfo_RequiredBy(t *testing.T) {
	fakePacman(t, "Name            : glibc\nVersion         : 2.39-1\nRequired By     : bash\n                   coreutils\n")
	info := Info(context.Background(), "glibc")
	if info == nil {
		t.Fatal("Info = nil")
	}
	want := []string{"bash", "coreutils"}
	if !reflect.DeepEqual(info.RequiredBy, want) {
		t.Errorf("RequiredBy = %v, want %v", info.RequiredBy, want)
	}
}

func TestRequiredBy_NotInstalled(t *testing.T) {
	fakePacman(t, "")
	if got := RequiredBy(context.Background(), "nonexistent"); got != nil {
		t.Errorf("RequiredBy = %v, want nil", got)
	}
}

func TestBatchRepoInfo(t *testing.T) {
	fakePacman(t, "Name            : bash\nVersion         : 5.2.15-1\n\nName            : glibc\nVersion         : 2.39-1\n")
	got := BatchRepoInfo(context.Background(), []string{"bash", "glibc"})
	if len(got) != 2 || got["bash"].Version != "5.2.15-1" || got["glibc"].Version != "2.39-1" {
		t.Errorf("BatchRepoInfo = %+v", got)
	}
}

func TestBatchRepoInfo_EmptyNames(t *testing.T) {
	fakePacman(t, "should not be invoked")
	got := BatchRepoInfo(context.Background(), nil)
	if len(got) != 0 {
		t.Errorf("BatchRepoInfo(nil) = %v, want empty", got)
	}
}

func TestConfiguredRepos(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pacman.conf")
	content := "[options]\nArchitecture = auto\n\n[core]\nInclude = /etc/pacman.d/mirrorlist\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pacman.conf: %v", err)
	}
	repos := ConfiguredRepos(path)
	if len(repos) != 1 || repos[0].Name != "core" {
		t.Errorf("ConfiguredRepos = %+v", repos)
	}
}

func TestConfiguredRepos_MissingFile(t *testing.T) {
	if repos := ConfiguredRepos(filepath.Join(t.TempDir(), "missing.conf")); repos != nil {
		t.Errorf("ConfiguredRepos = %v, want nil for missing file", repos)
	}
}
