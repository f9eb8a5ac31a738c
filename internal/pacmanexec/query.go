// Package pacmanexec wraps the local pacman binary per spec.md §4.6: each
// exported query spawns pacman with specific flags, captures stdout, and
// feeds it through internal/metadata. Every query degrades gracefully on a
// non-Arch host — a missing binary or non-zero exit yields an empty
// collection rather than an error, so callers observe the same surface
// everywhere.
package pacmanexec

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/archtk/archtk/internal/metadata"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Binary is the pacman executable name, overridable in tests.
var Binary = "pacman"

// run spawns pacman with LC_ALL=C so field labels in -Si/-Qi output stay
// in English regardless of the host locale, and swallows spawn/exit
// failures into an empty result per the graceful-degradation contract.
func run(ctx context.Context, args ...string) string {
	cmd := exec.CommandContext(ctx, Binary, args...)
	cmd.Env = append(envWithoutLocale(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}

func envWithoutLocale() []string {
	base := []string{}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "LC_ALL=") || strings.HasPrefix(kv, "LANG=") {
			continue
		}
		base = append(base, kv)
	}
	return base
}

// InstalledNames returns every installed package name (pacman -Qq).
func InstalledNames(ctx context.Context) []string {
	names := strings.Fields(run(ctx, "-Qq"))
	if len(names) == 0 {
		return nil
	}
	return names
}

// ExplicitlyInstalled returns explicitly installed package names
// (pacman -Qe), or just the leaves when leavesOnly is set (pacman -Qetq).
func ExplicitlyInstalled(ctx context.Context, leavesOnly bool) []string {
	if leavesOnly {
		return strings.Fields(run(ctx, "-Qetq"))
	}
	out := run(ctx, "-Qe")
	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// Upgrade describes one entry from pacman -Qu: a package with a newer
// version available in the configured repos.
type Upgrade struct {
	Name       string
	OldVersion string
	NewVersion string
}

// Upgradable returns every package with a pending upgrade (pacman -Qu).
// Lines look like "name old-version -> new-version".
func Upgradable(ctx context.Context) []Upgrade {
	out := run(ctx, "-Qu")
	var upgrades []Upgrade
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "->" {
			continue
		}
		upgrades = append(upgrades, Upgrade{Name: fields[0], OldVersion: fields[1], NewVersion: fields[3]})
	}
	return upgrades
}

// InstalledVersion returns the installed version of name, or "" if it is
// not installed (pacman -Q <name>).
func InstalledVersion(ctx context.Context, name string) string {
	out := run(ctx, "-Q", name)
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// RepoVersion returns the version of name available in the configured
// repos, or "" if it isn't there (pacman -Si <name>, Version field).
func RepoVersion(ctx context.Context, name string) string {
	records := metadata.ParsePacmanInfo(run(ctx, "-Si", name))
	if len(records) == 0 {
		return ""
	}
	return records[0].Version
}

// Info returns the parsed pacman -Qi block for an installed package, or
// nil if it isn't installed.
func Info(ctx context.Context, name string) *metadata.PacmanInfo {
	return firstInfo(run(ctx, "-Qi", name))
}

// RepoInfo returns the parsed pacman -Si block for a repo package, or nil
// if it isn't found in any configured repo.
func RepoInfo(ctx context.Context, name string) *metadata.PacmanInfo {
	return firstInfo(run(ctx, "-Si", name))
}

// BatchRepoInfo runs a single pacman -Si across all names and returns the
// parsed blocks keyed by package name, per the §4.7 batch-query step.
// Names that pacman can't find are simply absent from the result.
func BatchRepoInfo(ctx context.Context, names []string) map[string]metadata.PacmanInfo {
	result := make(map[string]metadata.PacmanInfo, len(names))
	if len(names) == 0 {
		return result
	}
	args := append([]string{"-Si"}, names...)
	for _, rec := range metadata.ParsePacmanInfo(run(ctx, args...)) {
		result[rec.Name] = rec
	}
	return result
}

// RequiredBy returns the installed reverse dependents of name per its
// pacman -Qi "Required By" field (has_installed_required_by /
// get_installed_required_by in §4.8).
func RequiredBy(ctx context.Context, name string) []string {
	info := Info(ctx, name)
	if info == nil {
		return nil
	}
	return info.RequiredBy
}

func firstInfo(output string) *metadata.PacmanInfo {
	records := metadata.ParsePacmanInfo(output)
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}

// PacmanConfPath is the default location of pacman's configuration file.
const PacmanConfPath = "/etc/pacman.conf"

// ConfiguredRepos enumerates the repository sections of pacman.conf at
// path. Returns nil if the file can't be read.
func ConfiguredRepos(path string) []metadata.Repo {
	content, err := readFile(path)
	if err != nil {
		return nil
	}
	return metadata.ParsePacmanConf(content)
}
