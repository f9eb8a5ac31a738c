package resolve

import (
	"context"

	"github.com/archtk/archtk/internal/core"
	"github.com/archtk/archtk/internal/pacmanexec"
)

// ReverseAnalyzer runs the breadth-first reverse-dependency traversal of
// spec.md §4.8 over the locally installed package set.
type ReverseAnalyzer struct{}

// NewReverseAnalyzer builds a ReverseAnalyzer. It carries no configuration:
// the traversal is driven entirely by the local pacman database.
func NewReverseAnalyzer() *ReverseAnalyzer { return &ReverseAnalyzer{} }

type queueEntry struct {
	name  string
	depth int
	root  string
}

// Analyze walks the "Required By" graph outward from each removal
// candidate in roots, classifying every installed dependent as direct
// (depth 0) or transitive. A dependent that is itself one of the removal
// roots is flagged Conflict; every other dependent is Installed.
func (a *ReverseAnalyzer) Analyze(ctx context.Context, roots []core.PackageRef) (*core.ReverseReport, error) {
	report := &core.ReverseReport{}
	summaries := make(map[string]*core.ReverseRootSummary, len(roots))
	for _, root := range roots {
		summaries[root.Name] = &core.ReverseRootSummary{Root: root.Name}
	}

	nodes := make(map[string]*node)
	var order []string
	// countedPerRoot dedups "reached from multiple roots" per §4.8 step 2.
	countedPerRoot := make(map[[2]string]bool)

	var queue []queueEntry
	for _, root := range roots {
		queue = append(queue, queueEntry{name: root.Name, depth: 0, root: root.Name})
	}

	visited := make(map[string]bool)
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]
		if visited[entry.name] {
			continue
		}
		visited[entry.name] = true

		info := pacmanexec.Info(ctx, entry.name)
		if info == nil {
			continue
		}

		for _, dependent := range info.RequiredBy {
			key := [2]string{dependent, entry.root}
			if countedPerRoot[key] {
				continue
			}
			countedPerRoot[key] = true

			status := core.DependencyStatus{Kind: core.StatusInstalled, Current: pacmanexec.InstalledVersion(ctx, dependent)}
			if isRemovalTarget(dependent, roots) {
				status = core.DependencyStatus{Kind: core.StatusConflict, Reason: "depends on " + entry.root}
			}
			source := core.PackageSource{Kind: core.SourceLocal}
			if repoInfo := pacmanexec.RepoInfo(ctx, dependent); repoInfo != nil {
				source = core.PackageSource{Kind: core.SourceOfficial, Repo: repoInfo.Repository}
			}

			n, ok := nodes[dependent]
			if !ok {
				n = &node{dep: core.Dependency{
					Name:       dependent,
					Status:     status,
					Source:     source,
					RequiredBy: []string{entry.name},
					IsCore:     source.Repo == "core",
					IsSystem:   isSystemCritical(dependent),
				}, seenOrder: len(order)}
				nodes[dependent] = n
				order = append(order, dependent)
			} else {
				n.dep.RequiredBy = mergeUnique(n.dep.RequiredBy, []string{entry.name})
				if status.Priority() > n.dep.Status.Priority() {
					n.dep.Status = status
				}
			}

			summary := summaries[entry.root]
			if entry.depth == 0 {
				summary.Direct++
			} else {
				summary.Transitive++
			}
			summary.Total++

			queue = append(queue, queueEntry{name: dependent, depth: entry.depth + 1, root: entry.root})
		}
	}

	for _, name := range order {
		report.Dependents = append(report.Dependents, nodes[name].dep)
	}
	for _, root := range roots {
		report.Summaries = append(report.Summaries, *summaries[root.Name])
	}
	return report, nil
}

func isRemovalTarget(name string, roots []core.PackageRef) bool {
	for _, r := range roots {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasInstalledRequiredBy is the has_installed_required_by(name) helper of
// spec.md §4.8: a depth-0 shortcut over the same pacman -Qi parse.
func HasInstalledRequiredBy(ctx context.Context, name string) bool {
	return len(pacmanexec.RequiredBy(ctx, name)) > 0
}

// GetInstalledRequiredBy is the get_installed_required_by(name) helper of
// spec.md §4.8.
func GetInstalledRequiredBy(ctx context.Context, name string) []string {
	return pacmanexec.RequiredBy(ctx, name)
}
