// Package resolve implements the two stateful orchestrations built atop
// the parsers, local queries, and network client: a forward dependency
// resolver and a reverse dependency analyzer (spec.md §4.7, §4.8).
package resolve

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/archtk/archtk/internal/core"
	"github.com/archtk/archtk/internal/metadata"
	"github.com/archtk/archtk/internal/pacmanexec"
	"github.com/archtk/archtk/internal/version"
)

// AURSource is the narrow seam the forward resolver needs from an AUR
// client: enough to fetch a PKGBUILD/.SRCINFO fallback when check_aur is
// set, without importing internal/aur's full Client (which would also
// pull in its network-transport and cache dependencies into every test
// that exercises the resolver).
type AURSource interface {
	Pkgbuild(ctx context.Context, name string) (string, error)
	Srcinfo(ctx context.Context, name string) (string, error)
}

// ForwardOptions configures a forward Resolve call, per spec.md §4.7.
type ForwardOptions struct {
	IncludeOptDepends   bool
	IncludeMakeDepends  bool
	IncludeCheckDepends bool
	MaxDepth            int // 0 = direct dependencies only

	// PkgbuildCache, when set, supplies PKGBUILD text for an AUR root
	// without a network round trip (e.g. a caller-side clone already on
	// disk).
	PkgbuildCache func(name string) (string, bool)
	CheckAUR      bool

	// SkipDependency lets a caller exclude names from the graph beyond
	// the built-in virtual-soname filter.
	SkipDependency func(name string) bool
}

var sonameDependency = regexp.MustCompile(`\.so(\.[0-9]+)*(=.*)?$`)

// systemCritical lists the exact names spec.md §4.7 step 5 calls a "fixed
// list of critical-package patterns"; linux* is matched by prefix below.
var systemCritical = map[string]bool{
	"pacman":     true,
	"glibc":      true,
	"systemd":    true,
	"bash":       true,
	"filesystem": true,
}

func isSystemCritical(name string) bool {
	if systemCritical[name] {
		return true
	}
	return strings.HasPrefix(name, "linux")
}

func shouldFilterDependency(name string, skip func(string) bool) bool {
	if name == "" {
		return true
	}
	if sonameDependency.MatchString(name) {
		return true
	}
	if skip != nil && skip(name) {
		return true
	}
	return false
}

// Resolver runs forward dependency resolution against the local pacman
// installation and, optionally, the AUR.
type Resolver struct {
	Options ForwardOptions
	AUR     AURSource
}

// NewResolver builds a Resolver. aurSource may be nil when
// Options.CheckAUR is false.
func NewResolver(opts ForwardOptions, aurSource AURSource) *Resolver {
	return &Resolver{Options: opts, AUR: aurSource}
}

// node is the resolver's working state for one discovered name: the
// merged Dependency plus bookkeeping needed while the BFS is in flight.
type node struct {
	dep       core.Dependency
	seenOrder int
}

// Resolve runs the algorithm of spec.md §4.7 over roots.
func (r *Resolver) Resolve(ctx context.Context, roots []core.PackageRef) (*core.DependencyResolution, error) {
	nodes := make(map[string]*node)
	var order []string

	level := roots
	for depth := 0; len(level) > 0; depth++ {
		official := make([]string, 0, len(level))
		for _, ref := range level {
			if ref.Source.Kind == core.SourceOfficial {
				official = append(official, ref.Name)
			}
		}
		batch := pacmanexec.BatchRepoInfo(ctx, official)

		var nextLevel []core.PackageRef
		for _, ref := range level {
			specs, conflicts, err := r.collectRaw(ctx, ref, batch)
			if err != nil {
				return nil, &core.ResolveError{Roots: namesOf(roots), Err: err}
			}

			var depNames []string
			for _, spec := range specs {
				if shouldFilterDependency(spec.Name, r.Options.SkipDependency) {
					continue
				}
				depNames = append(depNames, spec.Name)
				status, source := r.determineStatus(ctx, spec, batch)
				r.merge(nodes, &order, spec.Name, spec.Requirement(), status, source, ref.Name)

				if status.Kind != core.StatusConflict && depth < r.Options.MaxDepth {
					nextLevel = append(nextLevel, core.PackageRef{Name: spec.Name, Source: source})
				}
			}
			if n, ok := nodes[ref.Name]; ok {
				n.dep.DependsOn = mergeUnique(n.dep.DependsOn, depNames)
			}

			for _, conflictName := range conflicts {
				if conflictName == "" {
					continue
				}
				if installed := pacmanexec.InstalledVersion(ctx, conflictName); installed != "" {
					_, source := r.determineStatus(ctx, core.DependencySpec{Name: conflictName}, batch)
					status := core.DependencyStatus{Kind: core.StatusConflict, Reason: "conflicts with " + ref.Name}
					r.merge(nodes, &order, conflictName, "", status, source, ref.Name)
				}
			}
		}
		level = nextLevel
	}

	sort.SliceStable(order, func(i, j int) bool {
		return nodes[order[i]].seenOrder < nodes[order[j]].seenOrder
	})

	resolution := &core.DependencyResolution{}
	for _, name := range order {
		dep := nodes[name].dep
		resolution.Dependencies = append(resolution.Dependencies, dep)
		switch dep.Status.Kind {
		case core.StatusConflict:
			resolution.Conflicts = append(resolution.Conflicts, dep)
		case core.StatusMissing:
			resolution.Missing = append(resolution.Missing, dep)
		}
	}
	return resolution, nil
}

// collectRaw gathers a root's direct DependencySpecs and raw conflict names,
// by source (spec.md §4.7 step 1).
func (r *Resolver) collectRaw(ctx context.Context, ref core.PackageRef, batch map[string]metadata.PacmanInfo) ([]core.DependencySpec, []string, error) {
	switch ref.Source.Kind {
	case core.SourceOfficial:
		info, ok := batch[ref.Name]
		if !ok {
			return nil, nil, nil
		}
		return info.DependsOn, info.ConflictsWith, nil

	case core.SourceLocal:
		info := pacmanexec.Info(ctx, ref.Name)
		if info == nil {
			return nil, nil, nil
		}
		return info.DependsOn, info.ConflictsWith, nil

	case core.SourceAUR:
		if r.Options.PkgbuildCache != nil {
			if cached, ok := r.Options.PkgbuildCache(ref.Name); ok {
				return r.specsFromPKGBUILD(cached), nil, nil
			}
		}
		if r.Options.CheckAUR && r.AUR != nil {
			text, err := r.AUR.Srcinfo(ctx, ref.Name)
			if err != nil {
				// not a hard failure: the root contributes no dependencies
				// and is not itself added to the output
				return nil, nil, nil
			}
			data, err := metadata.ParseSrcinfo(text)
			if err != nil || data == nil {
				return nil, nil, nil
			}
			return r.specsFromSrcinfo(data), data.Conflicts, nil
		}
		return nil, nil, nil

	default:
		return nil, nil, nil
	}
}

func (r *Resolver) specsFromPKGBUILD(content string) []core.DependencySpec {
	arrays := metadata.ParsePKGBUILDArrays(content)
	var tokens []string
	tokens = append(tokens, arrays.Depends...)
	if r.Options.IncludeMakeDepends {
		tokens = append(tokens, arrays.MakeDepends...)
	}
	if r.Options.IncludeCheckDepends {
		tokens = append(tokens, arrays.CheckDepends...)
	}
	if r.Options.IncludeOptDepends {
		tokens = append(tokens, arrays.OptDepends...)
	}
	specs := make([]core.DependencySpec, 0, len(tokens))
	for _, tok := range tokens {
		specs = append(specs, metadata.ParseDependencyToken(tok))
	}
	return specs
}

func (r *Resolver) specsFromSrcinfo(data *core.SrcinfoData) []core.DependencySpec {
	var tokens []string
	tokens = append(tokens, data.Depends...)
	if r.Options.IncludeMakeDepends {
		tokens = append(tokens, data.MakeDepends...)
	}
	if r.Options.IncludeCheckDepends {
		tokens = append(tokens, data.CheckDepends...)
	}
	if r.Options.IncludeOptDepends {
		tokens = append(tokens, data.OptDepends...)
	}
	specs := make([]core.DependencySpec, 0, len(tokens))
	for _, tok := range tokens {
		specs = append(specs, metadata.ParseDependencyToken(tok))
	}
	return specs
}

// determineStatus implements spec.md §4.7 step 2's status and source
// determination for one raw dependency spec.
func (r *Resolver) determineStatus(ctx context.Context, spec core.DependencySpec, batch map[string]metadata.PacmanInfo) (core.DependencyStatus, core.PackageSource) {
	installed := pacmanexec.InstalledVersion(ctx, spec.Name)
	source := r.probeSource(ctx, spec.Name, batch)

	if installed != "" {
		if spec.Op == core.OpNone || spec.Ver == "" {
			return core.DependencyStatus{Kind: core.StatusInstalled, Current: installed}, source
		}
		ok, err := version.Satisfies(installed, string(spec.Op), spec.Ver)
		if err == nil && ok {
			return core.DependencyStatus{Kind: core.StatusInstalled, Current: installed}, source
		}
		return core.DependencyStatus{Kind: core.StatusToUpgrade, Current: installed, Required: spec.Requirement()}, source
	}

	if source.Kind != core.SourceUnknown {
		return core.DependencyStatus{Kind: core.StatusToInstall}, source
	}
	return core.DependencyStatus{Kind: core.StatusMissing}, source
}

// probeSource determines where a name lives: an already-fetched official
// batch record, a fresh per-name repo lookup, or (if configured) the AUR.
func (r *Resolver) probeSource(ctx context.Context, name string, batch map[string]metadata.PacmanInfo) core.PackageSource {
	if info, ok := batch[name]; ok {
		return core.PackageSource{Kind: core.SourceOfficial, Repo: info.Repository}
	}
	if info := pacmanexec.RepoInfo(ctx, name); info != nil {
		return core.PackageSource{Kind: core.SourceOfficial, Repo: info.Repository}
	}
	if r.Options.CheckAUR && r.AUR != nil {
		if _, err := r.AUR.Pkgbuild(ctx, name); err == nil {
			return core.PackageSource{Kind: core.SourceAUR}
		}
	}
	return core.PackageSource{Kind: core.SourceUnknown}
}

// merge implements spec.md §4.7 step 3: union RequiredBy, keep the
// higher-priority status, first-seen order wins for output ordering.
func (r *Resolver) merge(nodes map[string]*node, order *[]string, name, requirement string, status core.DependencyStatus, source core.PackageSource, requiredBy string) {
	n, ok := nodes[name]
	if !ok {
		n = &node{
			dep: core.Dependency{
				Name:        name,
				Requirement: requirement,
				Status:      status,
				Source:      source,
				RequiredBy:  []string{requiredBy},
				IsCore:      source.Repo == "core",
				IsSystem:    isSystemCritical(name),
			},
			seenOrder: len(*order),
		}
		nodes[name] = n
		*order = append(*order, name)
		return
	}
	n.dep.RequiredBy = mergeUnique(n.dep.RequiredBy, []string{requiredBy})
	if status.Priority() >= n.dep.Status.Priority() {
		n.dep.Status = status
		if requirement != "" {
			n.dep.Requirement = requirement
		}
	}
	if source.Kind != core.SourceUnknown {
		n.dep.Source = source
		n.dep.IsCore = source.Repo == "core"
	}
}

func mergeUnique(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range add {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		existing = append(existing, v)
	}
	return existing
}

func namesOf(refs []core.PackageRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}
