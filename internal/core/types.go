// Package core provides the shared types, error taxonomy, and HTTP
// transport used across the AUR client, the metadata parsers, and the
// dependency resolvers.
package core

import (
	"encoding/json"
	"time"
)

// PackageSummary is the result of an AUR search: one row per match.
type PackageSummary struct {
	Name        string
	Version     string
	Description string
	Maintainer  string // empty when orphaned
	Popularity  *float64
	OutOfDate   *int64 // unix seconds, nil if not flagged out of date
	Orphaned    bool
}

// PackageDetails is the result of an AUR info lookup: everything a
// PackageSummary carries plus the full dependency graph and provenance.
type PackageDetails struct {
	PackageSummary

	URL            string
	Licenses       []string
	Depends        []string
	MakeDepends    []string
	CheckDepends   []string
	OptDepends     []string
	Provides       []string
	Conflicts      []string
	Replaces       []string
	FirstSubmitted *int64
	LastModified   *int64
	NumVotes       int
}

// Comment is one entry from an AUR package's comment feed.
type Comment struct {
	ID        string // empty when the page does not expose one
	Author    string
	DateText  string // human-readable date as rendered by AUR
	Timestamp *time.Time
	Body      string
	Pinned    bool
}

// RequirementOp is one of the five comparison operators a DependencySpec's
// version requirement may carry.
type RequirementOp string

const (
	OpNone RequirementOp = ""
	OpEq   RequirementOp = "="
	OpGE   RequirementOp = ">="
	OpLE   RequirementOp = "<="
	OpGT   RequirementOp = ">"
	OpLT   RequirementOp = "<"
)

// DependencySpec is a parsed "name[op ver]" token, as found in pacman
// output, PKGBUILD arrays, and .SRCINFO lines.
type DependencySpec struct {
	Name string
	Op   RequirementOp
	Ver  string
}

// Requirement renders the operator and version back into a single string,
// e.g. ">=1.2.3", or the empty string when there is no constraint.
func (d DependencySpec) Requirement() string {
	if d.Op == OpNone || d.Ver == "" {
		return ""
	}
	return string(d.Op) + d.Ver
}

func (d DependencySpec) String() string {
	return d.Name + d.Requirement()
}

// PackageSource identifies which backend a Dependency (or PackageRef)
// ultimately came from.
type PackageSource struct {
	Kind PackageSourceKind
	Repo string // populated when Kind == SourceOfficial
}

// PackageSourceKind is the closed set of places a package can live.
type PackageSourceKind int

const (
	SourceUnknown PackageSourceKind = iota
	SourceOfficial
	SourceAUR
	SourceLocal
)

func (k PackageSourceKind) String() string {
	switch k {
	case SourceOfficial:
		return "official"
	case SourceAUR:
		return "aur"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// PackageRef names a root package fed into the forward resolver: a name,
// an optional known version, and the backend it was found on.
type PackageRef struct {
	Name    string
	Version string
	Source  PackageSource
}

// DependencyStatusKind is the closed set of states a resolved Dependency
// can be in. Ordered from lowest to highest merge priority, matching the
// invariant in spec.md §3: Conflict > Missing > ToUpgrade > ToInstall >
// Installed.
type DependencyStatusKind int

const (
	StatusInstalled DependencyStatusKind = iota
	StatusToInstall
	StatusToUpgrade
	StatusMissing
	StatusConflict
)

// DependencyStatus carries a DependencyStatusKind plus the fields specific
// to that kind (current/required versions, a conflict reason).
type DependencyStatus struct {
	Kind     DependencyStatusKind
	Current  string // Installed, ToUpgrade
	Required string // ToUpgrade
	Reason   string // Conflict
}

// Priority returns where this status sits in the merge-priority order; a
// higher number wins when two Dependency records for the same name merge.
func (s DependencyStatus) Priority() int {
	return int(s.Kind)
}

// Dependency is one node in a resolver's output graph.
type Dependency struct {
	Name        string
	Requirement string
	Status      DependencyStatus
	Source      PackageSource
	RequiredBy  []string
	DependsOn   []string
	IsCore      bool
	IsSystem    bool
}

// SrcinfoPackage is one pkgname section of a .SRCINFO file. Its arrays
// hold only the entries declared inside that section; the pkgbase
// section's arrays stay on SrcinfoData and are not copied in.
type SrcinfoPackage struct {
	Pkgname      string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Provides     []string
	Conflicts    []string
	Replaces     []string
}

// SrcinfoData is the parsed contents of a .SRCINFO file.
type SrcinfoData struct {
	Pkgbase string
	Pkgver  string
	Pkgrel  string

	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Provides     []string
	Conflicts    []string
	Replaces     []string

	Packages []SrcinfoPackage
}

// DependencyResolution is the output of the forward dependency resolver:
// the full merged dependency graph plus two convenience views over it.
type DependencyResolution struct {
	Dependencies []Dependency // every resolved dependency, any status
	Conflicts    []Dependency // subset with Status.Kind == StatusConflict
	Missing      []Dependency // subset with Status.Kind == StatusMissing
}

// ReverseRootSummary is the per-root tally in a ReverseReport.
type ReverseRootSummary struct {
	Root       string
	Direct     int
	Transitive int
	Total      int
}

// ReverseReport is the output of the reverse dependency analyzer.
type ReverseReport struct {
	Dependents []Dependency
	Summaries  []ReverseRootSummary
}

// OfficialPackage is one row of an official-repository index.
type OfficialPackage struct {
	Name         string
	Version      string
	Description  string
	Repository   string
	Architecture string
}

// OfficialIndex holds an ordered list of OfficialPackage plus a name index
// rebuilt on deserialization; every entry in Packages is addressable by
// name exactly once via ByName.
type OfficialIndex struct {
	Packages []OfficialPackage
	ByName   map[string]int
}

// NewOfficialIndex builds an OfficialIndex from an unordered slice,
// rebuilding the name-to-position map.
func NewOfficialIndex(pkgs []OfficialPackage) *OfficialIndex {
	idx := &OfficialIndex{
		Packages: pkgs,
		ByName:   make(map[string]int, len(pkgs)),
	}
	for i, p := range pkgs {
		idx.ByName[p.Name] = i
	}
	return idx
}

// UnmarshalJSON decodes Packages and rebuilds ByName from them, ignoring
// any ByName present in data.
func (idx *OfficialIndex) UnmarshalJSON(data []byte) error {
	var raw struct{ Packages []OfficialPackage }
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*idx = *NewOfficialIndex(raw.Packages)
	return nil
}

// Lookup returns the package with the given name, if present.
func (idx *OfficialIndex) Lookup(name string) (OfficialPackage, bool) {
	i, ok := idx.ByName[name]
	if !ok {
		return OfficialPackage{}, false
	}
	return idx.Packages[i], true
}

// HealthState is the closed set of outcomes a health probe can report.
type HealthState int

const (
	Healthy HealthState = iota
	Degraded
	Unreachable
	TimedOut
)

func (h HealthState) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unreachable:
		return "unreachable"
	case TimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// HealthStatus is the result of a health_check() call.
type HealthStatus struct {
	State   HealthState
	Latency time.Duration
}
