package metadata

import (
	"strings"

	"github.com/archtk/archtk/internal/core"
)

// PacmanInfo is one parsed colon-block from pacman -Si or -Qi output.
type PacmanInfo struct {
	Name          string
	Version       string
	Repository    string
	DependsOn     []core.DependencySpec
	ConflictsWith []string
	RequiredBy    []string
	Groups        []string
}

// recognized English field labels; pacman must run under LC_ALL=C for
// these to match, which internal/pacmanexec guarantees on every spawn.
const (
	labelName          = "Name"
	labelVersion       = "Version"
	labelRepository    = "Repository"
	labelDependsOn     = "Depends On"
	labelConflictsWith = "Conflicts With"
	labelRequiredBy    = "Required By"
	labelGroups        = "Groups"
)

const noneValue = "None"

// ParsePacmanInfo parses one or more "-Si"/"-Qi"-style colon blocks
// (blank-line separated) into a PacmanInfo per package, per spec.md §4.4.
func ParsePacmanInfo(output string) []PacmanInfo {
	var records []PacmanInfo
	var cur *PacmanInfo
	var field string
	var cont strings.Builder

	flushField := func() {
		if cur == nil || field == "" {
			return
		}
		applyField(cur, field, cont.String())
		field = ""
		cont.Reset()
	}

	for _, raw := range strings.Split(output, "\n") {
		if strings.TrimSpace(raw) == "" {
			flushField()
			if cur != nil && cur.Name != "" {
				records = append(records, *cur)
			}
			cur = nil
			continue
		}

		if isFieldLine(raw) {
			flushField()
			colon := strings.Index(raw, ":")
			key := strings.TrimSpace(raw[:colon])
			value := strings.TrimSpace(raw[colon+1:])
			if cur == nil {
				cur = &PacmanInfo{}
			}
			field = key
			cont.WriteString(value)
			continue
		}

		// continuation line: indented, belongs to the field above.
		if cur != nil && field != "" {
			cont.WriteString(" ")
			cont.WriteString(strings.TrimSpace(raw))
		}
	}
	flushField()
	if cur != nil && cur.Name != "" {
		records = append(records, *cur)
	}
	return records
}

// isFieldLine reports whether raw looks like "Label : value" rather than
// an indented continuation of the previous value.
func isFieldLine(raw string) bool {
	if raw == "" || raw[0] == ' ' || raw[0] == '\t' {
		return false
	}
	return strings.Contains(raw, ":")
}

func applyField(cur *PacmanInfo, key, value string) {
	switch key {
	case labelName:
		cur.Name = value
	case labelVersion:
		cur.Version = value
	case labelRepository:
		cur.Repository = value
	case labelDependsOn:
		cur.DependsOn = dedupSpecs(parseDependencySpecs(value))
	case labelConflictsWith:
		cur.ConflictsWith = dedup(splitTokens(value))
	case labelRequiredBy:
		cur.RequiredBy = dedup(splitTokens(value))
	case labelGroups:
		cur.Groups = dedup(splitTokens(value))
	}
}

func splitTokens(value string) []string {
	if value == noneValue || value == "" {
		return nil
	}
	return strings.Fields(value)
}

func parseDependencySpecs(value string) []core.DependencySpec {
	tokens := splitTokens(value)
	specs := make([]core.DependencySpec, 0, len(tokens))
	for _, t := range tokens {
		specs = append(specs, ParseDependencyToken(t))
	}
	return specs
}

func dedupSpecs(specs []core.DependencySpec) []core.DependencySpec {
	if len(specs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(specs))
	out := make([]core.DependencySpec, 0, len(specs))
	for _, s := range specs {
		if seen[s.String()] {
			continue
		}
		seen[s.String()] = true
		out = append(out, s)
	}
	return out
}

// ParseDependencyToken splits a "name[<op><ver>]" token (as found in
// pacman output, PKGBUILD arrays, and .SRCINFO lines) into a
// core.DependencySpec. Operators are checked longest-first so ">=" and
// "<=" aren't mistaken for ">"/"<".
func ParseDependencyToken(tok string) core.DependencySpec {
	for _, op := range []core.RequirementOp{core.OpGE, core.OpLE, core.OpEq, core.OpGT, core.OpLT} {
		if i := strings.Index(tok, string(op)); i >= 0 {
			return core.DependencySpec{Name: tok[:i], Op: op, Ver: tok[i+len(op):]}
		}
	}
	return core.DependencySpec{Name: tok}
}
