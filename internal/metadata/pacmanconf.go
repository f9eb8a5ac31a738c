package metadata

import "strings"

// Repo is one configured repository section from pacman.conf.
type Repo struct {
	Name   string
	Server string // raw Server= or Include= value, unexpanded
}

// ParsePacmanConf enumerates the repository sections of a pacman.conf file
// (the supplemented feature noted in SPEC_FULL.md §9): every "[section]"
// other than the reserved "[options]" block is a repository. The forward
// resolver does not consult it: its is_core flag compares the repository
// name with "core".
func ParsePacmanConf(content string) []Repo {
	var repos []Repo
	curIdx := -1

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := line[1 : len(line)-1]
			if name == "options" {
				curIdx = -1
				continue
			}
			repos = append(repos, Repo{Name: name})
			curIdx = len(repos) - 1
			continue
		}

		if curIdx < 0 {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		value := strings.TrimSpace(line[eq+1:])
		if (key == "server" || key == "include") && repos[curIdx].Server == "" {
			repos[curIdx].Server = value
		}
	}
	return repos
}
