package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/haasonsaas/conduit/pkg/models"
)

// Selector resolves the active skill set for a request from the configured
// base directories and the env-level disable list.
type Selector struct {
	// BaseDirs are the configured skill directory roots. Empty means
	// skills are unmanaged and requests pass through untouched.
	BaseDirs []string

	// EnvDisabled are skill names disabled process-wide.
	EnvDisabled []string

	cache *discoveryCache
}

// NewSelector creates a selector over the given base directories.
func NewSelector(baseDirs, envDisabled []string) *Selector {
	return &Selector{
		BaseDirs:    baseDirs,
		EnvDisabled: envDisabled,
		cache:       newDiscoveryCache(),
	}
}

// InvalidateCache drops memoized discovery results. The directory watcher
// calls this when a skill directory changes on disk.
func (s *Selector) InvalidateCache() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// Select resolves the skill configuration for one request.
func (s *Selector) Select(ec models.ExecutionContext) SelectionResult {
	if len(s.BaseDirs) == 0 {
		return SelectionResult{
			DisabledSkills: dedupeSorted(s.EnvDisabled),
			Mode:           ModeGlobal,
		}
	}

	dirs, mode := s.resolveDirectories(ec.AgentID)

	if len(ec.SkillNames) == 0 {
		return SelectionResult{
			SkillDirectories: dedupeSorted(dirs),
			DisabledSkills:   dedupeSorted(s.EnvDisabled),
			Mode:             mode,
		}
	}

	discovered := s.discover(dirs)
	discoveredNames := make(map[string]bool, len(discovered))
	for _, skill := range discovered {
		discoveredNames[skill.Name] = true
	}

	requested := make(map[string]bool, len(ec.SkillNames))
	var selected, missing []string
	for _, name := range ec.SkillNames {
		requested[name] = true
		if discoveredNames[name] {
			selected = append(selected, name)
		} else {
			missing = append(missing, name)
		}
	}

	// Every discovered skill outside the requested subset is explicitly
	// disabled so the session cannot activate it.
	disabled := append([]string(nil), s.EnvDisabled...)
	for name := range discoveredNames {
		if !requested[name] {
			disabled = append(disabled, name)
		}
	}

	return SelectionResult{
		SkillDirectories:      dedupeSorted(dirs),
		DisabledSkills:        dedupeSorted(disabled),
		SelectedSkillNames:    dedupeSorted(selected),
		MissingRequiredSkills: dedupeSorted(missing),
		Mode:                  mode,
	}
}

// resolveDirectories scopes the base set to the agent. Scoping anchors on
// the agent's own directory: only bases with agents/<id>/ contribute, with
// shared/ riding along when present. An agent with no directory under any
// base sees the full base set in global mode; a shared/ directory alone
// does not switch modes.
func (s *Selector) resolveDirectories(agentID string) ([]string, Mode) {
	var scoped []string
	if agentID != "" {
		for _, base := range s.BaseDirs {
			agentDir := filepath.Join(base, "agents", agentID)
			if !dirExists(agentDir) {
				continue
			}
			if shared := filepath.Join(base, "shared"); dirExists(shared) {
				scoped = append(scoped, shared)
			}
			scoped = append(scoped, agentDir)
		}
	}
	if len(scoped) > 0 {
		return scoped, ModeAgentScoped
	}
	return append([]string(nil), s.BaseDirs...), ModeGlobal
}

func (s *Selector) discover(dirs []string) []*Skill {
	if s.cache != nil {
		if skills, ok := s.cache.get(dirs); ok {
			return skills
		}
	}
	skills := Discover(dirs)
	if s.cache != nil {
		s.cache.put(dirs, skills)
	}
	return skills
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// dedupeSorted returns a sorted copy of names with duplicates and empty
// entries removed. Nil in, nil out, so equality checks stay simple.
func dedupeSorted(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
