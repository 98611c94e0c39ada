// Package skills resolves which capability bundles are active for a
// request. A skill is a directory containing a SKILL.md manifest; selection
// scopes the configured skill directories to the requesting agent and turns
// an explicit skill subset into a disable list for everything else.
package skills

// Mode describes how skill directories were resolved for a request.
type Mode string

const (
	// ModeGlobal means the full configured directory set applies (or
	// skills are unmanaged entirely).
	ModeGlobal Mode = "global"

	// ModeAgentScoped means shared/ and agents/<id>/ subdirectories were
	// found and the request is scoped to those.
	ModeAgentScoped Mode = "agent-scoped"
)

// Skill is one discovered capability bundle.
type Skill struct {
	// Name is the skill identifier from the manifest's frontmatter,
	// falling back to the directory name.
	Name string `yaml:"name"`

	// Description explains what the skill does.
	Description string `yaml:"description"`

	// Path is the skill's directory.
	Path string `yaml:"-"`
}

// SelectionResult is the resolved skill configuration for one request.
// All lists are deduplicated and sorted so results compare stably.
type SelectionResult struct {
	// SkillDirectories are the directories the session should load.
	SkillDirectories []string

	// DisabledSkills are skill names the session must not activate: the
	// env-level disable list plus, when an explicit subset was requested,
	// every discovered skill outside that subset.
	DisabledSkills []string

	// SelectedSkillNames are the requested skills that were found.
	SelectedSkillNames []string

	// MissingRequiredSkills are requested skills that were not found.
	MissingRequiredSkills []string

	// Mode records how the directories were resolved.
	Mode Mode
}
