package skills

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Discover finds all skills under the given directories. A skill is any
// immediate subdirectory containing a SKILL.md manifest. Unreadable
// directories and malformed manifests are skipped.
func Discover(dirs []string) []*Skill {
	var found []*Skill
	seen := make(map[string]bool)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			manifest := filepath.Join(dir, entry.Name(), ManifestFilename)
			if _, err := os.Stat(manifest); err != nil {
				continue
			}
			skill, err := ParseManifest(manifest)
			if err != nil || skill.Name == "" {
				continue
			}
			if seen[skill.Name] {
				continue
			}
			seen[skill.Name] = true
			found = append(found, skill)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found
}

// discoveryCache memoizes Discover results per directory set until
// invalidated (for example by the directory watcher).
type discoveryCache struct {
	mu      sync.Mutex
	entries map[string][]*Skill
}

func newDiscoveryCache() *discoveryCache {
	return &discoveryCache{entries: make(map[string][]*Skill)}
}

func (c *discoveryCache) get(dirs []string) ([]*Skill, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	skills, ok := c.entries[cacheKey(dirs)]
	return skills, ok
}

func (c *discoveryCache) put(dirs []string, skills []*Skill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(dirs)] = skills
}

// Invalidate drops all cached discovery results.
func (c *discoveryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]*Skill)
}

func cacheKey(dirs []string) string {
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)
	key := ""
	for _, d := range sorted {
		key += d + string(os.PathListSeparator)
	}
	return key
}
