package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFilename is the expected manifest name inside a skill dir.
	ManifestFilename = "SKILL.md"

	// frontmatterDelimiter marks the YAML frontmatter boundaries.
	frontmatterDelimiter = "---"
)

// ParseManifest reads a SKILL.md file and returns the skill it declares.
// A missing or empty frontmatter name falls back to the directory name.
func ParseManifest(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	dir := filepath.Dir(path)
	skill := &Skill{Path: dir}

	frontmatter, err := splitFrontmatter(data)
	if err == nil {
		if yamlErr := yaml.Unmarshal(frontmatter, skill); yamlErr != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", yamlErr)
		}
	}
	if strings.TrimSpace(skill.Name) == "" {
		skill.Name = filepath.Base(dir)
	}
	skill.Name = strings.TrimSpace(skill.Name)
	skill.Path = dir

	return skill, nil
}

// splitFrontmatter returns the YAML frontmatter block of a manifest.
func splitFrontmatter(data []byte) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty manifest")
	}
	if strings.TrimSpace(scanner.Text()) != frontmatterDelimiter {
		return nil, fmt.Errorf("missing opening frontmatter delimiter")
	}

	var lines []string
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == frontmatterDelimiter {
			return []byte(strings.Join(lines, "\n")), nil
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return nil, fmt.Errorf("missing closing frontmatter delimiter")
}
