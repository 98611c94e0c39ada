// Package config defines conduit's configuration surface and its YAML
// loader. Each concern gets its own struct; defaults are applied on load
// so zero-value configs are always usable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/conduit/internal/compaction"
)

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Tools     ToolsConfig     `yaml:"tools"`
	Skills    SkillsConfig    `yaml:"skills"`
	Session   SessionConfig   `yaml:"session"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// ToolsConfig holds the tool traffic ceilings and the administrative
// blocklist.
type ToolsConfig struct {
	// MaxArgBytes caps serialized tool arguments.
	MaxArgBytes int `yaml:"max_arg_bytes"`

	// MaxResultBytes caps tool results before truncation.
	MaxResultBytes int `yaml:"max_result_bytes"`

	// MaxCommandChars caps shell-command arguments.
	MaxCommandChars int `yaml:"max_command_chars"`

	// LogPreviewBytes bounds previews kept in truncation envelopes and
	// logs.
	LogPreviewBytes int `yaml:"log_preview_bytes"`

	// BlockedTools are always denied, by normalized name.
	BlockedTools []string `yaml:"blocked_tools"`
}

// SkillsConfig overrides skill discovery.
type SkillsConfig struct {
	// Directories are the base skill directory roots.
	Directories []string `yaml:"directories"`

	// Disabled are skill names disabled process-wide.
	Disabled []string `yaml:"disabled"`
}

// SessionConfig tunes session lifecycle behavior.
type SessionConfig struct {
	// Compaction thresholds decide when a session is recycled.
	Compaction compaction.Thresholds `yaml:"compaction"`
}

// WorkspaceConfig controls working-directory policy.
type WorkspaceConfig struct {
	// AgentRunRoot overrides the root for isolated agent run
	// directories.
	AgentRunRoot string `yaml:"agent_run_root"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tools: ToolsConfig{
			MaxArgBytes:     64 * 1024,
			MaxResultBytes:  256 * 1024,
			MaxCommandChars: 8 * 1024,
			LogPreviewBytes: 2 * 1024,
		},
		Session: SessionConfig{
			Compaction: compaction.DefaultThresholds(),
		},
	}
}

// Load reads a YAML config file and applies defaults to unset fields.
// An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Tools.MaxArgBytes <= 0 {
		c.Tools.MaxArgBytes = def.Tools.MaxArgBytes
	}
	if c.Tools.MaxResultBytes <= 0 {
		c.Tools.MaxResultBytes = def.Tools.MaxResultBytes
	}
	if c.Tools.MaxCommandChars <= 0 {
		c.Tools.MaxCommandChars = def.Tools.MaxCommandChars
	}
	if c.Tools.LogPreviewBytes <= 0 {
		c.Tools.LogPreviewBytes = def.Tools.LogPreviewBytes
	}
	if c.Session.Compaction.ContextWindow <= 0 {
		c.Session.Compaction = def.Session.Compaction
	}
}
