package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tools.MaxArgBytes != 64*1024 {
		t.Errorf("MaxArgBytes = %d", cfg.Tools.MaxArgBytes)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoadAppliesOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	content := `
logging:
  level: debug
tools:
  max_arg_bytes: 1024
  blocked_tools: [delete_everything]
skills:
  directories: [/skills]
  disabled: [legacy]
workspace:
  agent_run_root: /var/lib/conduit/runs
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format default not applied: %q", cfg.Logging.Format)
	}
	if cfg.Tools.MaxArgBytes != 1024 {
		t.Errorf("MaxArgBytes = %d", cfg.Tools.MaxArgBytes)
	}
	if cfg.Tools.MaxResultBytes != 256*1024 {
		t.Errorf("MaxResultBytes default not applied: %d", cfg.Tools.MaxResultBytes)
	}
	if len(cfg.Tools.BlockedTools) != 1 || cfg.Tools.BlockedTools[0] != "delete_everything" {
		t.Errorf("BlockedTools = %v", cfg.Tools.BlockedTools)
	}
	if len(cfg.Skills.Directories) != 1 || cfg.Skills.Directories[0] != "/skills" {
		t.Errorf("Directories = %v", cfg.Skills.Directories)
	}
	if cfg.Workspace.AgentRunRoot != "/var/lib/conduit/runs" {
		t.Errorf("AgentRunRoot = %q", cfg.Workspace.AgentRunRoot)
	}
	if cfg.Session.Compaction.ContextWindow != 200_000 {
		t.Errorf("Compaction default not applied: %+v", cfg.Session.Compaction)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
