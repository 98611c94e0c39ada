package policy

import (
	"testing"

	"github.com/haasonsaas/conduit/pkg/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Run In Terminal", "run_in_terminal"},
		{"fetch-webpage", "fetch_webpage"},
		{"  weird!!name  ", "weird_name"},
		{"CONDUIT_report", "conduit_report"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Class
	}{
		{"run_in_terminal", ClassNative},
		{"read_file", ClassNative},
		{"fetch", ClassMCP},
		{"fetch_webpage", ClassMCP},
		{"Fetch-Webpage", ClassMCP},
		{"conduit_report_progress", ClassCustom},
		{"", ClassUnknown},
		{"???", ClassUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveProfilePrecedence(t *testing.T) {
	// Explicit known profile wins.
	p := Resolve(models.ExecutionContext{AgentID: "writer", PolicyProfile: "strict-fetch-mcp"})
	if p.ProfileName != "strict-fetch-mcp" {
		t.Errorf("profile = %q, want strict-fetch-mcp", p.ProfileName)
	}

	// Unknown requested profile falls back to the agent default.
	p = Resolve(models.ExecutionContext{AgentID: "url-summariser", PolicyProfile: "nope"})
	if p.ProfileName != "strict-fetch-mcp" {
		t.Errorf("profile = %q, want agent default strict-fetch-mcp", p.ProfileName)
	}

	// No profile, no agent default: global default.
	p = Resolve(models.ExecutionContext{AgentID: "writer"})
	if p.ProfileName != DefaultProfile {
		t.Errorf("profile = %q, want %q", p.ProfileName, DefaultProfile)
	}
}

func TestStrictProfileDeniesNativeAllowsMCP(t *testing.T) {
	p := Resolve(models.ExecutionContext{AgentID: "url-summariser", PolicyProfile: "strict-fetch-mcp"})

	if class := Classify("run_in_terminal"); class != ClassNative {
		t.Fatalf("run_in_terminal classified %q", class)
	} else if IsClassAllowed(p, class) {
		t.Error("native tool allowed under strict-fetch-mcp")
	}

	if class := Classify("fetch_webpage"); class != ClassMCP {
		t.Fatalf("fetch_webpage classified %q", class)
	} else if !IsClassAllowed(p, class) {
		t.Error("mcp tool denied under strict-fetch-mcp")
	}
}

func TestUnknownClassFailsOpen(t *testing.T) {
	p := Resolve(models.ExecutionContext{PolicyProfile: "strict-fetch-mcp"})
	if !IsClassAllowed(p, ClassUnknown) {
		t.Error("unknown class must be allowed under every profile")
	}
}
