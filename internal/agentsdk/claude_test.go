package agentsdk

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/conduit/internal/orchestrator"
)

func testFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(Config{APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewFactoryRequiresAPIKey(t *testing.T) {
	if _, err := NewFactory(Config{}, nil); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestCreateResumeDestroyLifecycle(t *testing.T) {
	f := testFactory(t)
	cfg := orchestrator.SessionConfig{SessionID: "conduit-chat-1", Model: "claude-sonnet-4"}

	created, err := f.Create(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID() != "conduit-chat-1" {
		t.Errorf("ID = %q", created.ID())
	}

	resumed, err := f.Resume(context.Background(), "conduit-chat-1", cfg)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed != created {
		t.Error("Resume returned a different session")
	}

	if err := created.Destroy(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Resume(context.Background(), "conduit-chat-1", cfg); err == nil {
		t.Error("Resume succeeded after Destroy")
	}
}

func TestResumeUnknownSession(t *testing.T) {
	f := testFactory(t)
	if _, err := f.Resume(context.Background(), "never-created", orchestrator.SessionConfig{}); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestCreateRequiresModel(t *testing.T) {
	f := testFactory(t)
	if _, err := f.Create(context.Background(), orchestrator.SessionConfig{SessionID: "s"}); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestSubscribeDispatchUnsubscribe(t *testing.T) {
	f := testFactory(t)
	created, err := f.Create(context.Background(), orchestrator.SessionConfig{
		SessionID: "s", Model: "claude-sonnet-4",
	})
	if err != nil {
		t.Fatal(err)
	}
	session := created.(*Session)

	var got []string
	unsub := session.Subscribe(orchestrator.EventMessageDelta, func(ev orchestrator.SessionEvent) {
		got = append(got, ev.Text)
	})

	session.dispatch(orchestrator.EventMessageDelta, orchestrator.SessionEvent{Text: "one"})
	unsub()
	session.dispatch(orchestrator.EventMessageDelta, orchestrator.SessionEvent{Text: "two"})

	if len(got) != 1 || got[0] != "one" {
		t.Errorf("got = %v, want [one]", got)
	}
}

func TestSendAfterDestroy(t *testing.T) {
	f := testFactory(t)
	created, err := f.Create(context.Background(), orchestrator.SessionConfig{
		SessionID: "s", Model: "claude-sonnet-4",
	})
	if err != nil {
		t.Fatal(err)
	}
	created.Destroy(context.Background())
	if err := created.Send(context.Background(), "hello"); err == nil {
		t.Error("Send succeeded on a destroyed session")
	}
}

func TestSystemPromptDescribesEnvironment(t *testing.T) {
	s := &Session{cfg: orchestrator.SessionConfig{
		WorkingDirectory: "/work/project",
		SkillDirectories: []string{"/skills/shared"},
		DisabledSkills:   []string{"legacy"},
		AllowedTools:     []string{"bash", "read_file"},
	}}

	prompt := s.systemPrompt()
	for _, want := range []string{"/work/project", "/skills/shared", "legacy", "bash"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q: %s", want, prompt)
		}
	}
}

func TestSystemPromptEmptyConfig(t *testing.T) {
	s := &Session{}
	if got := s.systemPrompt(); got != "" {
		t.Errorf("systemPrompt = %q, want empty", got)
	}
}
