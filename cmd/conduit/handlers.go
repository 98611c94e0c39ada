// handlers.go implements the command handlers and the HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/conduit/internal/orchestrator"
	"github.com/haasonsaas/conduit/internal/skills"
	"github.com/haasonsaas/conduit/pkg/models"
)

func (f promptFlags) request(prompt string) models.PromptRequest {
	return models.PromptRequest{
		ChatID:           f.chatID,
		ProjectPath:      f.projectPath,
		Prompt:           prompt,
		Model:            f.model,
		WorkingDirectory: f.workDir,
		AllowedTools:     f.allowedTools,
		Context: models.ExecutionContext{
			AgentID:       f.agentID,
			Feature:       f.feature,
			PolicyProfile: f.profile,
			SkillNames:    f.skillNames,
			RequireSkills: f.requireSkill,
		},
	}
}

// runPrompt sends one prompt and writes each stream event as a JSON line.
func runPrompt(ctx context.Context, flags promptFlags, prompt string, out io.Writer) error {
	a, err := buildApp(flags.configPath, flags.debug)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	encoder := json.NewEncoder(out)
	return a.orch.Prompt(ctx, flags.request(prompt), func(ev models.StreamEvent) {
		if err := encoder.Encode(ev); err != nil {
			a.logger.Warn("writing stream event", "error", err)
		}
	})
}

// runSkillsList prints the skills an agent would see.
func runSkillsList(configPath, agentID string, out io.Writer) error {
	a, err := buildApp(configPath, false)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	if len(a.cfg.Skills.Directories) == 0 {
		fmt.Fprintln(out, "no skill directories configured; skills are unmanaged")
		return nil
	}

	selection := a.selector.Select(models.ExecutionContext{AgentID: agentID})
	discovered := skills.Discover(selection.SkillDirectories)
	if len(discovered) == 0 {
		fmt.Fprintln(out, "no skills found")
		return nil
	}

	disabled := make(map[string]bool, len(selection.DisabledSkills))
	for _, name := range selection.DisabledSkills {
		disabled[name] = true
	}
	for _, skill := range discovered {
		marker := ""
		if disabled[skill.Name] {
			marker = " (disabled)"
		}
		fmt.Fprintf(out, "%s%s\t%s\n", skill.Name, marker, skill.Description)
	}
	return nil
}

// runServe starts the HTTP server and blocks until shutdown.
func runServe(ctx context.Context, configPath string, debug bool, listenAddr string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(configPath, debug)
	if err != nil {
		return err
	}

	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/prompt", a.handlePrompt)
	mux.HandleFunc("/v1/sessions/reset", a.handleReset)

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", listenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	a.shutdown(shutdownCtx)
	return nil
}

// handlePrompt streams one prompt response as newline-delimited JSON.
func (a *app) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	err := a.orch.Prompt(r.Context(), req, func(ev models.StreamEvent) {
		if err := encoder.Encode(ev); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		a.writePromptError(w, err)
	}
}

// writePromptError maps orchestration errors onto HTTP status codes when
// the stream has not started, and onto a terminal JSON line when it has.
func (a *app) writePromptError(w http.ResponseWriter, err error) {
	var confErr *orchestrator.ConfigurationError
	var valErr *orchestrator.ValidationError
	switch {
	case errors.As(err, &confErr):
		http.Error(w, confErr.Error(), http.StatusBadRequest)
	case errors.As(err, &valErr):
		http.Error(w, valErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, orchestrator.ErrStreamTimeout):
		// Headers are already written mid-stream; report in-band.
		json.NewEncoder(w).Encode(map[string]string{"type": "error", "error": err.Error()})
	default:
		a.logger.Error("prompt failed", "error", err)
		json.NewEncoder(w).Encode(map[string]string{"type": "error", "error": "internal error"})
	}
}

// handleReset destroys all live sessions. Hosts call this when the
// authenticated account changes.
func (a *app) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.orch.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
