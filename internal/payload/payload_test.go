package payload

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Daxiongmao87/termaite-go/internal/config"
)

func testConfig(allowClarify bool) *config.Config {
	cfg := config.Defaults()
	cfg.Model = "llama3"
	cfg.AllowClarifyingQuestion = allowClarify
	cfg.Prompts.Plan = "You are the planner. {{if ALLOW_CLARIFYING_QUESTIONS}}You may ask clarifying questions.{{else}}Never ask questions.{{end}}"
	cfg.Prompts.Action = "You are the actor."
	cfg.Allowed = map[string]string{"ls": "list directory contents"}
	return &cfg
}

func TestBuild_RoundTripsUserAndSystemPrompt(t *testing.T) {
	cfg := testConfig(true)
	b := New(cfg, config.NewAllowlistRepository(cfg))

	out, err := b.Build(PhasePlan, "list the files here")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	prompt, _ := doc["prompt"].(string)
	if prompt != "list the files here" {
		t.Errorf("prompt = %q, want %q", prompt, "list the files here")
	}

	system, _ := doc["system"].(string)
	if !strings.Contains(system, "You may ask clarifying questions.") {
		t.Errorf("system prompt missing clarifying-questions branch: %q", system)
	}
	if strings.Contains(system, "{{if") || strings.Contains(system, "{{end}}") {
		t.Errorf("system prompt still contains residual markers: %q", system)
	}

	model, _ := doc["model"].(string)
	if model != "llama3" {
		t.Errorf("model = %q, want llama3", model)
	}
}

func TestBuild_ConditionalExpandsToElseBranch(t *testing.T) {
	cfg := testConfig(false)
	b := New(cfg, config.NewAllowlistRepository(cfg))

	out, err := b.Build(PhasePlan, "do something")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var doc map[string]any
	_ = json.Unmarshal(out, &doc)
	system, _ := doc["system"].(string)
	if !strings.Contains(system, "Never ask questions.") {
		t.Errorf("expected else-branch text, got %q", system)
	}
	if strings.Contains(system, "You may ask clarifying questions.") {
		t.Errorf("if-branch text should not be present, got %q", system)
	}
}

func TestBuild_RestrictedAddsAllowedCommandsAddendum(t *testing.T) {
	cfg := testConfig(true)
	cfg.OperationMode = config.Restricted
	b := New(cfg, config.NewAllowlistRepository(cfg))

	out, err := b.Build(PhaseAction, "run ls")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var doc map[string]any
	_ = json.Unmarshal(out, &doc)
	system, _ := doc["system"].(string)
	if !strings.Contains(system, "ls: list directory contents") {
		t.Errorf("expected allowed-commands addendum, got %q", system)
	}
}

func TestBuild_UnknownPhaseFails(t *testing.T) {
	cfg := testConfig(true)
	b := New(cfg, config.NewAllowlistRepository(cfg))

	_, err := b.Build(Phase("bogus"), "x")
	if err == nil {
		t.Fatal("expected error for unknown phase")
	}
	var buildErr *BuildError
	if !asBuildError(err, &buildErr) {
		t.Fatalf("expected *BuildError, got %T: %v", err, err)
	}
}

func TestBuild_MissingSystemPromptFails(t *testing.T) {
	cfg := testConfig(true)
	cfg.Prompts.Evaluate = ""
	b := New(cfg, config.NewAllowlistRepository(cfg))

	_, err := b.Build(PhaseEvaluate, "x")
	if err == nil {
		t.Fatal("expected error for missing system prompt")
	}
}

func asBuildError(err error, target **BuildError) bool {
	be, ok := err.(*BuildError)
	if !ok {
		return false
	}
	*target = be
	return true
}
