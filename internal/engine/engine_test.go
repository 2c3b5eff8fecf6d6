package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/config"
	"github.com/Daxiongmao87/termaite-go/internal/contextstore"
	"github.com/Daxiongmao87/termaite-go/internal/executor"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
	"github.com/Daxiongmao87/termaite-go/internal/permission"
	"github.com/Daxiongmao87/termaite-go/internal/safety"
)

type stubBuilder struct{}

func (stubBuilder) Build(phase payload.Phase, userPrompt string) ([]byte, error) {
	return []byte(`{"phase":"` + string(phase) + `"}`), nil
}

// scriptedLLM returns canned raw responses in call order, ignoring the
// request body, so tests can script an exact phase sequence.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Send(ctx context.Context, jsonBody []byte) (string, error) {
	if s.calls >= len(s.responses) {
		return `<decision>TASK_FAILED: ran out of scripted responses</decision>`, nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type stubRunner struct {
	result executor.Result
	calls  int
}

func (r *stubRunner) Run(ctx context.Context, command string, timeout time.Duration) executor.Result {
	r.calls++
	return r.result
}

type stubHelpRunner struct {
	output string
	ok     bool
}

func (r stubHelpRunner) Run(ctx context.Context, command string, timeout time.Duration) (string, bool) {
	return r.output, r.ok
}

type stubPrompter struct{ choice permission.Choice }

func (p stubPrompter) Ask(command string) (permission.Choice, error) { return p.choice, nil }

type stubConfirmer struct{ answer bool }

func (c stubConfirmer) Confirm(command string) (bool, error) { return c.answer, nil }

type stubIO struct{ lines []string }

func (s *stubIO) Println(line string) {}
func (s *stubIO) ReadLine(prompt string) (string, error) {
	if len(s.lines) == 0 {
		return "", nil
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestEngine(t *testing.T, cfg *config.Config, llm *scriptedLLM, runner *stubRunner, confirmer permission.Confirmer, prompter permission.Prompter) *Engine {
	t.Helper()
	store := contextstore.New(t.TempDir() + "/context.json")
	allow := config.NewAllowlistRepository(cfg)
	perm := permission.New(cfg, allow, prompter)

	return New(cfg, stubBuilder{}, llm, safety.New(), perm, runner, store, confirmer, &stubIO{}, "/tmp/testdir")
}

func TestRun_RestrictedAllowThenRun(t *testing.T) {
	cfg := config.Defaults()
	cfg.OperationMode = config.Restricted
	cfg.Allowed = map[string]string{"ls": "list directory contents"}

	llm := &scriptedLLM{responses: []string{
		"<checklist>1. list files</checklist><instruction>list files</instruction>",
		"```agent_command\nls\n```",
		"<decision>TASK_COMPLETE: done</decision>",
		"<summary>Listed the files.</summary>",
	}}
	runner := &stubRunner{result: executor.Result{ExitCode: 0, Output: "a.txt\nb.txt", Success: true}}

	e := newTestEngine(t, &cfg, llm, runner, stubConfirmer{answer: true}, stubPrompter{})

	result, err := e.Run(context.Background(), "show current directory files")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("Run() status = %s, want completed", result.Status)
	}
	if runner.calls != 1 {
		t.Fatalf("executor called %d times, want 1", runner.calls)
	}

	bucket, err := e.store.Bucket(e.cwd)
	if err != nil {
		t.Fatalf("Bucket() error = %v", err)
	}
	if len(bucket) != 4 {
		t.Fatalf("bucket has %d entries, want 4 (one per LLM round trip)", len(bucket))
	}
}

func TestRun_BlacklistBlocksUnrestricted(t *testing.T) {
	cfg := config.Defaults()
	cfg.OperationMode = config.Unrestricted
	cfg.Blacklisted = map[string]string{"rm": "destructive"}

	llm := &scriptedLLM{responses: []string{
		"<checklist>1. remove file</checklist><instruction>remove file</instruction>",
		"```agent_command\nrm file\n```",
		"<decision>TASK_FAILED: command was blocked</decision>",
	}}
	runner := &stubRunner{}

	e := newTestEngine(t, &cfg, llm, runner, stubConfirmer{}, stubPrompter{})

	result, err := e.Run(context.Background(), "remove the file")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != StatusFailed {
		t.Fatalf("Run() status = %s, want failed", result.Status)
	}
	if runner.calls != 0 {
		t.Fatalf("executor called %d times, want 0 (blacklisted command must never run)", runner.calls)
	}
}

func TestRun_VerifyActionSkipsNewPlan(t *testing.T) {
	cfg := config.Defaults()
	cfg.OperationMode = config.Unrestricted

	llm := &scriptedLLM{responses: []string{
		"<checklist>1. touch file</checklist><instruction>touch out.txt</instruction>",
		"```agent_command\ntouch out.txt\n```",
		"<decision>VERIFY_ACTION: ls out.txt</decision>",
		"```agent_command\nls out.txt\n```",
		"<decision>TASK_COMPLETE: verified</decision>",
		"<summary>done</summary>",
	}}
	runner := &stubRunner{result: executor.Result{ExitCode: 0, Success: true}}

	e := newTestEngine(t, &cfg, llm, runner, stubConfirmer{}, stubPrompter{})

	result, err := e.Run(context.Background(), "touch a file then verify it")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("Run() status = %s, want completed", result.Status)
	}
	if runner.calls != 2 {
		t.Fatalf("executor called %d times, want 2 (touch + verify)", runner.calls)
	}
}

func TestRun_SemiPermissiveAlwaysExtendsAllowlist(t *testing.T) {
	cfg := config.Defaults()
	cfg.OperationMode = config.SemiPermissive

	llm := &scriptedLLM{responses: []string{
		"<checklist>1. search</checklist><instruction>search for foo</instruction>",
		"```agent_command\ngrep foo x.txt\n```",
		"<decision>TASK_COMPLETE: found it</decision>",
		"<summary>done</summary>",
	}}
	runner := &stubRunner{result: executor.Result{ExitCode: 0, Success: true}}

	store := contextstore.New(t.TempDir() + "/context.json")
	allow := config.NewAllowlistRepository(&cfg)
	perm := permission.New(&cfg, allow, stubPrompter{choice: permission.ChoiceAlways}).
		WithDescriptionFlow(stubHelpRunner{output: "usage: grep", ok: true}, fakeDescriber{})

	e := New(&cfg, stubBuilder{}, llm, safety.New(), perm, runner, store, stubConfirmer{}, &stubIO{}, "/tmp/testdir")

	result, err := e.Run(context.Background(), "search for foo in x.txt")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("Run() status = %s, want completed", result.Status)
	}
	if _, ok := allow.Snapshot()["grep"]; !ok {
		t.Fatalf("expected grep to be allowlisted, snapshot = %v", allow.Snapshot())
	}
}

type fakeDescriber struct{}

func (fakeDescriber) DescribeCommand(ctx context.Context, head, helpText string) (string, error) {
	return `{"description":"search text patterns"}`, nil
}

func TestState_ClarificationIsSingleUse(t *testing.T) {
	s := NewState("do something")
	s.SetClarification("the answer")
	if !s.HasClarification() {
		t.Fatal("expected clarification to be pending")
	}
	if got := s.TakeClarification(); got != "the answer" {
		t.Fatalf("TakeClarification() = %q, want %q", got, "the answer")
	}
	if s.HasClarification() {
		t.Fatal("clarification should be consumed after one Take")
	}
	if got := s.TakeClarification(); got != "" {
		t.Fatalf("second TakeClarification() = %q, want empty", got)
	}
}
