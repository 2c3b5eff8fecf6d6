package permission

import (
	"context"
	"testing"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Allowed = map[string]string{"ls": "list directory contents"}
	cfg.Blacklisted = map[string]string{"rm": "destructive"}
	return &cfg
}

type fakePrompter struct {
	choice Choice
	err    error
}

func (f *fakePrompter) Ask(command string) (Choice, error) {
	return f.choice, f.err
}

func TestHeadToken(t *testing.T) {
	cases := map[string]string{
		"ls -la":          "ls",
		"sudo apt update": "apt",
		"env FOO=1 ls":    "ls",
		"  ":               "",
		"sudo":             "",
	}
	for input, want := range cases {
		if got := HeadToken(input); got != want {
			t.Errorf("HeadToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCommandParts(t *testing.T) {
	got := CommandParts("ls -la && rm -rf /tmp/x | grep foo; echo done")
	want := []string{"ls", "rm", "grep", "echo"}
	if len(got) != len(want) {
		t.Fatalf("CommandParts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAuthorize_BlacklistWinsInAllModes(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)

	modes := []config.OperationMode{config.Restricted, config.SemiPermissive, config.Unrestricted}
	for _, mode := range modes {
		m := New(cfg, allow, &fakePrompter{choice: ChoiceYes})
		decision, _ := m.Authorize("rm -rf /tmp/x", mode)
		if decision != Deny {
			t.Errorf("mode %s: Authorize(blacklisted) = %s, want deny", mode, decision)
		}
	}
}

func TestAuthorize_BlacklistAppliesToAnyCompoundPart(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceYes})

	decision, _ := m.Authorize("ls -la && rm -rf /", config.Unrestricted)
	if decision != Deny {
		t.Fatalf("Authorize() = %s, want deny (blacklisted part)", decision)
	}
}

func TestAuthorize_RestrictedAllowlistOnly(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceYes})

	if d, _ := m.Authorize("ls -la", config.Restricted); d != Allow {
		t.Errorf("Authorize(allowlisted) = %s, want allow", d)
	}
	if d, _ := m.Authorize("cat file.txt", config.Restricted); d != Deny {
		t.Errorf("Authorize(not allowlisted) = %s, want deny", d)
	}
}

func TestAuthorize_Unrestricted_AlwaysAllows(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceNo})

	if d, _ := m.Authorize("cat file.txt", config.Unrestricted); d != Allow {
		t.Errorf("Authorize() = %s, want allow", d)
	}
}

func TestAuthorize_SemiPermissive_AllowlistedSkipsPrompt(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceNo})

	if d, _ := m.Authorize("ls -la", config.SemiPermissive); d != Allow {
		t.Errorf("Authorize(allowlisted) = %s, want allow without prompting", d)
	}
}

func TestAuthorize_SemiPermissive_PromptDispatch(t *testing.T) {
	cases := []struct {
		choice Choice
		want   Decision
	}{
		{ChoiceYes, Allow},
		{ChoiceNo, Deny},
		{ChoiceCancel, CancelTask},
	}

	for _, tc := range cases {
		cfg := testConfig()
		allow := config.NewAllowlistRepository(cfg)
		m := New(cfg, allow, &fakePrompter{choice: tc.choice})

		got, _ := m.Authorize("cat file.txt", config.SemiPermissive)
		if got != tc.want {
			t.Errorf("choice %s: Authorize() = %s, want %s", tc.choice, got, tc.want)
		}
	}
}

type fakeRunner struct {
	output string
	ok     bool
}

func (f *fakeRunner) Run(ctx context.Context, command string, timeout time.Duration) (string, bool) {
	return f.output, f.ok
}

type fakeRequester struct {
	description string
	err         error
}

func (f *fakeRequester) DescribeCommand(ctx context.Context, head, helpText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return `{"description":"` + f.description + `"}`, nil
}

func TestAuthorize_SemiPermissive_AlwaysExtendsAllowlist(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceAlways}).
		WithDescriptionFlow(&fakeRunner{output: "usage: cat [FILE]", ok: true}, &fakeRequester{description: "concatenates files"})

	decision, _ := m.Authorize("cat file.txt", config.SemiPermissive)
	if decision != Allow {
		t.Fatalf("Authorize() = %s, want allow", decision)
	}

	snapshot := allow.Snapshot()
	if _, ok := snapshot["cat"]; !ok {
		t.Fatalf("expected \"cat\" to be allowlisted after always-choice, snapshot = %v", snapshot)
	}
}

func TestAuthorize_SemiPermissive_AlwaysFailsClosedWithoutDescriptionFlow(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{choice: ChoiceAlways})

	decision, _ := m.Authorize("cat file.txt", config.SemiPermissive)
	if decision != Deny {
		t.Fatalf("Authorize() = %s, want deny when description flow unconfigured", decision)
	}
	if _, ok := allow.Snapshot()["cat"]; ok {
		t.Fatalf("allowlist should not have been extended on failure")
	}
}

func TestAuthorize_PromptError_DeniesRatherThanPanics(t *testing.T) {
	cfg := testConfig()
	allow := config.NewAllowlistRepository(cfg)
	m := New(cfg, allow, &fakePrompter{err: context.Canceled})

	decision, _ := m.Authorize("cat file.txt", config.SemiPermissive)
	if decision != Deny {
		t.Fatalf("Authorize() = %s, want deny on prompt error", decision)
	}
}
