package tokenbudget

import (
	"strings"
	"testing"
)

func TestCountTokens_Empty(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Fatalf("CountTokens(\"\") = %d, want 0", got)
	}
}

func TestCountTokens_NonEmptyIsPositive(t *testing.T) {
	got := CountTokens("the quick brown fox jumps over the lazy dog")
	if got <= 0 {
		t.Fatalf("CountTokens() = %d, want > 0", got)
	}
}

func TestCountTokens_LongerTextHasMoreTokens(t *testing.T) {
	short := CountTokens("hello world")
	long := CountTokens(strings.Repeat("hello world ", 50))
	if long <= short {
		t.Fatalf("expected longer text to have more tokens: short=%d long=%d", short, long)
	}
}

func TestTruncate_UnderBudgetReturnsUnchanged(t *testing.T) {
	text := "a short line of text"
	got := Truncate(text, 1000)
	if got != text {
		t.Fatalf("Truncate() = %q, want unchanged %q", got, text)
	}
}

func TestTruncate_ZeroBudgetDisablesTruncation(t *testing.T) {
	text := strings.Repeat("word ", 500)
	got := Truncate(text, 0)
	if got != text {
		t.Fatal("Truncate() with maxTokens <= 0 must return text unchanged")
	}
}

func TestTruncate_OverBudgetShrinksAndKeepsTail(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 200) + "THE_END"
	got := Truncate(text, 20)

	if CountTokens(got) > 20 {
		t.Fatalf("truncated text still exceeds budget: %d tokens", CountTokens(got))
	}
	if !strings.Contains(got, "THE_END") {
		t.Fatalf("expected truncated text to retain the tail, got %q", got)
	}
	if len(got) >= len(text) {
		t.Fatalf("expected truncated text to be shorter than original")
	}
}
