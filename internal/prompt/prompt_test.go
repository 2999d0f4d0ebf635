package prompt

import (
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	got := Build(Refactor, "def f():\n    return 1", "python", "")
	want := "Refactorize following function for the given function using the appropriate language-specific documentation format.\n\nFunction:\n```def f():\n    return 1```\n\nLanguage: python"
	if got.String() != want {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuild_Extra(t *testing.T) {
	got := Build(Fix, "x = 1/0", "python", "ZeroDivisionError")
	if !strings.HasSuffix(got.String(), "Language: python\n\nZeroDivisionError") {
		t.Errorf("expected extra after blank line, got %q", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(GenerateDoc, "func f() {}", "go", "ctx")
	b := Build(GenerateDoc, "func f() {}", "go", "ctx")
	if a != b {
		t.Errorf("expected identical prompts, got %q and %q", a, b)
	}
}

func TestBuild_SnippetVerbatim(t *testing.T) {
	snippet := "a := \"```\"\n\tb := `raw`"
	got := Build("Explain", snippet, "go", "")
	if !strings.Contains(got.String(), "```"+snippet+"```") {
		t.Errorf("expected snippet fenced verbatim, got %q", got)
	}
}
