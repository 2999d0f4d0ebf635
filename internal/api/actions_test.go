package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MikeSquared-Agency/codemanager/internal/openai"
	"github.com/MikeSquared-Agency/codemanager/internal/splice"
)

func refactorRequest() ActionRequest {
	return ActionRequest{
		Document:   "line1\nline2\nline3",
		LanguageID: "plaintext",
		Selection:  splice.Span{Text: "line2", StartLine: 1, StartColumn: 0, EndLine: 1, EndColumn: 5},
	}
}

func TestRunAction_Success(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{complete: openai.Outcome{Kind: openai.KindOK, Arguments: `{"code":"X"}`}}, "")

	w := do(t, srv, "POST", "/api/v1/actions/refactor", refactorRequest(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["modified"] != "line1\nX\nline3" {
		t.Errorf("unexpected modified text %q", body["modified"])
	}
	if body["original"] != "line1\nline2\nline3" {
		t.Errorf("unexpected original text %q", body["original"])
	}
	if body["outcome"] != "ok" {
		t.Errorf("expected outcome ok, got %v", body["outcome"])
	}
	n, _ := body["notification"].(map[string]any)
	if n["level"] != "info" || n["message"] != "Code generated successfully." {
		t.Errorf("unexpected notification %v", body["notification"])
	}
}

func TestRunAction_FailedOutcome(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{complete: openai.Outcome{Kind: openai.KindTruncated}}, "")

	w := do(t, srv, "POST", "/api/v1/actions/refactor", refactorRequest(), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := body["modified"]; ok {
		t.Error("expected no modified text on failure")
	}
	if body["outcome"] != "truncated" {
		t.Errorf("expected outcome truncated, got %v", body["outcome"])
	}
	n, _ := body["notification"].(map[string]any)
	if n["level"] != "error" {
		t.Errorf("expected error notification, got %v", body["notification"])
	}
}

func TestRunAction_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLLM{complete: openai.OK("x")}, "")

	outOfRange := refactorRequest()
	outOfRange.Selection.EndLine = 9

	tests := []struct {
		name string
		path string
		body any
	}{
		{"unknown action", "/api/v1/actions/teleport", refactorRequest()},
		{"fix without problem", "/api/v1/actions/fix", refactorRequest()},
		{"custom without instruction", "/api/v1/actions/custom", refactorRequest()},
		{"selection out of range", "/api/v1/actions/refactor", outOfRange},
		{"invalid json", "/api/v1/actions/refactor", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, "POST", tt.path, tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
