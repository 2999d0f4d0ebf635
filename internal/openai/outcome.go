package openai

import (
	"encoding/json"
	"fmt"
)

// Kind tags the result of a single completion request.
type Kind int

const (
	KindOK Kind = iota
	KindTruncated
	KindTimedOut
	KindIncomplete
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindTruncated:
		return "truncated"
	case KindTimedOut:
		return "timed_out"
	case KindIncomplete:
		return "incomplete"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the normalized result of one request to the completion service.
// Exactly one Kind is set; Text is only meaningful for KindOK and
// StatusCode/StatusText only for KindFailed.
type Outcome struct {
	Kind       Kind
	Text       string
	Arguments  string // raw function_call arguments, single-turn mode only
	StatusCode int
	StatusText string
}

func OK(text string) Outcome { return Outcome{Kind: KindOK, Text: text} }

func Failed(statusCode int, statusText string) Outcome {
	return Outcome{Kind: KindFailed, StatusCode: statusCode, StatusText: statusText}
}

func (o Outcome) IsOK() bool { return o.Kind == KindOK }

// Message returns the user-facing text for the outcome. For KindOK it is the
// generated text itself.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindOK:
		return o.Text
	case KindTruncated:
		return "Response too long. Please try again with a shorter prompt."
	case KindTimedOut:
		return "Response timed out. Please try again with a shorter prompt."
	case KindIncomplete:
		return "Response incomplete. Please try again with a shorter prompt."
	default:
		return fmt.Sprintf("OpenAI Error: %d %s", o.StatusCode, o.StatusText)
	}
}

// Code returns the `code` field of the forced function call when the service
// answered through it, and Text otherwise.
func (o Outcome) Code() string {
	if o.Arguments != "" {
		var args struct {
			Code *string `json:"code"`
		}
		if err := json.Unmarshal([]byte(o.Arguments), &args); err == nil && args.Code != nil {
			return *args.Code
		}
	}
	return o.Text
}

// Err returns nil for KindOK and an *OutcomeError otherwise.
func (o Outcome) Err() error {
	if o.Kind == KindOK {
		return nil
	}
	return &OutcomeError{Outcome: o}
}

// OutcomeError carries a non-OK Outcome through error-returning call paths.
type OutcomeError struct {
	Outcome Outcome
}

func (e *OutcomeError) Error() string {
	return e.Outcome.Message()
}

// outcomeFor maps the service's finish_reason onto a Kind.
func outcomeFor(finishReason string) Kind {
	switch finishReason {
	case "", "stop", "function_call", "tool_calls":
		return KindOK
	case "length":
		return KindTruncated
	case "timeout":
		return KindTimedOut
	default:
		return KindIncomplete
	}
}
