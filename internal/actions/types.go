package actions

import (
	"time"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/codemanager/internal/bus"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
	"github.com/MikeSquared-Agency/codemanager/internal/splice"
)

// Action names an editor code action.
type Action string

const (
	ActionGenerateDoc Action = "generate_doc"
	ActionRefactor    Action = "refactor"
	ActionFix         Action = "fix"
	ActionCustom      Action = "custom"
)

// Request is what the editor sends for one action.
type Request struct {
	Action      Action
	Document    string      // full text of the active document
	Span        splice.Span // current selection
	LanguageID  string
	Instruction string // custom only
	Problem     string // fix only
}

// DiffProposal pairs the document with its modified version for a diff view.
type DiffProposal struct {
	Original  string      `json:"original"`
	Modified  string      `json:"modified"`
	Span      splice.Span `json:"selection"`
	Generated string      `json:"generated"`
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is the message the editor shows after an action.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Result of Run. Proposal is nil unless Outcome is openai.KindOK.
type Result struct {
	Outcome      openai.Kind
	Proposal     *DiffProposal
	Notification Notification
}

// Generation summarizes one completion request for the bus and the store.
type Generation struct {
	ID           uuid.UUID `json:"id"`
	Action       Action    `json:"action"`
	LanguageID   string    `json:"language_id"`
	Outcome      string    `json:"outcome"`
	StatusCode   int       `json:"status_code,omitempty"`
	PromptLen    int       `json:"prompt_len"`
	GeneratedLen int       `json:"generated_len"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is the bus form of the generation.
func (g Generation) Event() bus.GenerationEvent {
	return bus.GenerationEvent{
		RequestID:  g.ID.String(),
		Action:     string(g.Action),
		Language:   g.LanguageID,
		Outcome:    g.Outcome,
		StatusCode: g.StatusCode,
		DurationMS: g.DurationMS,
	}
}
