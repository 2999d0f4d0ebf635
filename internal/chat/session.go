// Package chat holds sidebar conversations with the completion service.
package chat

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/MikeSquared-Agency/codemanager/internal/openai"
)

const (
	CommandGenerate = "generate"
	CommandClear    = "clear"
)

const (
	ClearedText        = "Chat cleared."
	UnknownCommandText = "Unknown command."
)

// Converser generates the next assistant turn for a conversation.
type Converser interface {
	Converse(ctx context.Context, turns []openai.Message) openai.Outcome
}

// Recorder archives conversation changes outside the process.
type Recorder interface {
	RecordTurn(ctx context.Context, sessionID string, seq int, msg openai.Message) error
	ClearSession(ctx context.Context, sessionID string) error
}

// Command is an inbound request from the chat view.
type Command struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// Result is the reply to a Command. When OK is false, Err holds the cause and
// Text the message to show the user.
type Result struct {
	OK   bool
	Text string
	Err  error
}

// Session is one ordered conversation. Receive calls are serialized so turns
// from concurrent callers never interleave.
type Session struct {
	id       string
	llm      Converser
	recorder Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	turns []openai.Message
}

func NewSession(id string, llm Converser, recorder Recorder, logger *slog.Logger) *Session {
	return &Session{
		id:       id,
		llm:      llm,
		recorder: recorder,
		logger:   logger.With("session_id", id),
	}
}

func (s *Session) ID() string { return s.id }

// Receive dispatches a chat command. It never returns a Go error; failures
// come back as a Result with OK false.
func (s *Session) Receive(ctx context.Context, cmd Command) Result {
	switch cmd.Command {
	case CommandClear:
		s.Clear(ctx)
		return Result{OK: true, Text: ClearedText}
	case CommandGenerate:
		return s.generate(ctx, cmd.Message)
	default:
		s.logger.Debug("unknown chat command", "command", cmd.Command)
		return Result{OK: true, Text: UnknownCommandText}
	}
}

func (s *Session) generate(ctx context.Context, message string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(ctx, openai.Message{Role: openai.RoleUser, Content: message})

	out := s.llm.Converse(ctx, slices.Clone(s.turns))
	if !out.IsOK() {
		s.logger.Warn("chat generation failed", "outcome", out.Kind.String(), "status", out.StatusCode)
		return Result{OK: false, Text: out.Message(), Err: out.Err()}
	}

	s.appendLocked(ctx, openai.Message{Role: openai.RoleAssistant, Content: out.Text})
	return Result{OK: true, Text: out.Text}
}

func (s *Session) appendLocked(ctx context.Context, msg openai.Message) {
	seq := len(s.turns)
	s.turns = append(s.turns, msg)
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTurn(ctx, s.id, seq, msg); err != nil {
		s.logger.Warn("failed to record chat turn", "seq", seq, "error", err)
	}
}

// Clear drops the whole conversation.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	if s.recorder == nil {
		return
	}
	if err := s.recorder.ClearSession(ctx, s.id); err != nil {
		s.logger.Warn("failed to record chat clear", "error", err)
	}
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []openai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.turns)
}
