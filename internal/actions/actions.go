// Package actions runs the editor code actions: build a prompt from the
// selection, ask for code, and splice the answer back into the document.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/codemanager/internal/bus"
	"github.com/MikeSquared-Agency/codemanager/internal/extractor"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
	"github.com/MikeSquared-Agency/codemanager/internal/prompt"
	"github.com/MikeSquared-Agency/codemanager/internal/splice"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingInput  = errors.New("please type your message")
)

const successText = "Code generated successfully."

// Completer sends a single prompt to the completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) openai.Outcome
}

// Publisher announces finished generations.
type Publisher interface {
	PublishGeneration(ev bus.GenerationEvent) error
}

// GenerationRecorder persists a summary of each generation.
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, g Generation) error
}

type Runner struct {
	llm       Completer
	publisher Publisher
	recorder  GenerationRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a Runner. publisher and recorder may be nil.
func New(llm Completer, publisher Publisher, recorder GenerationRecorder, logger *slog.Logger) *Runner {
	return &Runner{
		llm:       llm,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one editor action. The returned error is only set for
// requests that could not be sent; a failed generation is reported through
// the Result's notification.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	instruction, extra, err := req.instruction()
	if err != nil {
		return nil, err
	}
	if err := req.Span.Validate(req.Document); err != nil {
		return nil, err
	}

	p := prompt.Build(instruction, req.Span.Text, req.LanguageID, extra)

	log := r.logger.With("action", req.Action, "language", req.LanguageID)
	log.Info("generating code", "selection_len", len(req.Span.Text), "prompt_len", len(p))

	start := r.now()
	out := r.llm.Complete(ctx, p.String())
	elapsed := r.now().Sub(start)

	gen := Generation{
		ID:         uuid.New(),
		Action:     req.Action,
		LanguageID: req.LanguageID,
		Outcome:    out.Kind.String(),
		StatusCode: out.StatusCode,
		PromptLen:  len(p),
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
	}

	if !out.IsOK() {
		log.Warn("code generation failed", "outcome", gen.Outcome, "status", out.StatusCode)
		r.report(ctx, gen)
		return &Result{
			Outcome:      out.Kind,
			Notification: Notification{Level: LevelError, Message: out.Message()},
		}, nil
	}

	code := extractor.Extract(out.Code(), req.LanguageID)
	gen.GeneratedLen = len(code)
	r.report(ctx, gen)

	log.Info("code generated", "generated_len", len(code), "elapsed", elapsed)

	return &Result{
		Outcome: out.Kind,
		Proposal: &DiffProposal{
			Original:  req.Document,
			Modified:  splice.Splice(req.Document, req.Span, code),
			Span:      req.Span,
			Generated: code,
		},
		Notification: Notification{Level: LevelInfo, Message: successText},
	}, nil
}

func (r *Runner) report(ctx context.Context, gen Generation) {
	if r.recorder != nil {
		if err := r.recorder.RecordGeneration(ctx, gen); err != nil {
			r.logger.Warn("failed to record generation", "id", gen.ID, "error", err)
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishGeneration(gen.Event()); err != nil {
			r.logger.Warn("failed to publish generation event", "id", gen.ID, "error", err)
		}
	}
}

// instruction picks the prompt instruction and extra context for the action.
func (req Request) instruction() (string, string, error) {
	switch req.Action {
	case ActionGenerateDoc:
		return prompt.GenerateDoc, "", nil
	case ActionRefactor:
		return prompt.Refactor, "", nil
	case ActionFix:
		if req.Problem == "" {
			return "", "", fmt.Errorf("fix: %w", ErrMissingInput)
		}
		return prompt.Fix, req.Problem, nil
	case ActionCustom:
		if req.Instruction == "" {
			return "", "", fmt.Errorf("custom: %w", ErrMissingInput)
		}
		return req.Instruction, "", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}
