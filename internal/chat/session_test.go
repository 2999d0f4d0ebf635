package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/codemanager/internal/openai"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConverser returns queued outcomes and records the history it was given.
type fakeConverser struct {
	mu       sync.Mutex
	outcomes []openai.Outcome
	seen     [][]openai.Message
}

func (f *fakeConverser) Converse(_ context.Context, turns []openai.Message) openai.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, turns)
	if len(f.outcomes) == 0 {
		return openai.OK("default reply")
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out
}

type recordedTurn struct {
	sessionID string
	seq       int
	msg       openai.Message
}

type fakeRecorder struct {
	turns   []recordedTurn
	cleared []string
	err     error
}

func (r *fakeRecorder) RecordTurn(_ context.Context, sessionID string, seq int, msg openai.Message) error {
	r.turns = append(r.turns, recordedTurn{sessionID, seq, msg})
	return r.err
}

func (r *fakeRecorder) ClearSession(_ context.Context, sessionID string) error {
	r.cleared = append(r.cleared, sessionID)
	return r.err
}

func TestReceive_Generate(t *testing.T) {
	llm := &fakeConverser{outcomes: []openai.Outcome{openai.OK("hello there"), openai.OK("second")}}
	s := NewSession("s1", llm, nil, discardLogger())

	res := s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "hi"})
	if !res.OK || res.Text != "hello there" || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}

	res = s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "again"})
	if !res.OK || res.Text != "second" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(llm.seen) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(llm.seen))
	}
	if len(llm.seen[0]) != 1 {
		t.Errorf("expected first call with 1 turn, got %d", len(llm.seen[0]))
	}
	second := llm.seen[1]
	want := []openai.Message{
		{Role: openai.RoleUser, Content: "hi"},
		{Role: openai.RoleAssistant, Content: "hello there"},
		{Role: openai.RoleUser, Content: "again"},
	}
	if len(second) != len(want) {
		t.Fatalf("expected %d turns on second call, got %d", len(want), len(second))
	}
	for i := range want {
		if second[i] != want[i] {
			t.Errorf("turn %d: expected %+v, got %+v", i, want[i], second[i])
		}
	}

	if got := len(s.Turns()); got != 4 {
		t.Errorf("expected 4 turns in history, got %d", got)
	}
}

func TestReceive_ClearResetsHistory(t *testing.T) {
	llm := &fakeConverser{}
	s := NewSession("s1", llm, nil, discardLogger())

	s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "one"})
	res := s.Receive(context.Background(), Command{Command: CommandClear})
	if !res.OK || res.Text != ClearedText {
		t.Fatalf("unexpected clear result: %+v", res)
	}
	if len(s.Turns()) != 0 {
		t.Errorf("expected empty history after clear, got %d turns", len(s.Turns()))
	}
	if len(llm.seen) != 1 {
		t.Errorf("expected clear to make no remote call, got %d calls", len(llm.seen))
	}

	s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "fresh"})
	last := llm.seen[len(llm.seen)-1]
	if len(last) != 1 || last[0].Content != "fresh" {
		t.Errorf("expected history to start empty after clear, got %+v", last)
	}
}

func TestReceive_UnknownCommand(t *testing.T) {
	llm := &fakeConverser{}
	s := NewSession("s1", llm, nil, discardLogger())

	res := s.Receive(context.Background(), Command{Command: "dance"})
	if !res.OK || res.Text != UnknownCommandText {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(llm.seen) != 0 {
		t.Errorf("expected no remote call, got %d", len(llm.seen))
	}
}

func TestReceive_FailureIsAResult(t *testing.T) {
	tests := []struct {
		name    string
		outcome openai.Outcome
		want    string
	}{
		{"failed", openai.Failed(401, "Unauthorized"), "OpenAI Error: 401 Unauthorized"},
		{"truncated", openai.Outcome{Kind: openai.KindTruncated}, "Response too long. Please try again with a shorter prompt."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeConverser{outcomes: []openai.Outcome{tt.outcome}}
			s := NewSession("s1", llm, nil, discardLogger())

			res := s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "hi"})
			if res.OK {
				t.Fatal("expected failed result")
			}
			if res.Text != tt.want {
				t.Errorf("expected text %q, got %q", tt.want, res.Text)
			}
			var oe *openai.OutcomeError
			if !errors.As(res.Err, &oe) || oe.Outcome.Kind != tt.outcome.Kind {
				t.Errorf("expected OutcomeError of kind %s, got %v", tt.outcome.Kind, res.Err)
			}

			turns := s.Turns()
			if len(turns) != 1 || turns[0].Role != openai.RoleUser {
				t.Errorf("expected only the user turn kept, got %+v", turns)
			}
		})
	}
}

func TestReceive_RecordsTurns(t *testing.T) {
	rec := &fakeRecorder{}
	s := NewSession("s1", &fakeConverser{}, rec, discardLogger())

	s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "hi"})
	s.Receive(context.Background(), Command{Command: CommandClear})

	if len(rec.turns) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(rec.turns))
	}
	if rec.turns[0].seq != 0 || rec.turns[1].seq != 1 {
		t.Errorf("expected sequential seq numbers, got %d, %d", rec.turns[0].seq, rec.turns[1].seq)
	}
	if rec.turns[1].msg.Role != openai.RoleAssistant {
		t.Errorf("expected assistant turn recorded second, got %q", rec.turns[1].msg.Role)
	}
	if len(rec.cleared) != 1 || rec.cleared[0] != "s1" {
		t.Errorf("expected clear recorded for s1, got %v", rec.cleared)
	}
}

func TestReceive_RecorderErrorIsIgnored(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	s := NewSession("s1", &fakeConverser{}, rec, discardLogger())

	res := s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "hi"})
	if !res.OK {
		t.Errorf("expected recorder failure not to affect result, got %+v", res)
	}
}

// blockingConverser holds each call until released so overlapping Receive
// calls can be observed.
type blockingConverser struct {
	entered chan int
	release chan struct{}
}

func (b *blockingConverser) Converse(_ context.Context, turns []openai.Message) openai.Outcome {
	b.entered <- len(turns)
	<-b.release
	return openai.OK("ok")
}

func TestReceive_SerializesGenerate(t *testing.T) {
	llm := &blockingConverser{entered: make(chan int, 2), release: make(chan struct{})}
	s := NewSession("s1", llm, nil, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Receive(context.Background(), Command{Command: CommandGenerate, Message: "m"})
		}()
	}

	first := <-llm.entered
	select {
	case <-llm.entered:
		t.Fatal("second generate entered while first was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	llm.release <- struct{}{}
	second := <-llm.entered
	llm.release <- struct{}{}
	wg.Wait()

	if first != 1 || second != 3 {
		t.Errorf("expected history lengths 1 then 3, got %d then %d", first, second)
	}
}
