package openai

import (
	"context"
	"sync/atomic"
)

// Provider holds the client currently in use. Reconfigure swaps in a new
// client; requests that already picked up the old one finish with it.
type Provider struct {
	current atomic.Pointer[Client]
}

func NewProvider(c *Client) *Provider {
	p := &Provider{}
	p.current.Store(c)
	return p
}

// Client returns the client requests should be issued with right now.
func (p *Provider) Client() *Client {
	return p.current.Load()
}

// Reconfigure installs a client using apiKey and returns it.
func (p *Provider) Reconfigure(apiKey string) *Client {
	for {
		old := p.current.Load()
		next := old.WithAPIKey(apiKey)
		if p.current.CompareAndSwap(old, next) {
			return next
		}
	}
}

func (p *Provider) Complete(ctx context.Context, prompt string) Outcome {
	return p.Client().Complete(ctx, prompt)
}

func (p *Provider) Converse(ctx context.Context, turns []Message) Outcome {
	return p.Client().Converse(ctx, turns)
}
