package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Registry tracks live sessions by id. Sessions idle for longer than the
// configured TTL are dropped.
type Registry struct {
	cache    *ttlcache.Cache[string, *Session]
	llm      Converser
	recorder Recorder
	logger   *slog.Logger
}

func NewRegistry(llm Converser, recorder Recorder, ttl time.Duration, logger *slog.Logger) *Registry {
	c := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	c.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			logger.Info("chat session expired", "session_id", item.Key())
		}
	})
	go c.Start()

	return &Registry{
		cache:    c,
		llm:      llm,
		recorder: recorder,
		logger:   logger,
	}
}

// Create starts an empty session with a fresh UUIDv7 id.
func (r *Registry) Create() *Session {
	id := uuid.Must(uuid.NewV7()).String()
	s := NewSession(id, r.llm, r.recorder, r.logger)
	r.cache.Set(id, s, ttlcache.DefaultTTL)
	r.logger.Info("chat session created", "session_id", id)
	return s
}

// Get returns the session and extends its lifetime.
func (r *Registry) Get(id string) (*Session, bool) {
	item := r.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (r *Registry) Delete(id string) bool {
	_, ok := r.cache.GetAndDelete(id)
	return ok
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close stops the expiration loop.
func (r *Registry) Close() {
	r.cache.Stop()
}
