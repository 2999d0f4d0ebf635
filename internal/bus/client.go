// Package bus connects codemanager to NATS: credential updates come in,
// generation events go out.
package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectSettingsUpdated     = "codemanager.settings.updated"
	SubjectGenerationCompleted = "codemanager.generation.completed"
)

// GenerationEvent is published after every editor action request.
type GenerationEvent struct {
	RequestID  string `json:"request_id"`
	Action     string `json:"action"`
	Language   string `json:"language"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to url. The connection keeps retrying in the
// background, so a bus that is down at startup does not fail the service.
func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("codemanager"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("settings bus disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("settings bus reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("settings bus error", "subject", subject, "error", err)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

// SubscribeSettings calls apply with the API key carried by every settings
// update.
func (c *Client) SubscribeSettings(apply func(apiKey string)) error {
	if _, err := c.conn.Subscribe(SubjectSettingsUpdated, settingsHandler(apply, c.logger)); err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectSettingsUpdated, err)
	}
	c.logger.Info("listening for settings updates", "subject", SubjectSettingsUpdated)
	return nil
}

func (c *Client) PublishGeneration(ev GenerationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal generation event: %w", err)
	}
	if err := c.conn.Publish(SubjectGenerationCompleted, payload); err != nil {
		return fmt.Errorf("publish generation event: %w", err)
	}
	return nil
}

// Close drains subscriptions and pending publishes before closing.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("settings bus drain failed", "error", err)
		c.conn.Close()
	}
}
