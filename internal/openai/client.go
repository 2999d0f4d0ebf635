package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultCompletionModel = "gpt-3.5-turbo-0613"
	DefaultChatModel       = "gpt-3.5-turbo"

	codeFunctionName = "openai_code_generator"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client talks to an OpenAI-compatible chat completions endpoint. A Client
// is never mutated after construction; use WithAPIKey to obtain a client
// carrying a different credential.
type Client struct {
	apiKey          string
	baseURL         string
	completionModel string
	chatModel       string
	client          *http.Client
	logger          *slog.Logger
}

type Options struct {
	BaseURL         string
	CompletionModel string
	ChatModel       string
	Timeout         time.Duration
	Logger          *slog.Logger
}

func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CompletionModel == "" {
		opts.CompletionModel = DefaultCompletionModel
	}
	if opts.ChatModel == "" {
		opts.ChatModel = DefaultChatModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		completionModel: opts.CompletionModel,
		chatModel:       opts.ChatModel,
		client:          &http.Client{Timeout: opts.Timeout},
		logger:          opts.Logger,
	}
}

// WithAPIKey returns a copy of the client that authenticates with apiKey.
func (c *Client) WithAPIKey(apiKey string) *Client {
	cp := *c
	cp.apiKey = apiKey
	return &cp
}

func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

func (c *Client) CompletionModel() string { return c.completionModel }

func (c *Client) ChatModel() string { return c.chatModel }

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type functionCall struct {
	Name string `json:"name"`
}

type request struct {
	Model        string        `json:"model"`
	Messages     []Message     `json:"messages"`
	Functions    []function    `json:"functions,omitempty"`
	FunctionCall *functionCall `json:"function_call,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Role         string  `json:"role"`
			Content      *string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

var codeGenerator = function{
	Name:        codeFunctionName,
	Description: "Generates code from a prompt.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Function code",
			},
		},
		"required": []string{"code"},
	},
}

// Complete sends a single prompt and forces the code generator function so
// the reply carries a {"code": ...} object.
func (c *Client) Complete(ctx context.Context, prompt string) Outcome {
	return c.do(ctx, request{
		Model:        c.completionModel,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
		Functions:    []function{codeGenerator},
		FunctionCall: &functionCall{Name: codeFunctionName},
	})
}

// Converse sends the whole conversation. The caller owns the history.
func (c *Client) Converse(ctx context.Context, turns []Message) Outcome {
	return c.do(ctx, request{
		Model:    c.chatModel,
		Messages: turns,
	})
}

func (c *Client) do(ctx context.Context, reqBody request) Outcome {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Failed(0, fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Failed(0, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", "model", reqBody.Model, "error", err)
		return Failed(0, transportText(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failed(resp.StatusCode, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			c.logger.Warn("completion api error",
				"status", resp.StatusCode,
				"type", errResp.Error.Type,
				"message", errResp.Error.Message,
			)
		}
		return Failed(resp.StatusCode, statusText(resp))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		c.logger.Warn("unparseable completion response", "error", err)
		return Failed(resp.StatusCode, "malformed response")
	}

	c.logger.Debug("completion received",
		"model", reqBody.Model,
		"messages", len(reqBody.Messages),
		"choices", len(apiResp.Choices),
		"elapsed", time.Since(start),
	)

	if len(apiResp.Choices) == 0 {
		return OK("")
	}

	choice := apiResp.Choices[0]
	kind := outcomeFor(choice.FinishReason)
	if kind != KindOK {
		c.logger.Warn("completion not usable", "finish_reason", choice.FinishReason, "outcome", kind.String())
		return Outcome{Kind: kind}
	}

	out := OK("")
	if choice.Message.Content != nil {
		out.Text = *choice.Message.Content
	}
	if fc := choice.Message.FunctionCall; fc != nil {
		out.Arguments = fc.Arguments
	}
	return out
}

// statusText returns the reason phrase of resp.Status ("401 Unauthorized" -> "Unauthorized").
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func transportText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return err.Error()
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.baseURL = url
}
