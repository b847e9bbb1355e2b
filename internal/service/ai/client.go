package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInferenceTransport covers connection failures, non-success replies,
	// deadlines and a missing endpoint.
	ErrInferenceTransport = errors.New("inference transport failure")
	// ErrInferenceFormat means the reply carried no usable JSON object.
	ErrInferenceFormat = errors.New("inference format failure")
)

// DefaultTimeout bounds a single inference call.
const DefaultTimeout = 60 * time.Second

// Request 是一次多模态推理请求。ImageURL 可以是 data URL 或 http(s) 地址。
type Request struct {
	Prompt   string
	ImageURL string
}

// Completer sends one request to a hosted model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client wraps a Completer with a deadline and JSON extraction.
type Client struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient builds a Client. A nil completer yields a client whose every call
// fails with ErrInferenceTransport.
func NewClient(completer Completer, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{completer: completer, timeout: timeout, logger: logger}
}

// Enabled reports whether a completer is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.completer != nil
}

// Invoke performs one attempt and returns the JSON object found in the reply.
func (c *Client) Invoke(ctx context.Context, prompt, imageURL string) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: no inference endpoint configured", ErrInferenceTransport)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	text, err := c.completer.Complete(callCtx, Request{Prompt: prompt, ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceTransport, err)
	}
	c.logger.Debug("inference completed",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("reply_bytes", len(text)),
		zap.Bool("with_image", imageURL != ""),
	)

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInferenceFormat)
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFormat, err)
	}
	return raw, nil
}

// InvokeInto runs Invoke and decodes the object into out.
func (c *Client) InvokeInto(ctx context.Context, prompt, imageURL string, out any) error {
	raw, err := c.Invoke(ctx, prompt, imageURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInferenceFormat, err)
	}
	return nil
}
