package model

import (
	"context"
	"fmt"
	"time"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
)

// Options configure the resilient Client.
type Options struct {
	Limiter     *WindowLimiter
	Retry       RetryPolicy
	Logger      logging.Logger
	MaxTokens   int64
	Temperature float64
}

// Client wraps one or more providers behind admission control and retry
// policy. Buffered calls are retried per policy; streaming calls are not.
// The client is safe for concurrent use: the limiter carries its own lock
// and everything else is read-only after construction.
type Client struct {
	providers   map[string]Provider
	limiter     *WindowLimiter
	retry       RetryPolicy
	logger      logging.Logger
	maxTokens   int64
	temperature float64
}

// NewClient creates a client routing requests to the given providers by
// name.
func NewClient(providers []Provider, optFns ...func(o *Options)) *Client {
	opts := Options{
		Limiter:     NewWindowLimiter(100, time.Minute),
		Retry:       DefaultRetryPolicy(),
		Logger:      logging.NewDefaultLogger(),
		MaxTokens:   4000,
		Temperature: 0.3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Client{
		providers:   make(map[string]Provider, len(providers)),
		limiter:     opts.Limiter,
		retry:       opts.Retry,
		logger:      opts.Logger,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
	for _, p := range providers {
		c.providers[p.Name()] = p
	}
	return c
}

func (c *Client) provider(name string) (Provider, error) {
	p, ok := c.providers[name]
	if !ok {
		return nil, &APIError{Provider: name, Err: fmt.Errorf("no such provider configured")}
	}
	return p, nil
}

func (c *Client) fillDefaults(req *Request) {
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}
}

// Complete performs a buffered invocation under admission control and the
// retry policy. RateLimitError and transient transport failures are retried
// with backoff; AuthError and other API errors propagate immediately.
func (c *Client) Complete(ctx context.Context, providerName string, req Request) (string, error) {
	p, err := c.provider(providerName)
	if err != nil {
		return "", err
	}
	c.fillDefaults(&req)

	var result string
	start := time.Now()
	err = c.retry.Do(ctx, func() error {
		if aerr := c.limiter.Allow(); aerr != nil {
			return aerr
		}
		var cerr error
		result, cerr = p.Complete(ctx, req)
		return cerr
	})
	if err != nil {
		c.logger.Error("model call failed", "provider", providerName, "model", req.Model, "duration", time.Since(start), "error", err)
		return "", err
	}
	c.logger.Info("model call completed", "provider", providerName, "model", req.Model, "duration", time.Since(start), "chars", len(result))
	return result, nil
}

// Stream performs an incremental invocation. Admission control still applies
// and fails fast, but there is no retry: a hung or broken stream surfaces on
// the error channel and the sequence terminates.
func (c *Client) Stream(ctx context.Context, providerName string, req Request) (<-chan string, <-chan error) {
	p, err := c.provider(providerName)
	if err == nil {
		err = c.limiter.Allow()
	}
	if err != nil {
		chunks := make(chan string)
		errCh := make(chan error, 1)
		errCh <- err
		close(chunks)
		close(errCh)
		return chunks, errCh
	}
	c.fillDefaults(&req)
	c.logger.Debug("model stream opened", "provider", providerName, "model", req.Model)
	return p.Stream(ctx, req)
}

// HealthCheck reports provider reachability with a trivial one-message,
// small-budget completion. Failure is non-fatal and only downgrades the
// reported status.
func (c *Client) HealthCheck(ctx context.Context, providerName, modelName string) bool {
	p, err := c.provider(providerName)
	if err != nil {
		return false
	}
	_, err = p.Complete(ctx, Request{
		Model:       modelName,
		Messages:    []ChatMessage{UserMessage("test")},
		MaxTokens:   10,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Warn("health check failed", "provider", providerName, "error", err)
		return false
	}
	return true
}
