package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/internal/testutil"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

func quietClient(p model.Provider, optFns ...func(o *model.Options)) *model.Client {
	fns := append([]func(o *model.Options){func(o *model.Options) {
		o.Logger = logging.NoOpLogger{}
		o.Retry = model.RetryPolicy{MaxAttempts: 3, MinDelay: time.Millisecond, MaxDelay: time.Millisecond}
	}}, optFns...)
	return model.NewClient([]model.Provider{p}, fns...)
}

func TestCompleteFillsDefaults(t *testing.T) {
	p := testutil.NewScriptedProvider(testutil.Step{Response: "hi"})
	c := quietClient(p, func(o *model.Options) {
		o.MaxTokens = 1234
		o.Temperature = 0.7
	})

	out, err := c.Complete(context.Background(), "openai", model.Request{
		Model:    "GPT-5",
		Messages: []model.ChatMessage{model.UserMessage("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	require.Len(t, p.Requests, 1)
	assert.Equal(t, int64(1234), p.Requests[0].MaxTokens)
	assert.Equal(t, 0.7, p.Requests[0].Temperature)
}

func TestCompleteUnknownProvider(t *testing.T) {
	c := quietClient(testutil.NewScriptedProvider())
	_, err := c.Complete(context.Background(), "nope", model.Request{Model: "m"})
	require.Error(t, err)
	var apiErr *model.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestCompleteRetriesUpstreamRateLimit(t *testing.T) {
	p := testutil.NewScriptedProvider(
		testutil.Step{Err: &model.RateLimitError{Provider: "openai"}},
		testutil.Step{Err: &model.RateLimitError{Provider: "openai"}},
		testutil.Step{Response: "eventually"},
	)
	c := quietClient(p)

	out, err := c.Complete(context.Background(), "openai", model.Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "eventually", out)
	assert.Equal(t, 3, p.CallCount())
}

func TestCompleteDoesNotRetryAuthFailure(t *testing.T) {
	p := testutil.NewScriptedProvider(
		testutil.Step{Err: &model.AuthError{Provider: "openai", Err: errors.New("bad key")}},
	)
	c := quietClient(p)

	_, err := c.Complete(context.Background(), "openai", model.Request{Model: "m"})
	require.Error(t, err)
	assert.True(t, model.IsAuth(err))
	assert.Equal(t, 1, p.CallCount())
}

func TestCompleteRateLimitSurfacesAfterRetries(t *testing.T) {
	// Local admission control: one request per window. Without a window
	// reset every retry is rejected too, so the error finally surfaces.
	p := testutil.NewScriptedProvider(testutil.Step{Response: "first"})
	c := quietClient(p, func(o *model.Options) {
		o.Limiter = model.NewWindowLimiter(1, time.Hour)
	})

	out, err := c.Complete(context.Background(), "openai", model.Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	_, err = c.Complete(context.Background(), "openai", model.Request{Model: "m"})
	require.Error(t, err)
	assert.True(t, model.IsRateLimit(err))
	assert.Equal(t, 1, p.CallCount(), "rejected before reaching the provider")
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	p := testutil.NewScriptedProvider(testutil.Step{Chunks: []string{"a", "b", "c"}})
	c := quietClient(p)

	chunks, errCh := c.Stream(context.Background(), "openai", model.Request{Model: "m"})

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.NoError(t, <-errCh)
}

func TestStreamMidstreamFailureSurfaces(t *testing.T) {
	p := testutil.NewScriptedProvider(testutil.Step{
		Chunks: []string{"partial"},
		Err:    &model.APIError{Provider: "openai", Err: errors.New("connection lost")},
	})
	c := quietClient(p)

	chunks, errCh := c.Stream(context.Background(), "openai", model.Request{Model: "m"})

	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"partial"}, got)

	err := <-errCh
	require.Error(t, err)
	var apiErr *model.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestStreamRejectedByLimiter(t *testing.T) {
	p := testutil.NewScriptedProvider()
	c := quietClient(p, func(o *model.Options) {
		o.Limiter = model.NewWindowLimiter(1, time.Hour)
	})

	first, firstErr := c.Stream(context.Background(), "openai", model.Request{Model: "m"})
	for range first {
	}
	require.NoError(t, <-firstErr)

	chunks, errCh := c.Stream(context.Background(), "openai", model.Request{Model: "m"})
	for range chunks {
		t.Fatal("no chunks expected")
	}
	err := <-errCh
	require.Error(t, err)
	assert.True(t, model.IsRateLimit(err))
	assert.Equal(t, 1, p.CallCount())
}

func TestHealthCheck(t *testing.T) {
	p := testutil.NewScriptedProvider(
		testutil.Step{Response: "ok"},
		testutil.Step{Err: &model.APIError{Provider: "openai", Err: errors.New("down")}},
	)
	c := quietClient(p, func(o *model.Options) {
		// No retry: a health probe is a single attempt.
		o.Retry = model.RetryPolicy{MaxAttempts: 1}
	})

	assert.True(t, c.HealthCheck(context.Background(), "openai", "GPT-5"))
	assert.False(t, c.HealthCheck(context.Background(), "openai", "GPT-5"))
	assert.False(t, c.HealthCheck(context.Background(), "missing", "GPT-5"))

	require.Len(t, p.Requests, 2)
	assert.Equal(t, int64(10), p.Requests[0].MaxTokens, "minimal token budget")
}
