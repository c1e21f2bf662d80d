// Package openai implements model.Provider using the OpenAI Chat Completions
// API. The adapter also serves any OpenAI-compatible gateway (the deployment
// this system was built for fronts its models through one) via a configurable
// base URL.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// Options configure the OpenAI provider adapter.
type Options struct {
	APIKey  string
	BaseURL string
}

// Provider wraps the OpenAI Chat Completions API behind model.Provider.
type Provider struct {
	client *openai.Client
}

var _ model.Provider = (*Provider)(nil)

// NewProvider creates a provider using the official client. An empty BaseURL
// targets api.openai.com.
func NewProvider(optFns ...func(o *Options)) *Provider {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return &Provider{client: &client}
}

// NewProviderFromClient creates a provider from an existing client.
func NewProviderFromClient(client *openai.Client) *Provider {
	return &Provider{client: client}
}

// Name implements model.Provider.
func (p *Provider) Name() string { return agent.ProviderOpenAI }

// Complete implements the buffered invocation mode.
func (p *Provider) Complete(ctx context.Context, req model.Request) (string, error) {
	params, err := buildParams(req)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &model.APIError{Provider: p.Name(), Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream implements the incremental invocation mode. Fragments are forwarded
// as they arrive; a mid-stream failure is delivered on the error channel
// before both channels close.
func (p *Provider) Stream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	chunks := make(chan string, 32)
	errCh := make(chan error, 1)

	params, err := buildParams(req)
	if err != nil {
		errCh <- err
		close(chunks)
		close(errCh)
		return chunks, errCh
	}

	go func() {
		defer close(chunks)
		defer close(errCh)

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case <-ctx.Done():
					errCh <- &model.APIError{Provider: p.Name(), Err: ctx.Err()}
					return
				case chunks <- ch.Delta.Content:
				}
			}
		}
		if serr := stream.Err(); serr != nil {
			errCh <- classify(serr)
		}
	}()

	return chunks, errCh
}

func buildParams(req model.Request) (openai.ChatCompletionNewParams, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case model.ChatRoleSystem:
			messages = append(messages, openai.SystemMessage(core.PlainText(m.Content)))
		case model.ChatRoleAssistant:
			messages = append(messages, openai.AssistantMessage(core.PlainText(m.Content)))
		case model.ChatRoleUser:
			um, err := buildUserMessage(m.Content)
			if err != nil {
				return openai.ChatCompletionNewParams{}, err
			}
			messages = append(messages, um)
		default:
			return openai.ChatCompletionNewParams{}, &model.APIError{
				Provider: agent.ProviderOpenAI,
				Err:      fmt.Errorf("unsupported chat role %q", m.Role),
			}
		}
	}

	return openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(req.MaxTokens),
	}, nil
}

func buildUserMessage(c core.Content) (openai.ChatCompletionMessageParamUnion, error) {
	switch v := c.(type) {
	case core.TextContent:
		return openai.UserMessage(v.Text), nil
	case core.MultimodalContent:
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(v.Parts))
		for _, part := range v.Parts {
			switch pv := part.(type) {
			case core.TextPart:
				parts = append(parts, openai.TextContentPart(pv.Text))
			case core.ImagePart:
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: pv.DataURI(),
				}))
			default:
				return openai.ChatCompletionMessageParamUnion{}, &model.APIError{
					Provider: agent.ProviderOpenAI,
					Err:      fmt.Errorf("unsupported content part %T", part),
				}
			}
		}
		return openai.UserMessage(parts), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, &model.APIError{
			Provider: agent.ProviderOpenAI,
			Err:      fmt.Errorf("unsupported content type %T", c),
		}
	}
}

// classify maps SDK failures onto the package error taxonomy.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return &model.AuthError{Provider: agent.ProviderOpenAI, Err: err}
		case 429:
			return &model.RateLimitError{Provider: agent.ProviderOpenAI, Err: err}
		default:
			return &model.APIError{
				Provider:  agent.ProviderOpenAI,
				Transient: apierr.StatusCode >= 500,
				Err:       err,
			}
		}
	}
	// Anything that is not a structured API error is a transport problem.
	return &model.APIError{Provider: agent.ProviderOpenAI, Transient: true, Err: err}
}
