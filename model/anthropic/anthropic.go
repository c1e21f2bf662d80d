// Package anthropic implements model.Provider using the Anthropic Messages
// API, for agents that target Claude models directly instead of going
// through the OpenAI-compatible gateway.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// Options configure the Anthropic provider adapter.
type Options struct {
	APIKey string
}

// Provider wraps the Anthropic Messages API behind model.Provider.
type Provider struct {
	client *anthropic.Client
}

var _ model.Provider = (*Provider)(nil)

// NewProvider creates a provider using the official client.
func NewProvider(optFns ...func(o *Options)) *Provider {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)
	return &Provider{client: &client}
}

// NewProviderFromClient creates a provider from an existing client.
func NewProviderFromClient(client *anthropic.Client) *Provider {
	return &Provider{client: client}
}

// Name implements model.Provider.
func (p *Provider) Name() string { return agent.ProviderAnthropic }

// Complete implements the buffered invocation mode.
func (p *Provider) Complete(ctx context.Context, req model.Request) (string, error) {
	params, err := buildParams(req)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Stream implements the incremental invocation mode.
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

		stream := p.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok || ev.Delta.Text == "" {
				continue
			}
			select {
			case <-ctx.Done():
				errCh <- &model.APIError{Provider: agent.ProviderAnthropic, Err: ctx.Err()}
				return
			case chunks <- ev.Delta.Text:
			}
		}
		if serr := stream.Err(); serr != nil {
			errCh <- classify(serr)
		}
	}()

	return chunks, errCh
}

func buildParams(req model.Request) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}

	for _, m := range req.Messages {
		switch m.Role {
		case model.ChatRoleSystem:
			// The Messages API takes system text out of band.
			params.System = append(params.System, anthropic.TextBlockParam{Text: core.PlainText(m.Content)})
		case model.ChatRoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(core.PlainText(m.Content))))
		case model.ChatRoleUser:
			blocks, err := buildUserBlocks(m.Content)
			if err != nil {
				return anthropic.MessageNewParams{}, err
			}
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		default:
			return anthropic.MessageNewParams{}, &model.APIError{
				Provider: agent.ProviderAnthropic,
				Err:      fmt.Errorf("unsupported chat role %q", m.Role),
			}
		}
	}
	return params, nil
}

func buildUserBlocks(c core.Content) ([]anthropic.ContentBlockParamUnion, error) {
	switch v := c.(type) {
	case core.TextContent:
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(v.Text)}, nil
	case core.MultimodalContent:
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(v.Parts))
		for _, part := range v.Parts {
			switch pv := part.(type) {
			case core.TextPart:
				blocks = append(blocks, anthropic.NewTextBlock(pv.Text))
			case core.ImagePart:
				blocks = append(blocks, anthropic.NewImageBlockBase64("image/"+pv.MediaType, pv.Base64))
			default:
				return nil, &model.APIError{
					Provider: agent.ProviderAnthropic,
					Err:      fmt.Errorf("unsupported content part %T", part),
				}
			}
		}
		return blocks, nil
	default:
		return nil, &model.APIError{
			Provider: agent.ProviderAnthropic,
			Err:      fmt.Errorf("unsupported content type %T", c),
		}
	}
}

// classify maps SDK failures onto the package error taxonomy.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return &model.AuthError{Provider: agent.ProviderAnthropic, Err: err}
		case 429:
			return &model.RateLimitError{Provider: agent.ProviderAnthropic, Err: err}
		default:
			return &model.APIError{
				Provider:  agent.ProviderAnthropic,
				Transient: apierr.StatusCode >= 500,
				Err:       err,
			}
		}
	}
	return &model.APIError{Provider: agent.ProviderAnthropic, Transient: true, Err: err}
}
