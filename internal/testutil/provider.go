package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// ScriptedProvider is an in-memory model.Provider driven by a script of
// canned outcomes. Each Complete/Stream call consumes the next step; when
// the script runs out, a default response is produced. It records every
// request for assertions and is safe for concurrent use.
type ScriptedProvider struct {
	ProviderName string

	mu       sync.Mutex
	steps    []Step
	Requests []model.Request
}

// Step is one scripted outcome: either a response text or an error.
type Step struct {
	Response string
	Err      error
	// Chunks, when set, drives the streaming fragmentation; a buffered
	// call joins them.
	Chunks []string
}

// NewScriptedProvider creates a provider named "openai" by default.
func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{ProviderName: "openai", steps: steps}
}

var _ model.Provider = (*ScriptedProvider)(nil)

// Name implements model.Provider.
func (p *ScriptedProvider) Name() string { return p.ProviderName }

// Enqueue appends further scripted steps.
func (p *ScriptedProvider) Enqueue(steps ...Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, steps...)
}

// CallCount returns how many invocations the provider has served.
func (p *ScriptedProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

func (p *ScriptedProvider) next(req model.Request) Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if len(p.steps) == 0 {
		return Step{Response: fmt.Sprintf("scripted response %d", len(p.Requests))}
	}
	step := p.steps[0]
	p.steps = p.steps[1:]
	return step
}

// Complete implements model.Provider.
func (p *ScriptedProvider) Complete(_ context.Context, req model.Request) (string, error) {
	step := p.next(req)
	if step.Err != nil {
		return "", step.Err
	}
	if len(step.Chunks) > 0 {
		var out string
		for _, c := range step.Chunks {
			out += c
		}
		return out, nil
	}
	return step.Response, nil
}

// Stream implements model.Provider.
func (p *ScriptedProvider) Stream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	step := p.next(req)
	chunks := make(chan string, len(step.Chunks)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)
		fragments := step.Chunks
		if len(fragments) == 0 && step.Response != "" {
			fragments = []string{step.Response}
		}
		for _, c := range fragments {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case chunks <- c:
			}
		}
		if step.Err != nil {
			errCh <- step.Err
		}
	}()

	return chunks, errCh
}
