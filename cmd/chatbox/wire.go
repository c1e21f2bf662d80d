package main

import (
	"fmt"
	"os"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/chat"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/config"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/discussion"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/memory"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model/anthropic"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model/openai"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/session"
)

// app holds the wired object graph shared by every subcommand.
type app struct {
	cfg         config.Config
	logger      logging.Logger
	registry    *agent.Registry
	client      *model.Client
	sessions    *session.FileStore
	memories    *memory.FileStore
	chat        *chat.Service
	discussions *discussion.Orchestrator
}

// wire builds the object graph from configuration: config, logger, agent
// registry, providers, model client, stores, services.
func (a *app) wire(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewLogger(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	if cfg.AgentsFile != "" {
		registry, err := agent.LoadFile(cfg.AgentsFile)
		if err != nil {
			return fmt.Errorf("load agents file: %w", err)
		}
		a.registry = registry
	} else {
		a.registry = agent.Default()
	}

	providers := []model.Provider{
		openai.NewProvider(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}),
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, anthropic.NewProvider(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
		}))
	}

	a.client = model.NewClient(providers, func(o *model.Options) {
		o.Logger = a.logger
		o.MaxTokens = cfg.MaxTokens
		o.Temperature = cfg.Temperature
		o.Limiter = model.NewWindowLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		o.Retry = model.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			MinDelay:    cfg.RetryDelay,
			MaxDelay:    10 * cfg.RetryDelay,
		}
	})

	a.sessions = session.NewFileStore(cfg.SessionsFile, func(o *session.Options) {
		o.Logger = a.logger
		o.CacheTTL = cfg.CacheTTL
	})
	a.memories = memory.NewFileStore(cfg.MemoriesFile, func(o *memory.Options) {
		o.Logger = a.logger
	})

	a.chat = chat.NewService(a.registry, a.client, a.sessions, a.memories, func(o *chat.Options) {
		o.Logger = a.logger
	})
	a.discussions = discussion.NewOrchestrator(a.registry, a.client, a.sessions, a.memories, func(o *discussion.Options) {
		o.Logger = a.logger
	})
	return nil
}
