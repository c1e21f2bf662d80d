package agent

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Provider tags select which model backend serves an agent.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Agent is a named role profile: the model it targets, the instructions that
// shape its persona, and display metadata for clients. Agents are immutable
// after registry construction.
type Agent struct {
	Name        string `toml:"name"`
	Model       string `toml:"model"`
	Provider    string `toml:"provider"`
	Instruction string `toml:"instruction"`
	Color       string `toml:"color"`
}

// Registry is an immutable lookup table of agents. The zero value is not
// usable; construct via NewRegistry, LoadFile or Default.
type Registry struct {
	agents      map[string]Agent
	names       []string
	defaultName string
}

// NewRegistry builds a registry from the given agents. The first agent is
// the default fallback for the chat path. Duplicate names are rejected.
func NewRegistry(agents ...Agent) (*Registry, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("registry requires at least one agent")
	}
	r := &Registry{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if a.Name == "" {
			return nil, fmt.Errorf("agent with empty name")
		}
		if a.Model == "" {
			return nil, fmt.Errorf("agent %s: empty model", a.Name)
		}
		if _, dup := r.agents[a.Name]; dup {
			return nil, fmt.Errorf("duplicate agent name %s", a.Name)
		}
		if a.Provider == "" {
			a.Provider = ProviderOpenAI
		}
		r.agents[a.Name] = a
		r.names = append(r.names, a.Name)
	}
	r.defaultName = agents[0].Name
	return r, nil
}

// Get returns the agent registered under name.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// GetOrDefault returns the named agent, falling back to the default agent
// when the name is empty or unknown.
func (r *Registry) GetOrDefault(name string) Agent {
	if a, ok := r.agents[name]; ok {
		return a
	}
	return r.agents[r.defaultName]
}

// Names returns the agent names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.names) }

// registryFile is the TOML document shape of an agents definition file.
type registryFile struct {
	Agents []Agent `toml:"agents"`
}

// LoadFile reads a TOML agents definition.
//
// Format:
//
//	[[agents]]
//	name = "Tech Lead"
//	model = "Claude-Sonnet-4.5"
//	provider = "openai"
//	instruction = "You are an experienced engineering director..."
//	color = "#059669"
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse agents file %s: %w", path, err)
	}
	return NewRegistry(file.Agents...)
}

// Default returns the built-in panel of role profiles.
func Default() *Registry {
	r, err := NewRegistry(
		Agent{
			Name:        "Assistant",
			Model:       "GPT-5",
			Provider:    ProviderOpenAI,
			Instruction: "You are a capable general-purpose AI assistant. Provide accurate, professional and insightful answers.",
			Color:       "#8B5CF6",
		},
		Agent{
			Name:        "Product Manager",
			Model:       "Claude-Sonnet-4.5",
			Provider:    ProviderOpenAI,
			Instruction: "You are a senior product manager with over ten years of product design and management experience. You excel at requirements analysis, user experience design, product strategy and market analysis. Give professional advice from a product perspective.",
			Color:       "#4F46E5",
		},
		Agent{
			Name:        "Tech Lead",
			Model:       "Claude-Sonnet-4.5",
			Provider:    ProviderOpenAI,
			Instruction: "You are an experienced engineering director, fluent in software architecture, technology selection, team management and project planning. Give professional opinions on technical feasibility, architecture and performance.",
			Color:       "#059669",
		},
		Agent{
			Name:        "Market Analyst",
			Model:       "Gemini-3.0-Pro",
			Provider:    ProviderOpenAI,
			Instruction: "You are a senior marketing expert with over fifteen years of strategy and brand experience. Give concrete, actionable marketing advice and strategy.",
			Color:       "#DC2626",
		},
		Agent{
			Name:        "UX Designer",
			Model:       "Claude-Sonnet-4.5",
			Provider:    ProviderOpenAI,
			Instruction: "You are a senior UX designer with over ten years of experience in user research, interaction design, information architecture, usability testing and design systems. Give deep professional advice from the user experience standpoint.",
			Color:       "#7C3AED",
		},
		Agent{
			Name:        "Business Analyst",
			Model:       "Claude-Sonnet-4.5",
			Provider:    ProviderOpenAI,
			Instruction: "You are a senior business analyst with over twelve years of consulting and investment analysis experience, fluent in business model construction, financial modelling and risk assessment. Analyse from the angle of business value creation.",
			Color:       "#EA580C",
		},
		Agent{
			Name:        "Claude",
			Model:       "claude-sonnet-4-5",
			Provider:    ProviderAnthropic,
			Instruction: "You are Claude, an AI model with strong reasoning, deep analysis and creative thinking. Provide accurate, thorough and insightful answers.",
			Color:       "#A855F7",
		},
	)
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return r
}
