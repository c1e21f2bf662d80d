package discussion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/flow"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// DefaultRounds is used when a request leaves the round count unset.
const DefaultRounds = 3

// summaryAgentName labels the synthesized summary message in the transcript.
const summaryAgentName = "Discussion Summary"

const summarizerInstruction = "You are a professional meeting recorder who excels at summarizing and distilling the key points of a discussion."

// Request describes one discussion run.
type Request struct {
	Question string
	// Rounds defaults to DefaultRounds when zero or negative.
	Rounds int
	// Agents is the roster, in speaking order. At least two distinct
	// agents are required and every name must exist in the registry.
	Agents         []string
	IncludeSummary bool
	Files          []core.FileArtifact
}

// Result reports the outcome of a completed run.
type Result struct {
	SessionID     string
	Completed     bool
	TotalMessages int
}

// Options configure the Orchestrator.
type Options struct {
	Builder *flow.Builder
	Logger  logging.Logger
}

// Orchestrator runs discussions against the configured registry, model
// client and stores.
type Orchestrator struct {
	registry *agent.Registry
	client   *model.Client
	builder  *flow.Builder
	sessions core.SessionStore
	memories core.MemoryStore
	logger   logging.Logger
}

// NewOrchestrator wires a discussion orchestrator.
func NewOrchestrator(registry *agent.Registry, client *model.Client, sessions core.SessionStore, memories core.MemoryStore, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Builder: flow.NewBuilder(),
		Logger:  logging.NewDefaultLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		registry: registry,
		client:   client,
		builder:  opts.Builder,
		sessions: sessions,
		memories: memories,
		logger:   opts.Logger,
	}
}

// Run executes the full discussion synchronously and persists the session
// once at the end. Individual agent failures are logged and skipped; only
// validation and persistence failures abort the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}
	rounds := req.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}

	question := strings.TrimSpace(req.Question)
	sess := core.NewSession("Discussion: " + core.TitleFromText(question))
	sess.Discussion = true

	userMsg := core.NewUserMessage(question)
	userMsg.Attachments = attachmentRefs(req.Files)
	sess.AddMessage(userMsg)

	questionTurn := o.questionTurn(question, req.Files)
	roster := strings.Join(req.Agents, ", ")

	o.logger.Info("discussion started", "session_id", sess.ID, "rounds", rounds, "agents", roster)

	for r := 1; r <= rounds; r++ {
		o.logger.Info("discussion round", "round", r, "of", rounds)
		for _, name := range req.Agents {
			a, _ := o.registry.Get(name)

			msgs := []model.ChatMessage{
				model.SystemMessage(o.systemPrompt(a, r, rounds, roster)),
				questionTurn,
			}
			msgs = append(msgs, reframeHistory(sess)...)
			msgs = append(msgs, model.UserMessage(fmt.Sprintf(
				"Now, %s, based on the discussion so far, please share your professional insight.", a.Name)))

			text, err := o.client.Complete(ctx, a.Provider, model.Request{
				Model:    a.Model,
				Messages: msgs,
			})
			if err != nil {
				o.logger.Error("agent turn failed, continuing", "agent", a.Name, "round", r, "error", err)
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				o.logger.Warn("agent returned empty content, skipping", "agent", a.Name, "round", r)
				continue
			}

			sess.AddMessage(core.NewAgentMessage(a.Name, text, r))
			o.logger.Info("agent turn completed", "agent", a.Name, "round", r, "chars", len(text))
		}
	}

	if req.IncludeSummary {
		o.summarize(ctx, sess, question, roster)
	}

	if err := o.sessions.Update(sess); err != nil {
		return nil, err
	}
	o.logger.Info("discussion completed", "session_id", sess.ID, "messages", len(sess.Messages))

	return &Result{
		SessionID:     sess.ID,
		Completed:     true,
		TotalMessages: len(sess.Messages),
	}, nil
}

func (o *Orchestrator) validate(req Request) error {
	if strings.TrimSpace(req.Question) == "" {
		return core.NewValidationError("question", "must not be empty")
	}
	if len(req.Agents) < 2 {
		return core.NewValidationError("agents", "a discussion needs at least two agents")
	}
	seen := make(map[string]struct{}, len(req.Agents))
	for _, name := range req.Agents {
		if _, ok := o.registry.Get(name); !ok {
			return core.NewValidationError("agents", fmt.Sprintf("unknown agent %q", name))
		}
		if _, dup := seen[name]; dup {
			return core.NewValidationError("agents", fmt.Sprintf("agent %q listed more than once", name))
		}
		seen[name] = struct{}{}
	}
	return nil
}

// systemPrompt frames the agent's persona with the round and roster context.
func (o *Orchestrator) systemPrompt(a agent.Agent, round, rounds int, roster string) string {
	var sb strings.Builder
	sb.WriteString(a.Instruction)
	fmt.Fprintf(&sb, "\n\nThis is round %d of %d in a multi-agent discussion.", round, rounds)
	fmt.Fprintf(&sb, "\nParticipants: %s.", roster)
	sb.WriteString("\nBuild on the question and the other participants' views to contribute your own professional insight.")
	return sb.String()
}

// questionTurn renders the discussion question with file and memory context
// as the opening user message: multimodal when image artifacts are present,
// plain text otherwise.
func (o *Orchestrator) questionTurn(question string, files []core.FileArtifact) model.ChatMessage {
	text := "Discussion question: " + question
	if digest := o.builder.MemoryDigest(o.loadMemories()); digest != "" {
		text += "\n\n" + digest
	}
	return o.builder.UserTurn(text, files)
}

// reframeHistory converts the prior agent contributions into alternating
// user/assistant pairs so each model sees the discussion as a conversation
// it is part of. The opening question and any summary are excluded.
func reframeHistory(sess *core.Session) []model.ChatMessage {
	var msgs []model.ChatMessage
	for _, m := range sess.AgentMessages() {
		content := strings.TrimSpace(m.Text())
		if content == "" {
			continue
		}
		msgs = append(msgs,
			model.UserMessage(fmt.Sprintf("Please share your professional view, %s.", m.AgentName)),
			model.AssistantMessage(content),
		)
	}
	return msgs
}

// summarize runs the synthesis pass. A failed summary is logged and the run
// still counts as completed.
func (o *Orchestrator) summarize(ctx context.Context, sess *core.Session, question, roster string) {
	contributions := make([]string, 0, len(sess.Messages))
	for _, m := range sess.AgentMessages() {
		contributions = append(contributions, fmt.Sprintf("[%s] (round %d):\n%s", m.AgentName, m.Round, m.Text()))
	}

	prompt := fmt.Sprintf(`Please write a thorough summary of the following multi-agent discussion:

Discussion question: %s

Participants: %s

Discussion content:
%s

Cover the following aspects:
1. Key points raised
2. Each participant's main recommendations
3. Points of consensus and disagreement
4. Feasibility assessment
5. Suggested next steps

Present the summary with a clear structure in markdown.`, question, roster, strings.Join(contributions, "\n"))

	summarizer := o.registry.GetOrDefault("")
	text, err := o.client.Complete(ctx, summarizer.Provider, model.Request{
		Model: summarizer.Model,
		Messages: []model.ChatMessage{
			model.SystemMessage(summarizerInstruction),
			model.UserMessage(prompt),
		},
	})
	if err != nil {
		o.logger.Error("summary generation failed", "error", err)
		return
	}

	sess.AddMessage(core.Message{
		ID:        core.NewID(),
		Role:      core.RoleSummary,
		Content:   core.TextContent{Text: text},
		AgentName: summaryAgentName,
		Timestamp: time.Now().UTC(),
	})
	o.logger.Info("discussion summary generated", "chars", len(text))
}

// loadMemories fetches the memory collection for context injection; a store
// failure degrades the run rather than failing it.
func (o *Orchestrator) loadMemories() []core.Memory {
	memories, err := o.memories.All()
	if err != nil {
		o.logger.Warn("loading memories failed, continuing without", "error", err)
		return nil
	}
	return memories
}

func attachmentRefs(files []core.FileArtifact) []core.Attachment {
	if len(files) == 0 {
		return nil
	}
	refs := make([]core.Attachment, 0, len(files))
	for _, f := range files {
		size := int64(len(f.Text))
		if f.IsImage() {
			size = int64(len(f.ImageBase64))
		}
		refs = append(refs, core.Attachment{
			FileID:   core.NewID(),
			Filename: f.Filename,
			FileType: f.FileType,
			FileSize: size,
		})
	}
	return refs
}
