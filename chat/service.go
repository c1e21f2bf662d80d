package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/flow"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/logging"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// MaxMessageChars bounds the length of a single user message.
const MaxMessageChars = 10000

// SendRequest carries one user turn.
type SendRequest struct {
	// SessionID selects an existing session; empty starts a new one.
	SessionID string
	// AgentName selects the responding agent; empty uses the default.
	AgentName string
	Text      string
	Files     []core.FileArtifact
}

// SendResult is the outcome of a buffered turn.
type SendResult struct {
	SessionID string
	Message   core.Message
}

// StreamResult is the outcome of an incremental turn. Chunks delivers the
// response text as it arrives; Err delivers at most one terminal error. The
// transcript is persisted only after Chunks closes without an error.
type StreamResult struct {
	SessionID string
	MessageID string
	Agent     string
	Chunks    <-chan string
	Err       <-chan error
}

// Options configure the Service.
type Options struct {
	Builder *flow.Builder
	Logger  logging.Logger
}

// Service runs single-agent chat turns against the configured stores and
// model client.
type Service struct {
	registry *agent.Registry
	client   *model.Client
	builder  *flow.Builder
	sessions core.SessionStore
	memories core.MemoryStore
	logger   logging.Logger
}

// NewService wires a chat service.
func NewService(registry *agent.Registry, client *model.Client, sessions core.SessionStore, memories core.MemoryStore, optFns ...func(o *Options)) *Service {
	opts := Options{
		Builder: flow.NewBuilder(),
		Logger:  logging.NewDefaultLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		registry: registry,
		client:   client,
		builder:  opts.Builder,
		sessions: sessions,
		memories: memories,
		logger:   opts.Logger,
	}
}

// Send runs one buffered turn: the user message is appended, the completion
// requested, the agent message appended, and the whole session persisted
// once at the end. A failed completion persists nothing.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	sess, a, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	msgs := s.builder.BuildTurn(a, sess, s.loadMemories(), req.Files, req.Text)

	text, err := s.client.Complete(ctx, a.Provider, model.Request{
		Model:    a.Model,
		Messages: msgs,
	})
	if err != nil {
		return nil, err
	}

	reply := core.NewAgentMessage(a.Name, text, 0)
	sess.AddMessage(reply)
	if err := s.sessions.Update(sess); err != nil {
		return nil, err
	}
	s.logger.Info("chat turn completed", "session_id", sess.ID, "agent", a.Name, "chars", len(text))
	return &SendResult{SessionID: sess.ID, Message: reply}, nil
}

// Stream runs one incremental turn. Setup failures return an error
// immediately; once a StreamResult is handed out, failures surface on its
// Err channel. The transcript (user turn plus accumulated reply) is
// persisted only after the upstream stream completes cleanly.
func (s *Service) Stream(ctx context.Context, req SendRequest) (*StreamResult, error) {
	sess, a, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	msgs := s.builder.BuildTurn(a, sess, s.loadMemories(), req.Files, req.Text)
	upstream, upstreamErr := s.client.Stream(ctx, a.Provider, model.Request{
		Model:    a.Model,
		Messages: msgs,
	})

	messageID := core.NewID()
	chunks := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errCh)

		var sb strings.Builder
		for chunk := range upstream {
			sb.WriteString(chunk)
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if err := <-upstreamErr; err != nil {
			s.logger.Error("chat stream failed", "session_id", sess.ID, "agent", a.Name, "error", err)
			errCh <- err
			return
		}

		reply := core.Message{
			ID:        messageID,
			Role:      core.RoleAgent,
			Content:   core.TextContent{Text: sb.String()},
			AgentName: a.Name,
			Timestamp: time.Now().UTC(),
		}
		sess.AddMessage(reply)
		if err := s.sessions.Update(sess); err != nil {
			errCh <- err
			return
		}
		s.logger.Info("chat stream completed", "session_id", sess.ID, "agent", a.Name, "chars", sb.Len())
	}()

	return &StreamResult{
		SessionID: sess.ID,
		MessageID: messageID,
		Agent:     a.Name,
		Chunks:    chunks,
		Err:       errCh,
	}, nil
}

// prepare validates the request, resolves the session and agent, and
// appends the user message to the in-memory session. Nothing is persisted
// here.
func (s *Service) prepare(req SendRequest) (*core.Session, agent.Agent, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, agent.Agent{}, core.NewValidationError("message", "must not be empty")
	}
	if utf8.RuneCountInString(req.Text) > MaxMessageChars {
		return nil, agent.Agent{}, core.NewValidationError("message", "exceeds the 10000 character limit")
	}

	var sess *core.Session
	if req.SessionID == "" {
		sess = core.NewSession(core.TitleFromText(text))
		s.logger.Info("session created", "session_id", sess.ID)
	} else {
		loaded, err := s.sessions.Get(req.SessionID)
		if err != nil {
			return nil, agent.Agent{}, err
		}
		if loaded == nil {
			return nil, agent.Agent{}, core.NewValidationError("session_id", "session not found")
		}
		sess = loaded
	}

	a := s.registry.GetOrDefault(req.AgentName)

	userMsg := core.NewUserMessage(req.Text)
	userMsg.Attachments = attachmentRefs(req.Files)
	sess.AddMessage(userMsg)

	return sess, a, nil
}

// loadMemories fetches the memory collection for context injection. A store
// failure degrades the turn rather than failing it.
func (s *Service) loadMemories() []core.Memory {
	memories, err := s.memories.All()
	if err != nil {
		s.logger.Warn("loading memories failed, continuing without", "error", err)
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
