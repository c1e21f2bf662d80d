package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// Event types for the NDJSON framing.
const (
	TypeMeta    = "meta"
	TypeContent = "content"
	TypeError   = "error"
)

// Event types for the SSE framing.
const (
	TypeMetadata = "metadata"
	TypeDone     = "done"
)

// Event is one unit of streamed output. Only the fields relevant to the
// event type are populated.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Meta builds the opening event carrying turn identity.
func Meta(sessionID, messageID, agent string) Event {
	return Event{Type: TypeMeta, SessionID: sessionID, MessageID: messageID, Agent: agent}
}

// Content builds an incremental text event.
func Content(text string) Event {
	return Event{Type: TypeContent, Content: text}
}

// Error builds a terminal failure event.
func Error(err error) Event {
	return Event{Type: TypeError, Error: err.Error()}
}

// flusher is the subset of http.Flusher the writers care about. Declared
// locally so the package does not depend on net/http.
type flusher interface {
	Flush()
}

// Writer delivers events to a consumer in some wire framing.
type Writer interface {
	Write(e Event) error
}

// NDJSONWriter frames events as newline-delimited JSON, one object per line.
type NDJSONWriter struct {
	w io.Writer
}

var _ Writer = (*NDJSONWriter)(nil)

// NewNDJSONWriter wraps w in the NDJSON framing.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{w: w}
}

// Write emits one event as a single JSON line and flushes when possible.
func (n *NDJSONWriter) Write(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}
	if _, err := n.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write stream event: %w", err)
	}
	if f, ok := n.w.(flusher); ok {
		f.Flush()
	}
	return nil
}

// SSEWriter frames events as server-sent events. The NDJSON event types are
// translated to their SSE spellings, and a terminal done frame is emitted by
// Done.
type SSEWriter struct {
	w io.Writer
}

var _ Writer = (*SSEWriter)(nil)

// NewSSEWriter wraps w in the SSE framing.
func NewSSEWriter(w io.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

// Write emits one event as a data frame and flushes when possible.
func (s *SSEWriter) Write(e Event) error {
	if e.Type == TypeMeta {
		e.Type = TypeMetadata
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal sse event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	if f, ok := s.w.(flusher); ok {
		f.Flush()
	}
	return nil
}

// Done emits the terminal frame closing a successful SSE stream.
func (s *SSEWriter) Done() error {
	return s.Write(Event{Type: TypeDone})
}
