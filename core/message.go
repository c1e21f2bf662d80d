package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author kind of a message. The set is closed; anything
// else is rejected at decode time.
type Role string

const (
	// RoleUser marks a message authored by the human user.
	RoleUser Role = "user"
	// RoleAgent marks a message produced by one of the configured agents.
	RoleAgent Role = "agent"
	// RoleSummary marks the synthesized digest appended after a discussion.
	RoleSummary Role = "summary"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleSummary:
		return true
	}
	return false
}

// Attachment references an uploaded file associated with a message. The
// upload pipeline itself lives outside the core; only the reference is kept
// in the transcript.
type Attachment struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Message is one entry of a session transcript. Round is only meaningful on
// agent messages inside a discussion (zero means "not part of a round").
type Message struct {
	ID          string
	Role        Role
	Content     Content
	AgentName   string
	Round       int
	Timestamp   time.Time
	Attachments []Attachment
}

// NewID generates a new unique identifier for messages, sessions and
// memories.
func NewID() string { return uuid.NewString() }

// NewUserMessage creates a user-authored plain text message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   TextContent{Text: text},
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentMessage creates an agent-authored plain text message. A round of
// zero marks a non-discussion turn.
func NewAgentMessage(agentName, text string, round int) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAgent,
		Content:   TextContent{Text: text},
		AgentName: agentName,
		Round:     round,
		Timestamp: time.Now().UTC(),
	}
}

// Text returns the textual portion of the message content.
func (m Message) Text() string { return PlainText(m.Content) }

// messageJSON is the wire shape of a Message. Content is deferred to raw JSON
// because the session document stores text content as a plain string and
// multimodal content as an array of typed parts.
type messageJSON struct {
	ID          string          `json:"id"`
	Role        Role            `json:"role"`
	Content     json.RawMessage `json:"content"`
	AgentName   string          `json:"agent_name,omitempty"`
	Round       int             `json:"round,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Attachments []Attachment    `json:"attachments,omitempty"`
}

type partJSON struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

// MarshalJSON implements the session document format: text content as a JSON
// string, multimodal content as an ordered part array.
func (m Message) MarshalJSON() ([]byte, error) {
	raw, err := marshalContent(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{
		ID:          m.ID,
		Role:        m.Role,
		Content:     raw,
		AgentName:   m.AgentName,
		Round:       m.Round,
		Timestamp:   m.Timestamp,
		Attachments: m.Attachments,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON. Unknown roles and malformed
// part entries are rejected so invalid transcripts fail at the parse boundary
// instead of deep inside a model call.
func (m *Message) UnmarshalJSON(data []byte) error {
	var mj messageJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	if !mj.Role.Valid() {
		return fmt.Errorf("message %s: unknown role %q", mj.ID, mj.Role)
	}
	content, err := unmarshalContent(mj.Content)
	if err != nil {
		return fmt.Errorf("message %s: %w", mj.ID, err)
	}
	*m = Message{
		ID:          mj.ID,
		Role:        mj.Role,
		Content:     content,
		AgentName:   mj.AgentName,
		Round:       mj.Round,
		Timestamp:   mj.Timestamp,
		Attachments: mj.Attachments,
	}
	return nil
}

func marshalContent(c Content) (json.RawMessage, error) {
	switch v := c.(type) {
	case nil:
		return json.Marshal("")
	case TextContent:
		return json.Marshal(v.Text)
	case MultimodalContent:
		parts := make([]partJSON, 0, len(v.Parts))
		for _, p := range v.Parts {
			switch pv := p.(type) {
			case TextPart:
				parts = append(parts, partJSON{Type: "text", Text: pv.Text})
			case ImagePart:
				pj := partJSON{Type: "image_url"}
				pj.ImageURL = &struct {
					URL string `json:"url"`
				}{URL: pv.DataURI()}
				parts = append(parts, pj)
			default:
				return nil, fmt.Errorf("unsupported content part %T", p)
			}
		}
		return json.Marshal(parts)
	default:
		return nil, fmt.Errorf("unsupported content type %T", c)
	}
}

func unmarshalContent(raw json.RawMessage) (Content, error) {
	if len(raw) == 0 {
		return TextContent{}, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return TextContent{Text: text}, nil
	}
	var parts []partJSON
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("content is neither string nor part array: %w", err)
	}
	out := MultimodalContent{Parts: make([]Part, 0, len(parts))}
	for _, pj := range parts {
		switch pj.Type {
		case "text":
			out.Parts = append(out.Parts, TextPart{Text: pj.Text})
		case "image_url":
			if pj.ImageURL == nil {
				return nil, fmt.Errorf("image_url part missing payload")
			}
			img, err := parseDataURI(pj.ImageURL.URL)
			if err != nil {
				return nil, err
			}
			out.Parts = append(out.Parts, img)
		default:
			return nil, fmt.Errorf("unknown part type %q", pj.Type)
		}
	}
	return out, nil
}

func parseDataURI(uri string) (ImagePart, error) {
	rest, ok := strings.CutPrefix(uri, "data:image/")
	if !ok {
		return ImagePart{}, fmt.Errorf("image url is not an inline image data uri")
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return ImagePart{}, fmt.Errorf("image data uri missing base64 payload")
	}
	return ImagePart{MediaType: mediaType, Base64: payload}, nil
}
