package flow

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/agent"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/model"
)

// Builder defaults.
const (
	DefaultMaxHistory       = 20
	DefaultMaxMemories      = 10
	DefaultMinImportance    = 3
	DefaultMaxDocumentChars = 5000
)

var mentionRe = regexp.MustCompile(`@[\w\-]+\s*`)

// CleanMentions strips cosmetic @name tokens from raw user text. Mentions
// drive agent selection in clients and must not reach the model.
func CleanMentions(text string) string {
	return strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
}

// Builder produces the ordered message list for one model invocation. The
// zero value is not usable; construct via NewBuilder.
type Builder struct {
	maxHistory       int
	maxMemories      int
	minImportance    int
	maxDocumentChars int
}

// NewBuilder creates a builder with the standard windows and caps.
func NewBuilder() *Builder {
	return &Builder{
		maxHistory:       DefaultMaxHistory,
		maxMemories:      DefaultMaxMemories,
		minImportance:    DefaultMinImportance,
		maxDocumentChars: DefaultMaxDocumentChars,
	}
}

// BuildTurn assembles the full sequence for a single chat turn. The session
// is expected to already contain the in-progress user message as its final
// entry; it contributes to the history window size but is supplied to the
// model through userText and files instead.
func (b *Builder) BuildTurn(a agent.Agent, sess *core.Session, memories []core.Memory, files []core.FileArtifact, userText string) []model.ChatMessage {
	msgs := []model.ChatMessage{model.SystemMessage(a.Instruction + b.MemoryDigest(memories))}

	if sess != nil {
		recent := sess.RecentMessages(b.maxHistory)
		if len(recent) > 0 {
			recent = recent[:len(recent)-1]
		}
		for _, m := range recent {
			switch m.Role {
			case core.RoleUser:
				msgs = append(msgs, model.UserMessage(m.Text()))
			case core.RoleAgent:
				msgs = append(msgs, model.AssistantMessage(m.Text()))
			}
			// Summary and any future roles stay out of model context.
		}
	}

	return append(msgs, b.UserTurn(CleanMentions(userText), files))
}

// UserTurn renders the current user input plus file artifacts as a single
// chat message: multimodal when any image artifact is present, plain text
// otherwise.
func (b *Builder) UserTurn(text string, files []core.FileArtifact) model.ChatMessage {
	images := b.ImageParts(files)
	if len(images) == 0 {
		return model.UserMessage(text + b.DocumentBlock(files))
	}

	var sb strings.Builder
	sb.WriteString(text)
	for _, f := range files {
		if !f.IsImage() && f.Text != "" {
			sb.WriteString(b.documentEntry(f))
		}
	}

	parts := append([]core.Part{core.TextPart{Text: sb.String()}}, images...)
	return model.UserMultimodalMessage(parts...)
}

// MemoryDigest selects the memories worth injecting (importance at or above
// the threshold), ranks them by importance descending, caps the list, and
// formats a numbered digest block. An empty selection yields an empty
// string.
func (b *Builder) MemoryDigest(memories []core.Memory) string {
	var selected []core.Memory
	for _, m := range memories {
		if core.ClampImportance(m.Importance) >= b.minImportance {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return ""
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return core.ClampImportance(selected[i].Importance) > core.ClampImportance(selected[j].Importance)
	})
	if len(selected) > b.maxMemories {
		selected = selected[:b.maxMemories]
	}

	var sb strings.Builder
	sb.WriteString("\n\nLong-term memory:\nThe following are the user's saved notes; consult them where relevant:\n")
	for i, m := range selected {
		category := m.Category
		if category == "" {
			category = "general"
		}
		fmt.Fprintf(&sb, "%d. [%s] %s: %s\n", i+1, category, m.Title, m.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// DocumentBlock formats the non-image artifacts as an attachment block for a
// plain-text turn. Image artifacts are referenced by name only, since their
// payload travels as multimodal parts or not at all.
func (b *Builder) DocumentBlock(files []core.FileArtifact) string {
	if len(files) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range files {
		switch {
		case f.IsImage():
			fmt.Fprintf(&sb, "\n\nImage: %s\n(analyze the image with respect to the question)", f.Filename)
		case f.Text != "":
			sb.WriteString(b.documentEntry(f))
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "\n\nAttachments:" + sb.String()
}

// ImageParts extracts one ImagePart per image artifact, in input order.
func (b *Builder) ImageParts(files []core.FileArtifact) []core.Part {
	var parts []core.Part
	for _, f := range files {
		if !f.IsImage() {
			continue
		}
		mediaType := f.FileType
		if mediaType == "" || mediaType == "jpg" {
			// Normalize to the registered subtype.
			mediaType = "jpeg"
		}
		parts = append(parts, core.ImagePart{MediaType: mediaType, Base64: f.ImageBase64})
	}
	return parts
}

func (b *Builder) documentEntry(f core.FileArtifact) string {
	return fmt.Sprintf("\n\nDocument: %s\n```\n%s\n```", f.Filename, b.truncate(f.Text))
}

func (b *Builder) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= b.maxDocumentChars {
		return text
	}
	return string(runes[:b.maxDocumentChars]) +
		fmt.Sprintf("\n\n[document truncated to the first %d characters]", b.maxDocumentChars)
}
