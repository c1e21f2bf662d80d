package core

import "fmt"

// Content is the tagged variant carried by a Message: either plain text or an
// ordered list of multimodal parts. Concrete types implement the unexported
// isContent marker enabling a closed set.
type Content interface{ isContent() }

// TextContent is a plain text message body.
type TextContent struct {
	Text string
}

func (TextContent) isContent() {}

// MultimodalContent is an ordered list of heterogeneous parts. The chat
// completion contract expects the text part first, followed by image parts.
type MultimodalContent struct {
	Parts []Part
}

func (MultimodalContent) isContent() {}

// Part represents a segment of multimodal content. Concrete part types
// implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// ImagePart is an inline image segment. Base64 holds the raw payload without
// a data-URI prefix; MediaType is the image subtype ("png", "jpeg", ...).
type ImagePart struct {
	MediaType string
	Base64    string
}

func (ImagePart) isPart() {}

// DataURI renders the part as an inline data URI suitable for the
// chat-completion image_url contract.
func (p ImagePart) DataURI() string {
	return fmt.Sprintf("data:image/%s;base64,%s", p.MediaType, p.Base64)
}

// PlainText flattens content to its textual portion. Image parts contribute
// nothing; multimodal text parts are concatenated in order.
func PlainText(c Content) string {
	switch v := c.(type) {
	case TextContent:
		return v.Text
	case MultimodalContent:
		var out string
		for _, p := range v.Parts {
			if tp, ok := p.(TextPart); ok {
				out += tp.Text
			}
		}
		return out
	default:
		return ""
	}
}
