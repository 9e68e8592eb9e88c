package view

import (
	"bytes"
	"log"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"

	"github.com/leisambientais/leischat/internal/conversation"
)

// Avatars maps a role to the glyph shown next to its messages.
type Avatars map[conversation.Role]string

// DefaultAvatars are the avatars of the standard chat variant.
var DefaultAvatars = Avatars{
	conversation.RoleUser:      "👤",
	conversation.RoleAssistant: "🤖",
}

// MessageRenderer turns a role and text into a message element. It holds no
// per-conversation state.
type MessageRenderer struct {
	avatars  Avatars
	markdown goldmark.Markdown // nil renders plain text
}

// RendererOption configures a MessageRenderer.
type RendererOption func(*MessageRenderer)

// WithAvatars overrides the per-role avatars.
func WithAvatars(a Avatars) RendererOption {
	return func(r *MessageRenderer) {
		for role, glyph := range a {
			if glyph != "" {
				r.avatars[role] = glyph
			}
		}
	}
}

// WithMarkdown renders assistant messages as GitHub flavoured Markdown.
// Raw HTML in the source is dropped.
func WithMarkdown() RendererOption {
	return func(r *MessageRenderer) {
		r.markdown = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
		)
	}
}

// NewMessageRenderer creates a renderer.
func NewMessageRenderer(opts ...RendererOption) *MessageRenderer {
	r := &MessageRenderer{avatars: Avatars{}}
	for role, glyph := range DefaultAvatars {
		r.avatars[role] = glyph
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds `div.message.<role>` holding an avatar and the text.
func (r *MessageRenderer) Render(role conversation.Role, content string) *Node {
	text := El("div", "text")
	if r.markdown != nil && role == conversation.RoleAssistant {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(content), &buf); err != nil {
			log.Printf("view: markdown: %v", err)
			text.Text = content
		} else {
			text.Raw = buf.String()
			text.AddClass("markdown")
		}
	} else {
		text.Text = content
	}

	return El("div", "message", string(role)).
		Set("data-role", string(role)).
		Append(
			El("div", "avatar").WithText(r.avatars[role]),
			text,
		)
}
