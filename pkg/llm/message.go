package llm

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. A prompt may be assembled from several text
// blocks (claim, retrieved context, web results); backends that take a
// single string see them concatenated by GetText.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one piece of a message. Only "text" blocks are produced.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewTextMessage returns a message with a single text block per part.
func NewTextMessage(role string, parts ...string) Message {
	m := Message{Role: role, Content: make([]ContentBlock, 0, len(parts))}
	for _, p := range parts {
		m.Content = append(m.Content, ContentBlock{Type: "text", Text: p})
	}
	return m
}

// GetText concatenates the text blocks in order.
func (m *Message) GetText() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
