package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/aletheia/pkg/llm"
)

// MockChat is a test llm.Chatter that records requests and returns a
// configurable reply.
type MockChat struct {
	// Response is returned by Chat.
	Response string

	// Fail causes Chat to return an llm.ErrTransport error.
	Fail bool

	// Requests accumulates the messages passed to each Chat call.
	Requests [][]llm.Message
}

// NewMockChat creates a mock chat client replying with response.
func NewMockChat(response string) *MockChat {
	return &MockChat{Response: response}
}

func (m *MockChat) Chat(_ context.Context, messages []llm.Message) (string, error) {
	m.Requests = append(m.Requests, messages)
	if m.Fail {
		return "", fmt.Errorf("%w: mock chat failure", llm.ErrTransport)
	}
	return m.Response, nil
}

// LastUserPrompt returns the text of the last user message of the most
// recent request.
func (m *MockChat) LastUserPrompt() string {
	if len(m.Requests) == 0 {
		return ""
	}
	msgs := m.Requests[len(m.Requests)-1]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i].GetText()
		}
	}
	return ""
}
