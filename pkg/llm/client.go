// Package llm defines the chat client the classifier talks to.
package llm

import (
	"context"
	"errors"
)

// ErrTransport marks failures reaching the model backend or a non-2xx reply.
var ErrTransport = errors.New("llm transport error")

// Chatter sends a non-streaming chat request and returns the assistant's
// message content.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
