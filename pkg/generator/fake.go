package generator

import (
	"context"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// Fake is a scripted Generator for tests: it returns replies one at a time
// from a fixed list, regardless of input, and records every call it saw.
type Fake struct {
	Replies []Reply
	Err     error

	calls int
	Seen  []FakeCall
}

// FakeCall captures one invocation's arguments for assertions.
type FakeCall struct {
	SystemPrompt string
	Messages     []conversation.Message
}

// Generate returns the next scripted reply, or the last one repeated if the
// script has run out, or Err if set.
func (f *Fake) Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (Reply, error) {
	f.Seen = append(f.Seen, FakeCall{SystemPrompt: systemPrompt, Messages: messages})
	if f.Err != nil {
		return Reply{}, f.Err
	}
	if len(f.Replies) == 0 {
		return Reply{}, nil
	}
	idx := f.calls
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	f.calls++
	return f.Replies[idx], nil
}
