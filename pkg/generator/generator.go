// Package generator defines the opaque text-generation boundary the
// specialist nodes call through. Nodes depend only on the Generator
// interface; the concrete Anthropic-backed adapter lives in this package
// too, but callers should construct it once at process startup and pass the
// interface down, never importing anthropic types directly.
package generator

import (
	"context"
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// SoftTimeout is the per-call deadline a specialist puts on each Generate
// call; a call that exceeds it fails, and the specialist's error becomes an
// error escalation in the graph runtime.
const SoftTimeout = 30 * time.Second

// Reply is a generated turn: the text to send, nothing more. Tool use is
// out of scope for this adapter — role C's calendar lookups are performed
// directly by the specialist via pkg/crmclient, not delegated to the model.
type Reply struct {
	Content string
}

// Generator produces a reply given a system prompt and the message history
// for the current turn. Implementations must respect ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, messages []conversation.Message) (Reply, error)
}
