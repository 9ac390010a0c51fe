// Package specialist implements the three reply-producing nodes (A
// discovery, B qualification, C closing) the supervisor routes a turn to.
package specialist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/generator"
)

// Node is a specialist: it inspects state for this turn's task, either
// generates a reply or raises an escalation, and never touches messages or
// fields outside its own role's contract.
type Node interface {
	Role() conversation.AgentRole
	Process(ctx context.Context, state *conversation.State, task string) error
}

// lastCustomerMessage returns the newest message with Role == RoleCustomer,
// the only turn-input a specialist is allowed to pass as the generator's
// user turn.
func lastCustomerMessage(state *conversation.State) (conversation.Message, bool) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == conversation.RoleCustomer {
			return state.Messages[i], true
		}
	}
	return conversation.Message{}, false
}

// escalate sets state's rerouting flags for the supervisor's back-edge and
// logs the reason. No reply text is appended.
func escalate(state *conversation.State, role conversation.AgentRole, reason conversation.EscalationReason, why string) {
	state.NeedsRerouting = true
	state.NeedsEscalation = true
	state.EscalationReason = reason
	slog.Default().With("component", "specialist").Info(
		"specialist escalated", "role", role, "reason", reason, "detail", why, "thread_id", state.ThreadID,
	)
}

// reply appends a new specialist-authored message to state. Specialists
// must never re-append their own inputs — this is the only write path for
// turn output.
func reply(state *conversation.State, role conversation.AgentRole, content string) {
	state.Messages = append(state.Messages, conversation.Message{
		Role:      conversation.RoleAgent,
		AgentName: role,
		Content:   content,
		Origin:    conversation.OriginSpecialist,
	})
}

// generate calls gen with systemPrompt and only the last customer message,
// per the "no re-added history" contract, and appends the result as role's
// reply. The call runs under generator.SoftTimeout. A generator error
// (including that deadline expiring) is returned to the caller wrapped; the
// graph runtime's node wrapper is responsible for turning it into an
// escalation.
func generate(ctx context.Context, gen generator.Generator, role conversation.AgentRole, state *conversation.State, systemPrompt string) error {
	last, ok := lastCustomerMessage(state)
	if !ok {
		return fmt.Errorf("specialist: no customer message to reply to")
	}

	genCtx, cancel := context.WithTimeout(ctx, generator.SoftTimeout)
	defer cancel()

	result, err := gen.Generate(genCtx, systemPrompt, []conversation.Message{last})
	if err != nil {
		return fmt.Errorf("specialist: generate: %w", err)
	}

	reply(state, role, result.Content)
	return nil
}
