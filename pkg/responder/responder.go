// Package responder sends the turn's specialist reply out over the CRM
// channel, pacing multi-part replies so they read like a human typing.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
	"github.com/lighthouse-crm/leadrouter/pkg/events"
)

// Sender is the subset of crmclient.Client the responder needs.
type Sender interface {
	SendMessage(ctx context.Context, contactID, body string, channel crmclient.Channel) (crmclient.SendResult, error)
}

const (
	thinkingBase  = 800 * time.Millisecond
	minDelay      = 1200 * time.Millisecond
	maxDelay      = 4500 * time.Millisecond
	questionBonus = 500 * time.Millisecond
	longBonus     = 700 * time.Millisecond
	longWordCount = 20
	charsPerSec   = 35.0
)

// Responder is the final graph node: it picks the newest specialist reply,
// checks it hasn't already been sent, and delivers it.
type Responder struct {
	sender  Sender
	channel crmclient.Channel
	events  events.Recorder
	logger  *slog.Logger
	sleep   func(time.Duration)
}

// NewResponder builds a Responder sending over channel.
func NewResponder(sender Sender, channel crmclient.Channel) *Responder {
	return &Responder{
		sender:  sender,
		channel: channel,
		events:  events.NewLogger(),
		logger:  slog.Default().With("component", "responder"),
		sleep:   time.Sleep,
	}
}

// roles lists the specialist agent names the responder will deliver a
// message for, in no particular order — selection scans messages, not this
// list.
var roles = map[conversation.AgentRole]bool{
	conversation.AgentDiscovery:     true,
	conversation.AgentQualification: true,
	conversation.AgentClosing:       true,
}

// Respond selects the newest specialist message in state, sends it
// (splitting on blank lines with a paced delay between parts), and marks it
// as sent. If the selected message is already state.LastSentMessage, nothing
// is sent: MessageSent is set to false and a duplicate_suppressed event is
// recorded — the idempotency guard against a duplicated turn.
func (r *Responder) Respond(ctx context.Context, state *conversation.State) error {
	msg, ok := selectReply(state)
	if !ok {
		return nil
	}

	if msg.Content == state.LastSentMessage {
		state.MessageSent = false
		r.events.Record(events.KindDuplicateSuppressed, state.ThreadID)
		r.logger.Info("responder skipped duplicate send", "thread_id", state.ThreadID)
		return nil
	}

	parts := splitParts(msg.Content)
	thinking := pace(msg.Content)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	r.sleep(thinking)

	for i, part := range parts {
		if _, err := r.sender.SendMessage(ctx, state.ContactID, part, r.channel); err != nil {
			r.logger.Warn("responder send failed", "thread_id", state.ThreadID, "error", err)
			return fmt.Errorf("responder: send: %w", err)
		}
		if i < len(parts)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r.sleep(time.Duration(float64(thinking) * 0.6))
		}
	}

	state.LastSentMessage = msg.Content
	state.MessageSent = true
	return nil
}

// selectReply scans state.Messages newest-to-oldest for the first message
// authored by a specialist role.
func selectReply(state *conversation.State) (conversation.Message, bool) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		m := state.Messages[i]
		if m.Role == conversation.RoleAgent && roles[m.AgentName] {
			return m, true
		}
	}
	return conversation.Message{}, false
}

// splitParts divides a reply on blank lines, as a specialist emitting a
// multi-part answer does, so each paragraph is sent and paced separately.
func splitParts(content string) []string {
	raw := strings.Split(content, "\n\n")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{content}
	}
	return parts
}

// pace computes the thinking delay before sending text, simulating a human
// composing the reply: a base, plus reading-speed-scaled length, plus
// bonuses for questions and long replies, clamped to [minDelay, maxDelay].
func pace(text string) time.Duration {
	d := thinkingBase + time.Duration(float64(len(text))/charsPerSec*float64(time.Second))
	if strings.Contains(text, "?") {
		d += questionBonus
	}
	if wordCount(text) > longWordCount {
		d += longBonus
	}
	return time.Duration(math.Max(float64(minDelay), math.Min(float64(maxDelay), float64(d))))
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
