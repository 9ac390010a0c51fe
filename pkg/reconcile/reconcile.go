// Package reconcile merges a conversation's checkpointed messages, its CRM
// history, and the current inbound webhook message into a single
// deduplicated, ordered sequence for the intelligence and specialist stages
// to work from.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
)

// historyLimit is how many of the most recent CRM messages are pulled in
// when a thread has no checkpointed history yet.
const historyLimit = 50

// CRMClient is the subset of crmclient.Client the reconciler needs. Narrowed
// to an interface so tests can supply a fake without standing up an HTTP
// server.
type CRMClient interface {
	GetContact(ctx context.Context, contactID string) (crmclient.Contact, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]crmclient.CRMMessage, error)
}

// systemPhrases are CRM-generated activity-log entries that surface in
// conversation history alongside real messages. They are never part of the
// actual back-and-forth and must be filtered out before extraction or
// specialist prompting sees them.
var systemPhrases = []string{
	"opportunity created",
	"appointment scheduled",
	"tag added",
	"contact created",
	"task created",
	"note added",
}

// Result is the output of a reconciliation pass: the merged message list a
// turn should operate on, plus the contact profile fetched alongside it so
// callers don't issue a second round trip.
type Result struct {
	Messages []conversation.Message
	Contact  crmclient.Contact
}

// Reconcile merges state's checkpointed messages with CRM history (fetched
// only when the checkpoint is empty and a conversation ID is known) and the
// inbound webhook message, then deduplicates and orders the result. The CRM
// history fetch and the contact-profile fetch run concurrently, since
// neither depends on the other.
func Reconcile(ctx context.Context, crm CRMClient, state *conversation.State, contactID, conversationID string, inbound conversation.Message) (Result, error) {
	var history []conversation.Message
	var contact crmclient.Contact

	g, gctx := errgroup.WithContext(ctx)

	needsHistory := len(state.Messages) == 0 && conversationID != ""
	if needsHistory {
		g.Go(func() error {
			crmMessages, err := crm.ListMessages(gctx, conversationID, historyLimit)
			if err != nil {
				return fmt.Errorf("reconcile: list messages: %w", err)
			}
			history = mapCRMHistory(crmMessages)
			return nil
		})
	}

	if contactID != "" {
		g.Go(func() error {
			c, err := crm.GetContact(gctx, contactID)
			if err != nil {
				return fmt.Errorf("reconcile: get contact: %w", err)
			}
			contact = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	merged := make([]conversation.Message, 0, len(state.Messages)+len(history)+1)
	merged = append(merged, state.Messages...)
	merged = append(merged, history...)
	merged = append(merged, inbound)

	merged = dedupe(merged)
	order(merged)

	return Result{Messages: merged, Contact: contact}, nil
}

// mapCRMHistory converts CRM-side messages into the conversation package's
// Message shape, dropping any that are system activity-log entries rather
// than real customer/agent dialogue.
func mapCRMHistory(crmMessages []crmclient.CRMMessage) []conversation.Message {
	out := make([]conversation.Message, 0, len(crmMessages))
	for _, m := range crmMessages {
		if isSystemNote(m.Body) {
			continue
		}
		role := conversation.RoleAgent
		if m.Direction == crmclient.DirectionInbound {
			role = conversation.RoleCustomer
		}
		out = append(out, conversation.Message{
			Role:         role,
			Content:      m.Body,
			CRMMessageID: m.ID,
			Timestamp:    m.Timestamp,
			Origin:       conversation.OriginCRMHistory,
		})
	}
	return out
}

func isSystemNote(body string) bool {
	normalized := strings.ToLower(strings.TrimSpace(body))
	for _, phrase := range systemPhrases {
		if strings.HasPrefix(normalized, phrase) {
			return true
		}
	}
	return false
}

// dedupeKey is (role, normalized_content, crm_message_id). Two messages
// collide only when all three match — a CRM-echoed copy of a message we
// already hold from the checkpoint, or a message fetched twice.
type dedupeKey struct {
	role         conversation.Role
	content      string
	crmMessageID string
}

func dedupe(messages []conversation.Message) []conversation.Message {
	seen := make(map[dedupeKey]bool, len(messages))
	out := make([]conversation.Message, 0, len(messages))
	for _, m := range messages {
		key := dedupeKey{
			role:         m.Role,
			content:      normalizeContent(m.Content),
			crmMessageID: m.CRMMessageID,
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func normalizeContent(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// order stable-sorts messages by timestamp when every message carries one;
// otherwise it leaves them in append (first-occurrence) order, since a
// partial timestamp set can't be compared meaningfully.
func order(messages []conversation.Message) {
	for _, m := range messages {
		if !m.HasTimestamp() {
			return
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}
