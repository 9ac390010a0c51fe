// Package graph wires the reconciler, intelligence stage, supervisor,
// specialist nodes, and responder into the fixed per-turn execution order
// and owns the checkpoint load/save and per-thread serialization around it.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/checkpoint"
	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/events"
	"github.com/lighthouse-crm/leadrouter/pkg/intelligence"
	"github.com/lighthouse-crm/leadrouter/pkg/reconcile"
	"github.com/lighthouse-crm/leadrouter/pkg/specialist"
	"github.com/lighthouse-crm/leadrouter/pkg/supervisor"
)

// maxSteps bounds how many node entries (reconciler, intelligence,
// supervisor, specialist, responder all count) a single turn may take. A
// thread bouncing between specialists forever is a bug, not a valid turn;
// exceeding this forces the turn to the responder with ShouldEnd set.
const maxSteps = 12

// Responder is the final node: deliver the turn's reply, if any.
type Responder interface {
	Respond(ctx context.Context, state *conversation.State) error
}

// Inbound describes one webhook-delivered customer message.
type Inbound struct {
	ContactID      string
	ConversationID string
	LocationID     string
	Message        conversation.Message
}

// Runtime executes one turn of the lead-routing graph per call to Handle,
// serialized per thread_id but parallel across distinct threads.
type Runtime struct {
	store        checkpoint.Store
	crm          reconcile.CRMClient
	intelligence *intelligence.Stage
	specialists  map[conversation.AgentRole]specialist.Node
	responder    Responder
	logger       *slog.Logger
	events       events.Recorder

	threadLocks sync.Map // thread_id -> *sync.Mutex
}

// New builds a Runtime. specialists must have an entry for A, B, and C.
func New(store checkpoint.Store, crm reconcile.CRMClient, stage *intelligence.Stage, specialists map[conversation.AgentRole]specialist.Node, responder Responder) *Runtime {
	return &Runtime{
		store:        store,
		crm:          crm,
		intelligence: stage,
		specialists:  specialists,
		responder:    responder,
		logger:       slog.Default().With("component", "graph"),
		events:       events.NewLogger(),
	}
}

// Handle runs one full turn for in, from checkpoint load through responder
// send and checkpoint save. A canceled context aborts in-flight work and
// discards the turn: no checkpoint write happens.
func (r *Runtime) Handle(ctx context.Context, in Inbound) (*conversation.State, error) {
	threadID := conversation.ThreadID(in.ContactID, in.ConversationID)

	mu := r.lockFor(threadID)
	mu.Lock()
	defer mu.Unlock()

	state, err := r.loadOrCreate(ctx, threadID, in)
	if err != nil {
		return nil, err
	}
	state.ResetTurn()

	if err := r.reconcileStep(ctx, state, in); err != nil {
		return nil, err
	}

	prevAgent := lastAgentMessage(state)
	if event := r.intelligence.Process(state, in.Message.Content, prevAgent); event == intelligence.EventScoreUnchanged {
		r.events.Record(events.KindScoreUnchanged, state.ThreadID)
	}

	if err := r.route(ctx, state); err != nil {
		return nil, err
	}

	if err := r.respondStep(ctx, state); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := r.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("graph: save checkpoint: %w", err)
	}
	return state, nil
}

// lockFor returns the mutex guarding threadID, creating it lazily. Distinct
// threads never contend; the same thread always serializes.
func (r *Runtime) lockFor(threadID string) *sync.Mutex {
	muI, _ := r.threadLocks.LoadOrStore(threadID, &sync.Mutex{})
	return muI.(*sync.Mutex)
}

func (r *Runtime) loadOrCreate(ctx context.Context, threadID string, in Inbound) (*conversation.State, error) {
	state, found, err := r.store.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("graph: load checkpoint: %w", err)
	}
	if found {
		return state, nil
	}
	now := time.Now()
	return &conversation.State{
		ThreadID:       threadID,
		ContactID:      in.ContactID,
		ConversationID: in.ConversationID,
		LocationID:     in.LocationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *Runtime) reconcileStep(ctx context.Context, state *conversation.State, in Inbound) error {
	result, err := reconcile.Reconcile(ctx, r.crm, state, in.ContactID, in.ConversationID, in.Message)
	if err != nil {
		return fmt.Errorf("graph: reconcile: %w", err)
	}
	state.Messages = result.Messages
	if result.Contact.Email != "" {
		state.ExtractedData.Email = firstNonEmpty(state.ExtractedData.Email, result.Contact.Email)
	}
	if result.Contact.Phone != "" {
		state.ExtractedData.Phone = firstNonEmpty(state.ExtractedData.Phone, result.Contact.Phone)
	}
	return nil
}

// route drives the supervisor/specialist back-edge loop: route, run the
// chosen specialist, and if it asked for rerouting (and the per-turn revisit
// budget allows it) route again. The loop always terminates via ShouldEnd,
// a specialist that didn't ask to reroute, or the step bound.
func (r *Runtime) route(ctx context.Context, state *conversation.State) error {
	// The reconciler and intelligence entries come before this loop and the
	// responder entry after it; each iteration enters the supervisor and
	// one specialist.
	steps := 2
	for {
		steps += 2
		if steps+1 > maxSteps {
			r.logger.Warn("graph exceeded step bound", "thread_id", state.ThreadID)
			r.events.Record(events.KindRoutingLoop, state.ThreadID)
			state.ShouldEnd = true
			return nil
		}

		decision := supervisor.Route(state)

		// The escalation that produced this decision (if any) has now been
		// consumed; clear it so a specialist that doesn't re-escalate
		// doesn't leave a stale reason on state.
		state.NeedsRerouting = false
		state.NeedsEscalation = false
		state.EscalationReason = ""

		state.CurrentAgent = decision.NextAgent
		state.NextAgent = ""
		state.AgentTask = decision.TaskDescription

		node, ok := r.specialists[decision.NextAgent]
		if !ok {
			return fmt.Errorf("graph: no specialist registered for role %q", decision.NextAgent)
		}

		if err := r.runSpecialist(ctx, node, state, decision.TaskDescription); err != nil {
			return err
		}

		if state.ShouldEnd {
			return nil
		}
		if !state.NeedsRerouting {
			return nil
		}
		if !supervisor.Revisit(state) {
			return nil
		}
	}
}

// runSpecialist invokes node.Process with panic recovery: an unexpected
// panic becomes the node's own error escalation rather than crashing the
// turn, matching the intelligence stage's recovery contract. A returned
// (non-panic) error — a generator timeout, a CRM call failing — is handled
// the same way: the turn never aborts out of Handle on a specialist error,
// it escalates and still reaches the responder and checkpoint save.
func (r *Runtime) runSpecialist(ctx context.Context, node specialist.Node, state *conversation.State, task string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("specialist node recovered from panic", "role", node.Role(), "panic", rec, "thread_id", state.ThreadID)
			r.escalateOnFailure(state)
			err = nil
		}
	}()
	if procErr := node.Process(ctx, state, task); procErr != nil {
		r.logger.Warn("specialist node returned an error", "role", node.Role(), "error", procErr, "thread_id", state.ThreadID)
		r.escalateOnFailure(state)
		return nil
	}
	return nil
}

// escalateOnFailure applies the fixed state patch a specialist failure
// (panic or returned error) produces: no new outbound message, routed back
// for a supervisor decision with EscalationError set.
func (r *Runtime) escalateOnFailure(state *conversation.State) {
	state.NeedsRerouting = true
	state.NeedsEscalation = true
	state.EscalationReason = conversation.EscalationError
}

func (r *Runtime) respondStep(ctx context.Context, state *conversation.State) error {
	if err := r.responder.Respond(ctx, state); err != nil {
		r.logger.Warn("responder failed, turn continues without a fresh send", "thread_id", state.ThreadID, "error", err)
	}
	return nil
}

func lastAgentMessage(state *conversation.State) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == conversation.RoleAgent {
			return state.Messages[i].Content
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
