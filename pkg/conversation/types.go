// Package conversation defines the durable Conversation State record and the
// transient values that live for a single turn of the graph runtime.
package conversation

import "time"

// Role identifies who authored a Message.
type Role string

// Message roles.
const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleSystem   Role = "system"
)

// Origin identifies where a Message came from during reconciliation.
type Origin string

// Message origins.
const (
	OriginWebhook    Origin = "webhook"
	OriginCRMHistory Origin = "crm_history"
	OriginCheckpoint Origin = "checkpoint"
	OriginSpecialist Origin = "specialist"
	OriginSystemNote Origin = "system_note"
)

// AgentRole identifies one of the three specialist roles.
type AgentRole string

// Specialist roles, ordered cold -> hot.
const (
	AgentDiscovery     AgentRole = "A" // cold leads
	AgentQualification AgentRole = "B" // warm leads
	AgentClosing       AgentRole = "C" // hot leads, booking
)

// Category is the lead category derived from LeadScore.
type Category string

// Lead categories.
const (
	CategoryCold Category = "cold"
	CategoryWarm Category = "warm"
	CategoryHot  Category = "hot"
)

// EscalationReason is why a specialist asked the supervisor to re-route
// within the same turn.
type EscalationReason string

// Escalation reasons a specialist may raise.
const (
	EscalationWrongAgent        EscalationReason = "wrong_agent"
	EscalationNeedsQualification EscalationReason = "needs_qualification"
	EscalationNeedsAppointment  EscalationReason = "needs_appointment"
	EscalationCustomerConfused  EscalationReason = "customer_confused"
	EscalationError             EscalationReason = "error"
)

// Message is one entry in a conversation's message log. Messages are never
// mutated in place; reconciliation replaces duplicates, it does not edit them.
type Message struct {
	Role        Role      `json:"role"`
	AgentName   AgentRole `json:"agent_name,omitempty"`
	Content     string    `json:"content"`
	CRMMessageID string   `json:"crm_message_id,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Origin      Origin    `json:"origin"`
}

// HasTimestamp reports whether the message carries a CRM-sourced timestamp.
func (m Message) HasTimestamp() bool {
	return !m.Timestamp.IsZero()
}

// ExtractedData holds the sticky fields the intelligence stage fills in.
// Zero value of each field means "not yet known"; fields are never cleared
// back to empty once set (see Merge).
type ExtractedData struct {
	Name         string `json:"name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
	Budget       string `json:"budget,omitempty"`
	Goal         string `json:"goal,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// ScoreEvent is one append-only entry in a thread's score history.
type ScoreEvent struct {
	Score         int       `json:"score"`
	PreviousScore int       `json:"previous_score"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        string    `json:"reason"`
}

// State is the durable Conversation State for one thread_id. It is the only
// unit the checkpoint store persists, turn-scoped routing fields included.
type State struct {
	ThreadID       string `json:"thread_id"`
	ContactID      string `json:"contact_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	LocationID     string `json:"location_id"`

	Messages      []Message      `json:"messages"`
	ExtractedData ExtractedData  `json:"extracted_data"`
	LeadScore     int            `json:"lead_score"`
	ScoreHistory  []ScoreEvent   `json:"score_history"`

	// Turn-scoped routing fields. Cleared by ResetTurn at the start of every
	// turn; they are saved with the rest of the row at turn end, but never
	// read back across turns as meaningful state.
	CurrentAgent    AgentRole        `json:"current_agent,omitempty"`
	NextAgent       AgentRole        `json:"next_agent,omitempty"`
	AgentTask       string           `json:"agent_task,omitempty"`
	RoutingAttempts int              `json:"routing_attempts"`
	NeedsRerouting  bool             `json:"needs_rerouting"`
	NeedsEscalation bool             `json:"needs_escalation"`
	EscalationReason EscalationReason `json:"escalation_reason,omitempty"`
	ShouldEnd       bool             `json:"should_end"`

	LastSentMessage string `json:"last_sent_message,omitempty"`
	MessageSent     bool   `json:"message_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Category derives the lead category from LeadScore at read time.
func (s *State) Category() Category {
	switch {
	case s.LeadScore >= 8:
		return CategoryHot
	case s.LeadScore >= 5:
		return CategoryWarm
	default:
		return CategoryCold
	}
}

// SuggestedAgent maps the current category to its handling role.
func (s *State) SuggestedAgent() AgentRole {
	switch s.Category() {
	case CategoryHot:
		return AgentClosing
	case CategoryWarm:
		return AgentQualification
	default:
		return AgentDiscovery
	}
}

// ResetTurn clears the transient routing fields at the start of a new turn.
// Messages, ExtractedData, LeadScore, ScoreHistory and the idempotency
// markers are left untouched — they carry across turns.
func (s *State) ResetTurn() {
	s.CurrentAgent = ""
	s.NextAgent = ""
	s.AgentTask = ""
	s.RoutingAttempts = 0
	s.NeedsRerouting = false
	s.NeedsEscalation = false
	s.EscalationReason = ""
	s.ShouldEnd = false
}

// Merge overwrites fields in d that have a non-empty value in other. Fields
// that are empty in other are left as-is in d — extraction never clears a
// previously accepted value.
func (d *ExtractedData) Merge(other ExtractedData) {
	if other.Name != "" {
		d.Name = other.Name
	}
	if other.BusinessType != "" {
		d.BusinessType = other.BusinessType
	}
	if other.Budget != "" {
		d.Budget = other.Budget
	}
	if other.Goal != "" {
		d.Goal = other.Goal
	}
	if other.Email != "" {
		d.Email = other.Email
	}
	if other.Phone != "" {
		d.Phone = other.Phone
	}
}

// ThreadID derives the stable per-conversation key: conv-<conversation_id>
// when the CRM supplied one, else contact-<contact_id>.
func ThreadID(contactID, conversationID string) string {
	if conversationID != "" {
		return "conv-" + conversationID
	}
	return "contact-" + contactID
}

// RoutingDecision is the Supervisor's output for the current turn. It is
// never persisted on State; it only flows between the supervisor and the
// specialist node within one turn.
type RoutingDecision struct {
	NextAgent        AgentRole
	TaskDescription  string
	Reason           string
	ScoreAtDecision  int
}

// ExtractionField is one field's result from the Extractor, carrying the
// confidence that decided whether it was accepted.
type ExtractionField struct {
	Value      string
	Confidence float64
}

// Accepted reports whether the field's confidence clears the acceptance bar.
func (f ExtractionField) Accepted() bool {
	return f.Confidence >= 0.7
}

// ExtractionResult is the Extractor's transient output for the current
// inbound message, one field per key in ExtractedData plus bookkeeping.
type ExtractionResult struct {
	Name         ExtractionField
	BusinessType ExtractionField
	Budget       ExtractionField
	Goal         ExtractionField
	Email        ExtractionField
	Phone        ExtractionField
}

// ToExtractedData projects only the accepted fields into an ExtractedData
// value suitable for ExtractedData.Merge.
func (r ExtractionResult) ToExtractedData() ExtractedData {
	var d ExtractedData
	if r.Name.Accepted() {
		d.Name = r.Name.Value
	}
	if r.BusinessType.Accepted() {
		d.BusinessType = r.BusinessType.Value
	}
	if r.Budget.Accepted() {
		d.Budget = r.Budget.Value
	}
	if r.Goal.Accepted() {
		d.Goal = r.Goal.Value
	}
	if r.Email.Accepted() {
		d.Email = r.Email.Value
	}
	if r.Phone.Accepted() {
		d.Phone = r.Phone.Value
	}
	return d
}
