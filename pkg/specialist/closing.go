package specialist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
	"github.com/lighthouse-crm/leadrouter/pkg/generator"
)

// slotWindow is how far ahead Closing looks for bookable slots.
const slotWindow = 5 * 24 * time.Hour

// offeredSlotCount is how many concrete slots Closing offers per turn.
const offeredSlotCount = 3

// CalendarClient is the subset of crmclient.Client Closing needs to look up
// and book appointments.
type CalendarClient interface {
	ListFreeSlots(ctx context.Context, calendarID string, start, end time.Time, tz string) ([]crmclient.Slot, error)
	CreateAppointment(ctx context.Context, calendarID, locationID, contactID string, start, end time.Time, title, tz string, meetingType crmclient.MeetingType, assignedUserID string) (crmclient.AppointmentResult, error)
}

// CalendarConfig holds the fixed calendar identifiers Closing books against.
type CalendarConfig struct {
	CalendarID     string
	LocationID     string
	AssignedUserID string
	Timezone       string
	MeetingType    crmclient.MeetingType
	SlotDuration   time.Duration
}

// Closing is specialist C: handles hot leads (score 8-10), collects the
// last missing field (email) and books an appointment.
type Closing struct {
	gen      generator.Generator
	calendar CalendarClient
	cfg      CalendarConfig
	now      func() time.Time
}

// NewClosing builds specialist C.
func NewClosing(gen generator.Generator, calendar CalendarClient, cfg CalendarConfig) *Closing {
	if cfg.SlotDuration == 0 {
		cfg.SlotDuration = 30 * time.Minute
	}
	return &Closing{gen: gen, calendar: calendar, cfg: cfg, now: time.Now}
}

// Role implements Node.
func (c *Closing) Role() conversation.AgentRole { return conversation.AgentClosing }

// Process implements Node.
func (c *Closing) Process(ctx context.Context, state *conversation.State, task string) error {
	if state.LeadScore < 8 {
		escalate(state, c.Role(), conversation.EscalationWrongAgent,
			fmt.Sprintf("closing received score %d, below 8", state.LeadScore))
		return nil
	}

	if state.ExtractedData.Email == "" || strings.EqualFold(state.ExtractedData.Email, "none") {
		return generate(ctx, c.gen, c.Role(), state,
			"The lead is qualified and ready to book. Ask for their email address so you can send the confirmation. Reply in Spanish, one short sentence.")
	}

	slots, err := c.calendar.ListFreeSlots(ctx, c.cfg.CalendarID, c.now(), c.now().Add(slotWindow), c.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("specialist: list free slots: %w", err)
	}
	if len(slots) == 0 {
		return generate(ctx, c.gen, c.Role(), state,
			"No calendar slots are currently available. Apologize briefly and say someone will follow up soon with times. Reply in Spanish.")
	}

	if last, ok := lastCustomerMessage(state); ok {
		if matched, ok := c.matchOfferedSlot(last.Content, slots); ok {
			return c.book(ctx, state, matched)
		}
	}

	return generate(ctx, c.gen, c.Role(), state, buildClosingOfferPrompt(slots))
}

// matchOfferedSlot tries to parse a customer-stated time against the
// offered window and returns the slot it falls within, if any.
func (c *Closing) matchOfferedSlot(text string, slots []crmclient.Slot) (crmclient.Slot, bool) {
	candidate, ok := ParseSpanishTime(c.now(), text)
	if !ok {
		return crmclient.Slot{}, false
	}
	for _, s := range slots {
		if SlotMatches(candidate, s.Start) {
			return s, true
		}
	}
	return crmclient.Slot{}, false
}

func (c *Closing) book(ctx context.Context, state *conversation.State, slot crmclient.Slot) error {
	end := slot.Start.Add(c.cfg.SlotDuration)
	title := "Lead consultation"
	if state.ExtractedData.BusinessType != "" {
		title = "Consultation - " + state.ExtractedData.BusinessType
	}

	if _, err := c.calendar.CreateAppointment(ctx, c.cfg.CalendarID, c.cfg.LocationID, state.ContactID,
		slot.Start, end, title, c.cfg.Timezone, c.cfg.MeetingType, c.cfg.AssignedUserID); err != nil {
		return fmt.Errorf("specialist: create appointment: %w", err)
	}

	state.ShouldEnd = true
	prompt := fmt.Sprintf(
		"Confirm the appointment is booked for %s. Thank them warmly. Reply in Spanish, one or two short sentences.",
		slot.Start.Format("Monday 2 Jan 15:04"),
	)
	return generate(ctx, c.gen, c.Role(), state, prompt)
}

func buildClosingOfferPrompt(slots []crmclient.Slot) string {
	offered := slots
	if len(offered) > offeredSlotCount {
		offered = offered[:offeredSlotCount]
	}

	var times []string
	for _, s := range offered {
		times = append(times, s.Start.Format("Monday 2 Jan 15:04"))
	}

	return fmt.Sprintf(
		"The lead is qualified with an email on file. Offer exactly these %d appointment times and ask them to pick one: %s. Reply in Spanish, in one or two short sentences.",
		len(offered), strings.Join(times, "; "),
	)
}
