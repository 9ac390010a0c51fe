package intelligence

import (
	"strings"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// engagementThreshold is the message count past which a conversation earns
// the engagement bonus point.
const engagementThreshold = 10

// confirmedBudgetFloor is the minimum score a confirmed-via-affirmation
// budget guarantees, even if the additive breakdown comes in lower.
const confirmedBudgetFloor = 6

// Scorer computes the 0..10 lead score from a conversation's accumulated
// extracted data.
type Scorer struct{}

// NewScorer returns a ready-to-use Scorer. It holds no state across calls.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the additive breakdown against data and messageCount, then
// clamps the result against previousScore so a score never regresses
// (state.lead_score is a high-water mark, not a live readout). confirmed
// indicates the budget field was set via the bare-affirmation confirmation
// path rather than an explicit figure, which floors the result at 6.
func (s *Scorer) Score(data conversation.ExtractedData, messageCount, previousScore int, confirmedBudget bool) int {
	total := 1

	if data.Name != "" {
		total++
	}
	if data.BusinessType != "" {
		total += 2
	}
	if data.Goal != "" {
		total++
	}
	if data.Budget != "" {
		if IndicatesStrongBudget(data.Budget) {
			total += 3
		} else {
			total++
		}
	}
	if data.Email != "" && strings.ToLower(data.Email) != "none" {
		total++
	}
	if messageCount > engagementThreshold {
		total++
	}

	score := total
	if previousScore > score {
		score = previousScore
	}
	if confirmedBudget && score < confirmedBudgetFloor {
		score = confirmedBudgetFloor
	}
	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}
