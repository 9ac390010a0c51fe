package intelligence

import (
	"log/slog"
	"strings"
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// Events the intelligence stage can report back to the graph runtime for
// observability. EventNone means the stage ran normally and the lead score
// changed; EventScoreUnchanged tells the caller the lead score did not
// change this turn (newly extracted fields may still have been merged).
const (
	EventNone           = ""
	EventScoreUnchanged = "score_unchanged"
)

// Stage runs field extraction and scoring against the current inbound
// message and folds the result into state.
type Stage struct {
	extractor *Extractor
	scorer    *Scorer
	logger    *slog.Logger
}

// NewStage returns a ready-to-use Stage.
func NewStage() *Stage {
	return &Stage{
		extractor: NewExtractor(),
		scorer:    NewScorer(),
		logger:    slog.Default().With("component", "intelligence"),
	}
}

// Process extracts fields from inboundMessage, merges accepted fields into
// state.ExtractedData, recomputes state.LeadScore, and appends a
// ScoreHistory entry when the score changed. prevAgentMessage is the most
// recent agent turn (for budget-confirmation detection); it may be empty.
//
// A panic during extraction or scoring is recovered here: state is left
// untouched and EventScoreUnchanged is returned, so a malformed message
// never takes down a turn.
func (s *Stage) Process(state *conversation.State, inboundMessage, prevAgentMessage string) (event string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("intelligence stage recovered from panic", "panic", r, "thread_id", state.ThreadID)
			event = EventScoreUnchanged
		}
	}()

	result := s.extractor.Extract(inboundMessage, prevAgentMessage)
	extracted := result.ToExtractedData()
	merged := state.ExtractedData
	merged.Merge(extracted)

	confirmedBudget := strings.HasSuffix(merged.Budget, "+") && result.Budget.Confidence >= 0.9
	newScore := s.scorer.Score(merged, len(state.Messages), state.LeadScore, confirmedBudget)
	state.ExtractedData = merged

	if newScore == state.LeadScore {
		return EventScoreUnchanged
	}

	previous := state.LeadScore
	state.LeadScore = newScore
	state.ScoreHistory = append(state.ScoreHistory, conversation.ScoreEvent{
		Score:         newScore,
		PreviousScore: previous,
		Timestamp:     time.Now(),
		Reason:        scoreChangeReason(state.ExtractedData),
	})
	return EventNone
}

func scoreChangeReason(data conversation.ExtractedData) string {
	var present []string
	if data.Name != "" {
		present = append(present, "name")
	}
	if data.BusinessType != "" {
		present = append(present, "business_type")
	}
	if data.Goal != "" {
		present = append(present, "goal")
	}
	if data.Budget != "" {
		present = append(present, "budget")
	}
	if data.Email != "" {
		present = append(present, "email")
	}
	if len(present) == 0 {
		return "engagement"
	}
	return strings.Join(present, "+") + " identified"
}
