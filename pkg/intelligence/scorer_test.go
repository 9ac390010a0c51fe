package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

func TestScorerAdditiveBreakdown(t *testing.T) {
	s := NewScorer()

	data := conversation.ExtractedData{
		Name:         "Diego",
		BusinessType: "restaurante",
		Goal:         "necesito más clientes",
		Budget:       "$300 al mes",
		Email:        "diego@example.com",
	}
	// base 1 + name 1 + business_type 2 + goal 1 + strong budget 3 + email 1 = 9
	score := s.Score(data, 3, 0, false)
	assert.Equal(t, 9, score)
}

func TestScorerNeverRegresses(t *testing.T) {
	s := NewScorer()
	score := s.Score(conversation.ExtractedData{}, 1, 7, false)
	assert.Equal(t, 7, score)
}

func TestScorerConfirmedBudgetFloor(t *testing.T) {
	s := NewScorer()
	score := s.Score(conversation.ExtractedData{}, 1, 2, true)
	assert.Equal(t, 6, score)
}

func TestScorerEngagementBonus(t *testing.T) {
	s := NewScorer()
	withoutBonus := s.Score(conversation.ExtractedData{Name: "Diego"}, 5, 0, false)
	withBonus := s.Score(conversation.ExtractedData{Name: "Diego"}, 11, 0, false)
	assert.Equal(t, withoutBonus+1, withBonus)
}

func TestScorerClampsToTen(t *testing.T) {
	s := NewScorer()
	data := conversation.ExtractedData{
		Name: "Diego", BusinessType: "restaurante", Goal: "necesito más clientes",
		Budget: "$500 al mes", Email: "diego@example.com", Phone: "555-123-4567",
	}
	score := s.Score(data, 20, 0, false)
	assert.Equal(t, 10, score)
}
