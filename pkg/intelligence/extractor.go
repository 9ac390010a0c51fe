package intelligence

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// acceptThreshold is the minimum confidence a field must reach to be
// accepted into an ExtractionResult.
const acceptThreshold = 0.7

// fuzzyThreshold is the minimum normalized similarity a candidate word must
// reach against the business vocabulary to be accepted when no exact or
// context-pattern match was found.
const fuzzyThreshold = 0.80

var stopWords = map[string]bool{
	"si": true, "sí": true, "no": true, "ok": true, "okay": true,
}

var bareAffirmations = map[string]bool{
	"si": true, "sí": true, "claro": true, "ok": true, "okay": true,
	"dale": true, "perfecto": true, "vale": true, "bueno": true,
}

// Extractor pulls structured lead fields out of a single inbound message.
// It never looks beyond the current message and the immediately preceding
// agent message (used only for budget-confirmation detection) — the full
// conversation history belongs to the reconciler and specialists, not here.
type Extractor struct{}

// NewExtractor returns a ready-to-use Extractor. It holds no state across
// calls.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs every pattern class against message and returns each field
// with the confidence it scored; ExtractionField.Accepted reports which
// ones cleared the acceptance threshold. prevAgentMessage is the most
// recent agent turn, used only to detect a bare "sí"/"dale" confirming a
// budget the agent had just offered.
func (e *Extractor) Extract(message, prevAgentMessage string) conversation.ExtractionResult {
	tokens := tokenize(message)

	var result conversation.ExtractionResult
	result.Name = e.extractName(message, tokens)
	result.BusinessType = e.extractBusinessType(message, tokens)
	result.Budget = e.extractBudget(message, tokens, prevAgentMessage)
	result.Goal = e.extractGoal(message, tokens)
	result.Email = e.extractEmail(message, tokens)
	result.Phone = e.extractPhone(message, tokens)
	return result
}

// score builds an ExtractionField from a matched value, applying the
// extractor's confidence adjustments:
// +0.1 for a whole-token match, +0.15 for strong surrounding context,
// -0.2 for a very short value, -0.3 if the value itself is a stop word.
func score(value string, wordBoundary, strongContext bool) conversation.ExtractionField {
	confidence := 0.7
	if wordBoundary {
		confidence += 0.1
	}
	if strongContext {
		confidence += 0.15
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) <= 2 {
		confidence -= 0.2
	}
	if stopWords[normalized] {
		confidence -= 0.3
	}
	if confidence > 1 {
		confidence = 1
	}
	return conversation.ExtractionField{Value: value, Confidence: confidence}
}

var (
	nameIntroPattern       = regexp.MustCompile(`(?i)(?:soy|me llamo|mi nombre es)\s+([A-ZÀ-ÖØ-öø-ÿ][\p{L}]+)`)
	nameEmailPrefixPattern = regexp.MustCompile(`(?i)\b([\p{L}]+)\s*@`)
)

func (e *Extractor) extractName(message string, tokens []token) conversation.ExtractionField {
	if loc := nameIntroPattern.FindStringSubmatchIndex(message); loc != nil {
		value := message[loc[2]:loc[3]]
		aligned := alignsToTokens(tokens, loc[2], loc[3])
		return score(value, aligned, true)
	}

	// A customer who shares only an email address ("juan.perez@gmail.com")
	// still gives up a name candidate: the run of letters directly before
	// the "@" ("perez" here). Weaker
	// signal than an explicit self-introduction — no surrounding context —
	// so it scores lower and can't outrank an explicit name already found.
	if loc := nameEmailPrefixPattern.FindStringSubmatchIndex(message); loc != nil {
		value := message[loc[2]:loc[3]]
		aligned := alignsToTokens(tokens, loc[2], loc[3])
		return score(value, aligned, false)
	}

	return conversation.ExtractionField{}
}

var (
	possessiveBusinessPattern = regexp.MustCompile(`(?i)(?:tengo un[a]?|mi)\s+([\p{L}]+)`)
	ownerBusinessPattern      = regexp.MustCompile(`(?i)(?:trabajo en un[a]?|soy dueñ[oa] de un[a]?)\s+([\p{L}]+)`)
)

func (e *Extractor) extractBusinessType(message string, tokens []token) conversation.ExtractionField {
	if loc := ownerBusinessPattern.FindStringSubmatchIndex(message); loc != nil {
		word := normalizeWord(message[loc[2]:loc[3]])
		if businessType, ok := e.resolveBusinessWord(word); ok {
			return score(businessType, alignsToTokens(tokens, loc[2], loc[3]), true)
		}
	}
	if loc := possessiveBusinessPattern.FindStringSubmatchIndex(message); loc != nil {
		word := normalizeWord(message[loc[2]:loc[3]])
		if businessType, ok := e.resolveBusinessWord(word); ok {
			return score(businessType, alignsToTokens(tokens, loc[2], loc[3]), true)
		}
	}

	// Direct vocabulary mention anywhere in the message, without
	// possessive/ownership context.
	for _, t := range tokens {
		word := normalizeWord(t.text)
		if genericBusinessTerms[word] {
			continue
		}
		if businessType, ok := businessWordIndex[word]; ok {
			return score(businessType, true, false)
		}
	}

	return conversation.ExtractionField{}
}

// resolveBusinessWord looks a candidate word up in the exact vocabulary
// index first, then falls back to fuzzy matching against every surface
// form, accepting the closest one if it clears fuzzyThreshold. Generic
// business terms are rejected even when named explicitly.
func (e *Extractor) resolveBusinessWord(word string) (string, bool) {
	if genericBusinessTerms[word] {
		return "", false
	}
	if businessType, ok := businessWordIndex[word]; ok {
		return businessType, true
	}
	if len(word) < 4 || skipWords[word] {
		return "", false
	}

	params := levenshtein.NewParams()
	bestWord, bestSimilarity := "", 0.0
	for _, candidate := range businessWordList {
		similarity := levenshtein.Match(word, candidate, params)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestWord = candidate
		}
	}
	if bestSimilarity >= fuzzyThreshold {
		return businessWordIndex[bestWord], true
	}
	return "", false
}

var (
	budgetRangePattern    = regexp.MustCompile(`(?i)entre\s+\$?(\d{2,6})\s+y\s+\$?(\d{2,6})`)
	budgetMinPattern      = regexp.MustCompile(`(?i)\$?(\d{2,6})\s*o\s*más`)
	budgetMaxPattern      = regexp.MustCompile(`(?i)hasta\s+\$?(\d{2,6})`)
	budgetApproxPattern   = regexp.MustCompile(`(?i)(?:unos|como|más o menos)\s+\$?(\d{2,6})`)
	budgetExplicitPattern = regexp.MustCompile(`\$\s?(\d{2,6})|(\d{2,6})\s*(?:al mes|mensuales|mensual)`)
	budgetOfferPattern    = regexp.MustCompile(`\$\s?(\d{2,6})|(\d{2,6})\s*(?:al mes|mensuales|mensual)`)
)

// extractBudget matches explicit, approximate, ranged, minimum, and maximum
// budget phrasing, and rejects an explicit-amount match that is really a
// clock time or date fragment (isLikelyTimeOrDate).
func (e *Extractor) extractBudget(message string, tokens []token, prevAgentMessage string) conversation.ExtractionField {
	if loc := budgetRangePattern.FindStringSubmatchIndex(message); loc != nil {
		value := message[loc[0]:loc[1]]
		return score(value, true, true)
	}
	if loc := budgetMinPattern.FindStringSubmatchIndex(message); loc != nil {
		return score(message[loc[0]:loc[1]], true, true)
	}
	if loc := budgetMaxPattern.FindStringSubmatchIndex(message); loc != nil {
		return score(message[loc[0]:loc[1]], true, true)
	}
	if loc := budgetApproxPattern.FindStringSubmatchIndex(message); loc != nil {
		return score(message[loc[0]:loc[1]], true, true)
	}
	if loc := budgetExplicitPattern.FindStringSubmatchIndex(message); loc != nil {
		if isLikelyTimeOrDate(message, loc[0], loc[1]) {
			return conversation.ExtractionField{}
		}
		return score(message[loc[0]:loc[1]], true, true)
	}

	// Confirmation of a previously offered budget: a bare affirmation
	// replying to an agent message that itself offered a figure.
	normalized := normalizeWord(message)
	normalized = strings.Trim(normalized, ".! ¡¿?")
	if bareAffirmations[normalized] && prevAgentMessage != "" {
		if loc := budgetOfferPattern.FindStringSubmatchIndex(prevAgentMessage); loc != nil {
			amount := firstNonEmpty(prevAgentMessage, loc)
			return conversation.ExtractionField{Value: amount + "+", Confidence: 0.9}
		}
	}

	return conversation.ExtractionField{}
}

// isLikelyTimeOrDate reports whether the digits matched at [start,end) are
// immediately adjacent to a colon or slash, which marks a clock time or
// date rather than a monetary figure.
func isLikelyTimeOrDate(message string, start, end int) bool {
	if start > 0 && (message[start-1] == ':' || message[start-1] == '/') {
		return true
	}
	if end < len(message) && (message[end] == ':' || message[end] == '/') {
		return true
	}
	return false
}

// firstNonEmpty returns the first populated submatch group in loc (since
// budgetOfferPattern's two alternatives share index 0 but bind to different
// group slots), falling back to the whole match.
func firstNonEmpty(s string, loc []int) string {
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return s[loc[i]:loc[i+1]]
		}
	}
	return strings.TrimSpace(s[loc[0]:loc[1]])
}

var (
	goalNeedPattern    = regexp.MustCompile(`(?i)(necesito|quiero)\s+(.{6,})`)
	goalProblemPattern = regexp.MustCompile(`(?i)(estoy perdiendo|no puedo)\s+(.{6,})`)
	goalPurposePattern = regexp.MustCompile(`(?i)\bpara\s+(.{6,})`)
)

const minGoalLength = 10

func (e *Extractor) extractGoal(message string, tokens []token) conversation.ExtractionField {
	for _, pattern := range []*regexp.Regexp{goalNeedPattern, goalProblemPattern, goalPurposePattern} {
		if loc := pattern.FindStringSubmatchIndex(message); loc != nil {
			n := pattern.NumSubexp()
			value := strings.TrimSpace(message[loc[2*n]:loc[2*n+1]])
			if len(value) < minGoalLength {
				continue
			}
			return score(value, true, false)
		}
	}
	return conversation.ExtractionField{}
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

func (e *Extractor) extractEmail(message string, tokens []token) conversation.ExtractionField {
	if loc := emailPattern.FindStringIndex(message); loc != nil {
		return score(message[loc[0]:loc[1]], true, true)
	}
	return conversation.ExtractionField{}
}

var phonePattern = regexp.MustCompile(`\+?1?[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)

func (e *Extractor) extractPhone(message string, tokens []token) conversation.ExtractionField {
	if loc := phonePattern.FindStringIndex(message); loc != nil {
		value := message[loc[0]:loc[1]]
		digits := onlyDigits(value)
		if len(digits) < 10 {
			return conversation.ExtractionField{}
		}
		return score(value, true, false)
	}
	return conversation.ExtractionField{}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IndicatesStrongBudget reports whether the first run of three to six digits
// in value is at least 300, whatever the budget phrasing (explicit,
// approximate, the lower end of a range, a maximum, or a confirmed "300+")
// — the trigger for the scorer's higher budget weight, and
// for the supervisor's "score ≥ 8 and budget ≥ $300" routing condition.
func IndicatesStrongBudget(value string) bool {
	digits := regexp.MustCompile(`\d{3,6}`).FindString(value)
	if digits == "" {
		return false
	}
	n, err := strconv.Atoi(digits)
	return err == nil && n >= 300
}
