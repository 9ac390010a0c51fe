package intelligence

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// token is one Unicode word-boundary segment of a message, with its byte
// offsets in the original string so callers can check whether a regexp
// match landed on whole tokens rather than splitting one.
type token struct {
	text       string
	start, end int
}

// tokenize splits s into word-boundary segments using Unicode text
// segmentation (UAX #29) rather than ASCII whitespace splitting, so accented
// Spanish words and punctuation-adjacent words ("¿tienes...?") segment the
// way a reader would see them.
func tokenize(s string) []token {
	var out []token
	seg := words.FromString(s)
	for seg.Next() {
		text := seg.Value()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !isWordlike(text) {
			continue
		}
		out = append(out, token{text: text, start: seg.Start(), end: seg.End()})
	}
	return out
}

// isWordlike reports whether a segment contains at least one letter or
// digit, filtering out segments that are pure punctuation or whitespace.
func isWordlike(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return true
		}
		if r > 127 {
			return true
		}
	}
	return false
}

// alignsToTokens reports whether the byte span [start,end) of the original
// string exactly covers one or more whole tokens, rather than starting or
// ending mid-token.
func alignsToTokens(tokens []token, start, end int) bool {
	if len(tokens) == 0 {
		return false
	}
	startOK, endOK := false, false
	for _, t := range tokens {
		if t.start == start {
			startOK = true
		}
		if t.end == end {
			endOK = true
		}
	}
	return startOK && endOK
}
