package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FallbackRecommendation is returned when no recommendation could be parsed.
const FallbackRecommendation = "Please consult with your healthcare provider for personalized medical advice."

// minRecommendationLen is the shortest recommendation kept, in characters.
const minRecommendationLen = 10

// followupPhrases mark an answer that offers further help.
var followupPhrases = []string{
	"would you like",
	"do you want",
	"can provide",
	"would you",
}

// listMarker matches a bullet or a numbered-list prefix.
var listMarker = regexp.MustCompile(`^(?:[-•*]+|\d+[.)])\s*`)

// NeedsFollowup reports whether the answer offers further help.
func NeedsFollowup(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range followupPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ParseRecommendations extracts list items from generated text.
// Lines that are not list items, disclaimers and fragments shorter than
// ten characters are dropped. It never returns an empty slice.
func ParseRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		loc := listMarker.FindStringIndex(line)
		if loc == nil {
			continue
		}

		rec := strings.TrimSpace(line[loc[1]:])
		if utf8.RuneCountInString(rec) < minRecommendationLen {
			continue
		}
		if strings.Contains(strings.ToLower(rec), "disclaimer") {
			continue
		}
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		return []string{FallbackRecommendation}
	}
	return recs
}
