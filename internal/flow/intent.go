package flow

import (
	"log/slog"
	"strings"
	"unicode"
)

// Intent is the outcome of classifying a confirmation answer.
type Intent string

const (
	// IntentPositive indicates the user confirmed.
	IntentPositive Intent = "positive"
	// IntentNegative indicates the user declined or asked for a correction.
	IntentNegative Intent = "negative"
	// IntentUnclear indicates the answer matched neither or both ways.
	IntentUnclear Intent = "unclear"
)

// IntentClassifier decides whether a message confirms, declines or neither.
// Implementations are language-aware but must tolerate answers in a language
// other than the profile's.
type IntentClassifier interface {
	Classify(text, languageCode string) Intent
}

// keywordSet holds affirmative and negative markers for one locale.
type keywordSet struct {
	positive []string
	negative []string
}

// baseKeywords are language-neutral markers understood everywhere.
var baseKeywords = keywordSet{
	positive: []string{"ok", "okay", "confirm", "confirme", "parfait", "exact", "correct"},
	negative: []string{"stop", "modif", "erreur"},
}

// localeKeywords holds per-locale confirmation markers.
var localeKeywords = map[string]keywordSet{
	"fr": {
		positive: []string{"oui", "ouais", "yep", "d'accord", "c'est bon", "c'est ça", "vas-y"},
		negative: []string{"non", "pas encore", "attends", "pas tout à fait", "pas vraiment"},
	},
	"en": {
		positive: []string{"yes", "yeah", "yep", "sure", "go ahead", "that's right"},
		negative: []string{"no", "nope", "not yet", "wait", "not really", "hold on"},
	},
}

// KeywordClassifier matches confirmation answers against per-locale keyword
// sets. The base, French and English sets always apply; the profile locale
// adds its own set on top when one exists.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based intent classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify reports whether the text reads as a confirmation, a refusal, or
// neither. Matching both ways counts as unclear so the caller re-asks
// instead of guessing.
func (c *KeywordClassifier) Classify(text, languageCode string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return IntentUnclear
	}
	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	sets := []keywordSet{baseKeywords, localeKeywords["fr"], localeKeywords["en"]}
	if extra, ok := localeKeywords[languageCode]; ok && languageCode != "fr" && languageCode != "en" {
		sets = append(sets, extra)
	}

	var positive, negative bool
	for _, set := range sets {
		if matchesAny(normalized, tokens, set.positive) {
			positive = true
		}
		if matchesAny(normalized, tokens, set.negative) {
			negative = true
		}
	}

	switch {
	case positive && !negative:
		return IntentPositive
	case negative && !positive:
		return IntentNegative
	default:
		slog.Debug("KeywordClassifier.Classify: unclear answer", "positive", positive, "negative", negative)
		return IntentUnclear
	}
}

// matchesAny reports whether any keyword matches the text. Multi-word
// keywords match as substrings, single words as whole tokens.
func matchesAny(normalized string, tokens []string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsAny(kw, " '-") {
			if strings.Contains(normalized, kw) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}
