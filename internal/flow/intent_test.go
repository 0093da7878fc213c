package flow

import "testing"

func TestClassifyConfirmationAnswers(t *testing.T) {
	c := NewKeywordClassifier()
	cases := []struct {
		text string
		lang string
		want Intent
	}{
		{"oui", "fr", IntentPositive},
		{"Oui !", "fr", IntentPositive},
		{"c'est bon", "fr", IntentPositive},
		{"ok", "fr", IntentPositive},
		{"yes", "fr", IntentPositive},
		{"d'accord", "fr", IntentPositive},
		{"non", "fr", IntentNegative},
		{"pas encore", "fr", IntentNegative},
		{"attends", "fr", IntentNegative},
		{"no", "fr", IntentNegative},
		{"not yet", "en", IntentNegative},
		{"sure", "en", IntentPositive},
		{"peut-être", "fr", IntentUnclear},
		{"je ne sais pas", "fr", IntentUnclear},
		{"", "fr", IntentUnclear},
		{"mon email est jean@x.com", "fr", IntentUnclear},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.text, tc.lang); got != tc.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tc.text, tc.lang, got, tc.want)
		}
	}
}

func TestClassifyConflictingMarkersIsUnclear(t *testing.T) {
	c := NewKeywordClassifier()
	if got := c.Classify("oui et non", "fr"); got != IntentUnclear {
		t.Errorf("expected unclear for conflicting answer, got %s", got)
	}
}

func TestClassifyIsLanguageTolerant(t *testing.T) {
	// An English answer on a French profile still classifies.
	c := NewKeywordClassifier()
	if got := c.Classify("yes", "fr"); got != IntentPositive {
		t.Errorf("expected positive for english yes on fr profile, got %s", got)
	}
	if got := c.Classify("oui", "en"); got != IntentPositive {
		t.Errorf("expected positive for french oui on en profile, got %s", got)
	}
}
