package flow

import (
	"strings"
	"testing"

	"github.com/pauhq/pau/internal/models"
)

func TestHomeboardingPromptListsMissingFieldsInOrder(t *testing.T) {
	b := NewPromptBuilder()
	p := &models.Profile{FirstName: "Jean", State: models.StateHomeboarding}

	prompt := b.Homeboarding(p)
	if !strings.Contains(prompt, "first name: Jean") {
		t.Errorf("prompt does not list known fields: %q", prompt)
	}
	if !strings.Contains(prompt, "last name, email address") {
		t.Errorf("prompt does not list missing fields in order: %q", prompt)
	}
	if !strings.Contains(prompt, "one at a time") {
		t.Errorf("prompt does not enforce one question at a time: %q", prompt)
	}
	if !strings.Contains(prompt, "French") {
		t.Errorf("prompt does not pin the default language: %q", prompt)
	}
}

func TestHomeboardingPromptIntroductionGate(t *testing.T) {
	b := NewPromptBuilder()
	p := &models.Profile{State: models.StateHomeboarding}

	first := b.Homeboarding(p)
	if !strings.Contains(first, "introduce yourself") {
		t.Errorf("first contact prompt lacks introduction: %q", first)
	}

	p.IntroductionDone = true
	later := b.Homeboarding(p)
	if !strings.Contains(later, "do not repeat your introduction") {
		t.Errorf("later prompt repeats introduction: %q", later)
	}
}

func TestHomeboardingPromptOptionalPhase(t *testing.T) {
	b := NewPromptBuilder()
	p := &models.Profile{
		FirstName: "Jean", LastName: "Dupont", Email: "jean@x.com",
		State: models.StateHomeboarding,
		ChannelIdentities: map[models.ChannelKind]string{
			models.ChannelInstagram: "@jean",
		},
	}

	prompt := b.Homeboarding(p)
	if !strings.Contains(prompt, "All required information is known") {
		t.Errorf("prompt does not acknowledge completion: %q", prompt)
	}
	if !strings.Contains(prompt, "Facebook, TikTok") {
		t.Errorf("prompt does not list remaining optional channels: %q", prompt)
	}
}

func TestAgentPromptCarriesIdentitySnapshot(t *testing.T) {
	b := NewPromptBuilder()
	p := &models.Profile{
		FirstName: "Jean", LastName: "Dupont", Email: "jean@x.com",
		LanguageCode: "en",
		State:        models.StateAgent,
		ChannelIdentities: map[models.ChannelKind]string{
			models.ChannelInstagram: "@jean",
		},
	}

	prompt := b.Agent(p)
	for _, want := range []string{"agent mode", "Jean", "Dupont", "jean@x.com", "@jean", "English"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("agent prompt missing %q: %q", want, prompt)
		}
	}
	if !strings.Contains(prompt, "TikTok: ?") {
		t.Errorf("agent prompt does not mark unknown optional data: %q", prompt)
	}
}

func TestLanguageLabelFallsBackToRawCode(t *testing.T) {
	if got := languageLabel("sw"); got != "sw" {
		t.Errorf("expected raw code for unknown language, got %q", got)
	}
	if got := languageLabel("es"); got != "Spanish" {
		t.Errorf("expected Spanish, got %q", got)
	}
}

func TestRecapTemplateMarksEmptyFields(t *testing.T) {
	p := &models.Profile{
		FirstName: "Jean", LastName: "Dupont", Email: "jean@x.com",
		ChannelIdentities: map[models.ChannelKind]string{},
	}
	recap := RecapTemplate(p, "fr")
	if !strings.Contains(recap, "Prénom : Jean") {
		t.Errorf("recap missing known field: %q", recap)
	}
	if strings.Count(recap, "non renseigné") != 3 {
		t.Errorf("recap must mark the three empty optional channels: %q", recap)
	}
	if !strings.Contains(recap, "oui") {
		t.Errorf("recap must ask for yes/no confirmation: %q", recap)
	}
}
