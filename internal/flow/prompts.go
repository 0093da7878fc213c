package flow

import (
	"fmt"
	"strings"

	"github.com/pauhq/pau/internal/models"
)

// languageLabels maps ISO-639-1 codes to the label used inside prompts.
// Unknown codes fall back to the raw code.
var languageLabels = map[string]string{
	"fr": "French",
	"en": "English",
	"es": "Spanish",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ar": "Arabic",
}

// languageLabel resolves a language code to its prompt label.
func languageLabel(code string) string {
	if label, ok := languageLabels[code]; ok {
		return label
	}
	return code
}

// fieldPromptNames names profile fields inside prompts.
var fieldPromptNames = map[models.ProfileField]string{
	models.FieldFirstName: "first name",
	models.FieldLastName:  "last name",
	models.FieldEmail:     "email address",
}

// channelPromptNames names optional channels inside prompts.
var channelPromptNames = map[models.ChannelKind]string{
	models.ChannelInstagram: "Instagram",
	models.ChannelFacebook:  "Facebook",
	models.ChannelTikTok:    "TikTok",
}

// PromptBuilder renders the two system prompts PAU sends to the model. Both
// renderers are pure functions of the profile.
type PromptBuilder struct{}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// knownBits lists the fields already collected, in collection order.
func knownBits(p *models.Profile) string {
	var parts []string
	for _, field := range models.RequiredFields {
		if value := p.FieldValue(field); value != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", fieldPromptNames[field], value))
		}
	}
	for _, ch := range models.OptionalChannels {
		if handle := p.ChannelIdentities[ch]; handle != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", channelPromptNames[ch], handle))
		}
	}
	if len(parts) == 0 {
		return "nothing yet"
	}
	return strings.Join(parts, " | ")
}

// Homeboarding renders the onboarding system prompt: identity, known and
// missing fields, the one-time introduction and the one-question-at-a-time
// policy.
func (b *PromptBuilder) Homeboarding(p *models.Profile) string {
	var sb strings.Builder
	sb.WriteString("You are PAU, an onboarding assistant.\n")
	fmt.Fprintf(&sb, "Always answer in %s.\n", languageLabel(p.Language()))
	fmt.Fprintf(&sb, "Known user information: %s.\n", knownBits(p))

	missing := p.MissingRequired()
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, field := range missing {
			names = append(names, fieldPromptNames[field])
		}
		fmt.Fprintf(&sb, "Still missing, in this order: %s.\n", strings.Join(names, ", "))
		sb.WriteString("Goal: collect each missing item one at a time, in that order. Verify spelling and rephrase when unsure.\n")
	} else {
		channels := make([]string, 0, len(models.OptionalChannels))
		for _, ch := range p.MissingOptionalChannels() {
			channels = append(channels, channelPromptNames[ch])
		}
		if len(channels) > 0 {
			fmt.Fprintf(&sb, "All required information is known. The user may still link these optional channels: %s.\n", strings.Join(channels, ", "))
		} else {
			sb.WriteString("All required information is known.\n")
		}
	}

	if p.IntroductionDone {
		sb.WriteString("The user already knows you; do not repeat your introduction.\n")
	} else {
		sb.WriteString("This is the first contact: introduce yourself in one short sentence, then ask your first question.\n")
	}
	sb.WriteString("Ask exactly one short, professional question per message and briefly acknowledge information the user just gave.")
	return sb.String()
}

// Agent renders the open-chat system prompt with the full identity snapshot.
func (b *PromptBuilder) Agent(p *models.Profile) string {
	identity := []string{
		fmt.Sprintf("first name: %s", valueOrUnknown(p.FirstName)),
		fmt.Sprintf("last name: %s", valueOrUnknown(p.LastName)),
		fmt.Sprintf("email: %s", valueOrUnknown(p.Email)),
	}
	for _, ch := range models.OptionalChannels {
		identity = append(identity, fmt.Sprintf("%s: %s", channelPromptNames[ch], valueOrUnknown(p.ChannelIdentities[ch])))
	}

	var sb strings.Builder
	sb.WriteString("You are PAU, a strategic assistant in agent mode, answering the user's questions.\n")
	fmt.Fprintf(&sb, "Always answer in %s.\n", languageLabel(p.Language()))
	fmt.Fprintf(&sb, "Known identity: %s.\n", strings.Join(identity, ", "))
	sb.WriteString("Use this identity to contextualize your answers (tone, level of detail, relevant examples). ")
	sb.WriteString("If optional data is missing you may ask for it in at most one extra sentence, but always give a useful answer first.")
	return sb.String()
}

func valueOrUnknown(v string) string {
	if v == "" {
		return "?"
	}
	return v
}
