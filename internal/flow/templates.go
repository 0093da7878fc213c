package flow

import (
	"fmt"
	"strings"

	"github.com/pauhq/pau/internal/models"
)

// templateSet holds the deterministic replies for one locale.
type templateSet struct {
	optionalRequest   string
	recapHeader       string
	recapFooter       string
	agentSwitch       string
	correctionRequest string
	fallback          string
	notProvided       string
	fieldLabels       map[models.ProfileField]string
	channelLabels     map[models.ChannelKind]string
	channelListSep    string
}

var templates = map[string]templateSet{
	"fr": {
		optionalRequest:   "Merci ! Avant de terminer, veux-tu me donner tes identifiants %s ? C'est optionnel, réponds « non » pour passer.",
		recapHeader:       "Voici ce que je sais de toi :",
		recapFooter:       "Est-ce correct ? Réponds oui pour confirmer, ou non pour corriger.",
		agentSwitch:       "Parfait, ton profil est confirmé ! Je passe en mode agent : pose-moi toutes tes questions.",
		correctionRequest: "Pas de souci. Dis-moi ce qu'il faut corriger.",
		fallback:          "Je n'ai pas compris, peux-tu reformuler ?",
		notProvided:       "non renseigné",
		fieldLabels: map[models.ProfileField]string{
			models.FieldFirstName: "Prénom",
			models.FieldLastName:  "Nom",
			models.FieldEmail:     "Email",
		},
		channelLabels: map[models.ChannelKind]string{
			models.ChannelInstagram: "Instagram",
			models.ChannelFacebook:  "Facebook",
			models.ChannelTikTok:    "TikTok",
		},
		channelListSep: " et ",
	},
	"en": {
		optionalRequest:   "Thanks! Before we finish, would you like to share your %s handles? This is optional, reply \"no\" to skip.",
		recapHeader:       "Here is what I know about you:",
		recapFooter:       "Is this correct? Reply yes to confirm, or no to fix something.",
		agentSwitch:       "Great, your profile is confirmed! Switching to agent mode: ask me anything.",
		correctionRequest: "No problem. Tell me what needs correcting.",
		fallback:          "I didn't understand, could you rephrase?",
		notProvided:       "not provided",
		fieldLabels: map[models.ProfileField]string{
			models.FieldFirstName: "First name",
			models.FieldLastName:  "Last name",
			models.FieldEmail:     "Email",
		},
		channelLabels: map[models.ChannelKind]string{
			models.ChannelInstagram: "Instagram",
			models.ChannelFacebook:  "Facebook",
			models.ChannelTikTok:    "TikTok",
		},
		channelListSep: " and ",
	},
}

// templatesFor returns the template set for a language code, falling back to
// the default locale when the code is unknown.
func templatesFor(languageCode string) templateSet {
	if set, ok := templates[languageCode]; ok {
		return set
	}
	return templates[models.DefaultLanguageCode]
}

// OptionalRequestTemplate renders the one-time request for the missing
// optional channels.
func OptionalRequestTemplate(missing []models.ChannelKind, languageCode string) string {
	set := templatesFor(languageCode)
	labels := make([]string, 0, len(missing))
	for _, ch := range missing {
		labels = append(labels, set.channelLabels[ch])
	}
	return fmt.Sprintf(set.optionalRequest, strings.Join(labels, set.channelListSep))
}

// RecapTemplate renders the confirmation recap listing every known field,
// required and optional, with a placeholder for empty ones.
func RecapTemplate(p *models.Profile, languageCode string) string {
	set := templatesFor(languageCode)
	var b strings.Builder
	b.WriteString(set.recapHeader)
	b.WriteString("\n")
	for _, field := range models.RequiredFields {
		value := p.FieldValue(field)
		if value == "" {
			value = set.notProvided
		}
		fmt.Fprintf(&b, "%s : %s\n", set.fieldLabels[field], value)
	}
	for _, ch := range models.OptionalChannels {
		value := p.ChannelIdentities[ch]
		if value == "" {
			value = set.notProvided
		}
		fmt.Fprintf(&b, "%s : %s\n", set.channelLabels[ch], value)
	}
	b.WriteString(set.recapFooter)
	return b.String()
}

// AgentSwitchTemplate renders the reply confirming the switch to agent mode.
func AgentSwitchTemplate(languageCode string) string {
	return templatesFor(languageCode).agentSwitch
}

// CorrectionRequestTemplate renders the reply asking what to correct after a
// negative confirmation.
func CorrectionRequestTemplate(languageCode string) string {
	return templatesFor(languageCode).correctionRequest
}

// FallbackReply renders the localized reply used when the model returns an
// empty answer.
func FallbackReply(languageCode string) string {
	return templatesFor(languageCode).fallback
}
