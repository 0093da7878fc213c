// Package models defines the user Profile and its field accessors.
package models

import "time"

// DefaultLanguageCode is the language assumed when nothing has been extracted yet.
const DefaultLanguageCode = "fr"

// ProfileField names a directly writable column of a profile.
type ProfileField string

const (
	FieldFirstName    ProfileField = "first_name"
	FieldLastName     ProfileField = "last_name"
	FieldEmail        ProfileField = "email"
	FieldLanguageCode ProfileField = "language_code"
)

// RequiredFields lists the fields that must be filled before onboarding can
// complete, in the fixed order they are asked for.
var RequiredFields = []ProfileField{FieldFirstName, FieldLastName, FieldEmail}

// OptionalChannels lists the channel handles offered once during onboarding,
// in the fixed order they appear in templates.
var OptionalChannels = []ChannelKind{ChannelInstagram, ChannelFacebook, ChannelTikTok}

// Profile is the single record kept per end user, identity-stable across
// channels. A (channel, identifier) pair resolves to exactly one profile.
type Profile struct {
	ID                string                 `json:"id"`
	ChannelIdentities map[ChannelKind]string `json:"channel_identities,omitempty"`
	FirstName         string                 `json:"first_name,omitempty"`
	LastName          string                 `json:"last_name,omitempty"`
	Email             string                 `json:"email,omitempty"`
	LanguageCode      string                 `json:"language_code,omitempty"`
	State             State                  `json:"state"`
	Step              Step                   `json:"onboarding_step"`
	IntroductionDone  bool                   `json:"introduction_done"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// FieldValue returns the current value of a directly writable field.
func (p *Profile) FieldValue(f ProfileField) string {
	switch f {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldEmail:
		return p.Email
	case FieldLanguageCode:
		return p.LanguageCode
	default:
		return ""
	}
}

// SetFieldValue sets a directly writable field on the in-memory profile.
func (p *Profile) SetFieldValue(f ProfileField, v string) {
	switch f {
	case FieldFirstName:
		p.FirstName = v
	case FieldLastName:
		p.LastName = v
	case FieldEmail:
		p.Email = v
	case FieldLanguageCode:
		p.LanguageCode = v
	}
}

// MissingRequired returns the required fields that are still empty, in the
// fixed asking order.
func (p *Profile) MissingRequired() []ProfileField {
	var missing []ProfileField
	for _, f := range RequiredFields {
		if p.FieldValue(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// MissingOptionalChannels returns the optional channels with no known handle,
// in the fixed template order.
func (p *Profile) MissingOptionalChannels() []ChannelKind {
	var missing []ChannelKind
	for _, c := range OptionalChannels {
		if p.ChannelIdentities[c] == "" {
			missing = append(missing, c)
		}
	}
	return missing
}

// Language returns the profile's language code, falling back to the default
// when none has been extracted yet.
func (p *Profile) Language() string {
	if p.LanguageCode == "" {
		return DefaultLanguageCode
	}
	return p.LanguageCode
}

// Clone returns a deep copy of the profile. Stores hand out clones so callers
// cannot mutate shared state.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.ChannelIdentities = make(map[ChannelKind]string, len(p.ChannelIdentities))
	for k, v := range p.ChannelIdentities {
		cp.ChannelIdentities[k] = v
	}
	return &cp
}
