// Package models defines the extraction result exchanged between the slot
// extractor and the profile merger.
package models

// Extraction is the sparse field set recognized in one user message. Absent
// fields stay empty and are never applied: the merger treats empty and absent
// identically, so an extraction can only ever fill fields, never clear them.
type Extraction struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email,omitempty"`
	InstagramID  string `json:"instagram_id,omitempty"`
	FacebookID   string `json:"facebook_id,omitempty"`
	TikTokID     string `json:"tiktok_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// IsEmpty reports whether the extraction carries no fields at all.
func (e Extraction) IsEmpty() bool {
	return e == Extraction{}
}

// Fields returns the directly writable profile fields present in the
// extraction, keyed by field name. Empty values are omitted.
func (e Extraction) Fields() map[ProfileField]string {
	out := make(map[ProfileField]string)
	if e.FirstName != "" {
		out[FieldFirstName] = e.FirstName
	}
	if e.LastName != "" {
		out[FieldLastName] = e.LastName
	}
	if e.Email != "" {
		out[FieldEmail] = e.Email
	}
	if e.LanguageCode != "" {
		out[FieldLanguageCode] = e.LanguageCode
	}
	return out
}

// ChannelHandles returns the extracted channel handles keyed by channel kind.
// Empty values are omitted.
func (e Extraction) ChannelHandles() map[ChannelKind]string {
	out := make(map[ChannelKind]string)
	if e.InstagramID != "" {
		out[ChannelInstagram] = e.InstagramID
	}
	if e.FacebookID != "" {
		out[ChannelFacebook] = e.FacebookID
	}
	if e.TikTokID != "" {
		out[ChannelTikTok] = e.TikTokID
	}
	return out
}
