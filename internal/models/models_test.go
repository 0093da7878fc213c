package models

import "testing"

func TestIsValidChannel(t *testing.T) {
	valid := []ChannelKind{ChannelWhatsApp, ChannelInstagram, ChannelEmail, ChannelFacebook, ChannelTikTok}
	for _, c := range valid {
		if !IsValidChannel(c) {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if IsValidChannel("telegram") {
		t.Error("expected unknown channel to be invalid")
	}
}

func TestIsInboundChannel(t *testing.T) {
	if !IsInboundChannel(ChannelWhatsApp) || !IsInboundChannel(ChannelInstagram) || !IsInboundChannel(ChannelEmail) {
		t.Error("expected whatsapp, instagram and email to be inbound channels")
	}
	if IsInboundChannel(ChannelFacebook) || IsInboundChannel(ChannelTikTok) {
		t.Error("facebook and tiktok have no inbound transport")
	}
}

func TestInboundMessageValidate(t *testing.T) {
	cases := []struct {
		name    string
		msg     InboundMessage
		wantErr error
	}{
		{"valid", InboundMessage{Channel: ChannelWhatsApp, SenderID: "33612345678", Text: "Bonjour"}, nil},
		{"bad channel", InboundMessage{Channel: ChannelFacebook, SenderID: "x", Text: "hi"}, ErrInvalidChannel},
		{"empty sender", InboundMessage{Channel: ChannelEmail, Text: "hi"}, ErrEmptySender},
		{"empty body", InboundMessage{Channel: ChannelInstagram, SenderID: "x"}, ErrEmptyBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Validate(); err != tc.wantErr {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestProfileMissingRequired(t *testing.T) {
	p := &Profile{}
	missing := p.MissingRequired()
	if len(missing) != 3 || missing[0] != FieldFirstName || missing[1] != FieldLastName || missing[2] != FieldEmail {
		t.Errorf("unexpected missing fields for empty profile: %v", missing)
	}

	p.FirstName = "Jean"
	p.LastName = "Dupont"
	p.Email = "jean@x.com"
	if got := p.MissingRequired(); len(got) != 0 {
		t.Errorf("expected no missing required fields, got %v", got)
	}
}

func TestProfileMissingOptionalChannels(t *testing.T) {
	p := &Profile{ChannelIdentities: map[ChannelKind]string{ChannelInstagram: "jean.d"}}
	missing := p.MissingOptionalChannels()
	if len(missing) != 2 || missing[0] != ChannelFacebook || missing[1] != ChannelTikTok {
		t.Errorf("unexpected missing optional channels: %v", missing)
	}
}

func TestProfileLanguageDefault(t *testing.T) {
	p := &Profile{}
	if p.Language() != DefaultLanguageCode {
		t.Errorf("expected default language %q, got %q", DefaultLanguageCode, p.Language())
	}
	p.LanguageCode = "en"
	if p.Language() != "en" {
		t.Errorf("expected en, got %q", p.Language())
	}
}

func TestProfileClone(t *testing.T) {
	p := &Profile{ID: "u_1", ChannelIdentities: map[ChannelKind]string{ChannelWhatsApp: "336"}}
	cp := p.Clone()
	cp.ChannelIdentities[ChannelInstagram] = "someone"
	if _, ok := p.ChannelIdentities[ChannelInstagram]; ok {
		t.Error("clone shares the identity map with the original")
	}
}

func TestExtractionIsEmpty(t *testing.T) {
	if !(Extraction{}).IsEmpty() {
		t.Error("zero extraction should be empty")
	}
	if (Extraction{FirstName: "Jean"}).IsEmpty() {
		t.Error("extraction with a field should not be empty")
	}
}

func TestExtractionFieldsAndHandles(t *testing.T) {
	e := Extraction{FirstName: "Jean", Email: "jean@x.com", InstagramID: "jean.d", LanguageCode: "fr"}
	fields := e.Fields()
	if len(fields) != 3 || fields[FieldFirstName] != "Jean" || fields[FieldEmail] != "jean@x.com" || fields[FieldLanguageCode] != "fr" {
		t.Errorf("unexpected fields: %v", fields)
	}
	handles := e.ChannelHandles()
	if len(handles) != 1 || handles[ChannelInstagram] != "jean.d" {
		t.Errorf("unexpected handles: %v", handles)
	}
}
