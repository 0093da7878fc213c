package whatsapp

import (
	"context"
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

func TestExtractText(t *testing.T) {
	body := "bonjour"
	if got := extractText(&waE2E.Message{Conversation: &body}); got != "bonjour" {
		t.Errorf("expected conversation body, got %q", got)
	}
	if got := extractText(&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: &body}}); got != "bonjour" {
		t.Errorf("expected extended text body, got %q", got)
	}
	if got := extractText(&waE2E.Message{}); got != "" {
		t.Errorf("expected empty text for non-text payload, got %q", got)
	}
	if got := extractText(nil); got != "" {
		t.Errorf("expected empty text for nil message, got %q", got)
	}
}

func TestMockClientRecordsMessages(t *testing.T) {
	m := NewMockClient()
	if err := m.SendMessage(context.Background(), "33612345678", "salut"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(m.Sent) != 1 || m.Sent[0].To != "33612345678" || m.Sent[0].Body != "salut" {
		t.Errorf("unexpected recorded messages: %+v", m.Sent)
	}
}
