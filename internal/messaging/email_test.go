package messaging

import (
	"context"
	"testing"

	"github.com/pauhq/pau/internal/models"
)

func TestReplySubject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Question stratégie", "Re: Question stratégie"},
		{"Re: Question stratégie", "Re: Question stratégie"},
		{"RE: question", "RE: question"},
		{"re: question", "re: question"},
		{"", DefaultEmailSubject},
		{"   ", DefaultEmailSubject},
	}
	for _, c := range cases {
		if got := ReplySubject(c.in); got != c.want {
			t.Errorf("ReplySubject(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

type recordingEmailSender struct {
	to, subject, body string
}

func (r *recordingEmailSender) Send(ctx context.Context, to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return nil
}

func TestEmailDispatcherThreadsOnSubject(t *testing.T) {
	sender := &recordingEmailSender{}
	d := NewEmailDispatcher(sender)
	msg := models.InboundMessage{
		Channel:  models.ChannelEmail,
		SenderID: "jean@x.com",
		Text:     "bonjour",
		Subject:  "Question stratégie",
	}
	if err := d.Deliver(context.Background(), msg, "voici ma réponse"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if sender.to != "jean@x.com" {
		t.Errorf("unexpected recipient %q", sender.to)
	}
	if sender.subject != "Re: Question stratégie" {
		t.Errorf("unexpected subject %q", sender.subject)
	}
	if sender.body != "voici ma réponse" {
		t.Errorf("unexpected body %q", sender.body)
	}
}

func TestNewSendGridSenderValidation(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("EMAIL_FROM", "")
	if _, err := NewSendGridSender(); err == nil {
		t.Fatal("expected error without API key")
	}
	if _, err := NewSendGridSender(WithSendGridAPIKey("sg-key")); err == nil {
		t.Fatal("expected error without from address")
	}
	s, err := NewSendGridSender(WithSendGridAPIKey("sg-key"), WithFromEmail("pau@pau.app"))
	if err != nil {
		t.Fatalf("NewSendGridSender failed: %v", err)
	}
	if s.FromEmail() != "pau@pau.app" {
		t.Errorf("unexpected from address %q", s.FromEmail())
	}
}
