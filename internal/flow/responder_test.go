package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/pauhq/pau/internal/genai"
)

// staticModel returns a fixed reply regardless of the prompts.
type staticModel struct {
	reply string
	err   error
}

func (m *staticModel) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.reply, m.err
}

func TestRespondReturnsModelReply(t *testing.T) {
	g := NewResponseGenerator(&staticModel{reply: "  Bonjour Jean !  "})
	out, err := g.Respond(context.Background(), "sys", "salut", "fr")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out != "Bonjour Jean !" {
		t.Errorf("expected trimmed reply, got %q", out)
	}
}

func TestRespondEmptyReplyFallsBack(t *testing.T) {
	g := NewResponseGenerator(&staticModel{reply: "   "})
	out, err := g.Respond(context.Background(), "sys", "salut", "fr")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out != "Je n'ai pas compris, peux-tu reformuler ?" {
		t.Errorf("expected french fallback, got %q", out)
	}

	out, err = g.Respond(context.Background(), "sys", "hi", "en")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out != "I didn't understand, could you rephrase?" {
		t.Errorf("expected english fallback, got %q", out)
	}
}

func TestRespondNoChoicesFallsBack(t *testing.T) {
	g := NewResponseGenerator(&staticModel{err: genai.ErrNoChoicesReturned})
	out, err := g.Respond(context.Background(), "sys", "salut", "fr")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out != FallbackReply("fr") {
		t.Errorf("expected fallback, got %q", out)
	}
}

func TestRespondTransportErrorPropagates(t *testing.T) {
	g := NewResponseGenerator(&staticModel{err: errors.New("model unreachable")})
	if _, err := g.Respond(context.Background(), "sys", "salut", "fr"); err == nil {
		t.Fatal("expected transport error, got nil")
	}
}

func TestFallbackUnknownLocaleUsesDefault(t *testing.T) {
	if FallbackReply("de") != FallbackReply("fr") {
		t.Error("unknown locale must fall back to the default locale")
	}
}
