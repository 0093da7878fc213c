package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pauhq/pau/internal/genai"
)

// ResponseGenerator issues the conversational model call. It is the only
// place allowed to substitute a canned string for model output: an empty
// reply becomes the localized fallback, while a transport failure aborts
// the turn.
type ResponseGenerator struct {
	client genai.ClientInterface
}

// NewResponseGenerator creates a response generator backed by the given
// model client.
func NewResponseGenerator(client genai.ClientInterface) *ResponseGenerator {
	return &ResponseGenerator{client: client}
}

// Respond sends the system prompt and user text to the model and returns its
// reply, or the localized fallback when the model answers with nothing.
func (g *ResponseGenerator) Respond(ctx context.Context, systemPrompt, userText, languageCode string) (string, error) {
	reply, err := g.client.GeneratePrompt(ctx, systemPrompt, userText)
	if err != nil {
		// An empty choice list is a low-confidence answer, not an outage.
		if errors.Is(err, genai.ErrNoChoicesReturned) {
			slog.Warn("ResponseGenerator.Respond: no choices returned, using fallback", "language", languageCode)
			return FallbackReply(languageCode), nil
		}
		slog.Error("ResponseGenerator.Respond: model call failed", "error", err)
		return "", fmt.Errorf("response call failed: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.Warn("ResponseGenerator.Respond: empty model reply, using fallback", "language", languageCode)
		return FallbackReply(languageCode), nil
	}
	return reply, nil
}
