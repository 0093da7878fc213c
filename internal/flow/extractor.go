// Package flow implements the PAU conversation engine: slot extraction,
// profile merging, the homeboarding state machine, prompt construction and
// the per-message processing pipeline.
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pauhq/pau/internal/genai"
	"github.com/pauhq/pau/internal/models"
)

// extractionInstruction asks the model for a JSON-only answer. The reply is
// parsed fail-soft: anything that is not valid JSON counts as "no fields".
const extractionInstruction = `Analyze the user's message.
If the user provides their first name, last name, email address, or an Instagram, Facebook or TikTok handle, reply with ONLY a JSON object of the recognized fields:
{"first_name": "...", "last_name": "...", "email": "...", "instagram_id": "...", "facebook_id": "...", "tiktok_id": "...", "language_code": "..."}
Include "language_code" only when you can confidently guess the ISO-639-1 code of the language the message is written in; omit it otherwise.
Omit every field the message does not provide. If no data is present, reply with {}.
Never add any text outside the JSON object.`

// SlotExtractor turns raw message text into a sparse extraction using one
// model call.
type SlotExtractor struct {
	client genai.ClientInterface
}

// NewSlotExtractor creates a slot extractor backed by the given model client.
func NewSlotExtractor(client genai.ClientInterface) *SlotExtractor {
	return &SlotExtractor{client: client}
}

// Extract issues one model call and parses the reply as a sparse extraction.
// A malformed reply yields an empty extraction and no error; only transport
// failures are returned to the caller.
func (e *SlotExtractor) Extract(ctx context.Context, text string) (models.Extraction, error) {
	raw, err := e.client.GeneratePrompt(ctx, extractionInstruction, text)
	if err != nil {
		slog.Error("SlotExtractor.Extract: model call failed", "error", err)
		return models.Extraction{}, fmt.Errorf("extraction call failed: %w", err)
	}

	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		slog.Debug("SlotExtractor.Extract: empty model reply, no fields")
		return models.Extraction{}, nil
	}

	var ex models.Extraction
	if err := json.Unmarshal([]byte(cleaned), &ex); err != nil {
		slog.Debug("SlotExtractor.Extract: unparseable reply, no fields", "error", err)
		return models.Extraction{}, nil
	}
	slog.Debug("SlotExtractor.Extract: succeeded", "fields", len(ex.Fields()), "handles", len(ex.ChannelHandles()))
	return ex, nil
}

// stripCodeFences removes markdown code fence markers the model sometimes
// wraps around its JSON reply.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
