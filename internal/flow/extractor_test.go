package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pauhq/pau/internal/models"
)

// mockModel implements genai.ClientInterface with scripted answers. The
// extraction instruction is recognized by its JSON marker so one mock can
// serve both pipeline calls.
type mockModel struct {
	extraction string
	reply      string
	err        error
	calls      int
}

func (m *mockModel) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if strings.Contains(systemPrompt, "JSON object") {
		return m.extraction, nil
	}
	return m.reply, nil
}

func TestExtractParsesPlainJSON(t *testing.T) {
	model := &mockModel{extraction: `{"first_name": "Jean", "last_name": "Dupont", "email": "jean@x.com"}`}
	ex, err := NewSlotExtractor(model).Extract(context.Background(), "Je m'appelle Jean Dupont, jean@x.com")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ex.FirstName != "Jean" || ex.LastName != "Dupont" || ex.Email != "jean@x.com" {
		t.Errorf("unexpected extraction: %+v", ex)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	model := &mockModel{extraction: "```json\n{\"instagram_id\": \"@jean\"}\n```"}
	ex, err := NewSlotExtractor(model).Extract(context.Background(), "mon insta c'est @jean")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ex.InstagramID != "@jean" {
		t.Errorf("expected instagram handle, got %+v", ex)
	}
}

func TestExtractMalformedJSONIsFailSoft(t *testing.T) {
	cases := []string{
		`{"first_name": "Jean",}`,
		`Sure! Here is the JSON: {"first_name": "Jean"}`,
		"",
		"no data here",
	}
	for _, raw := range cases {
		model := &mockModel{extraction: raw}
		ex, err := NewSlotExtractor(model).Extract(context.Background(), "bonjour")
		if err != nil {
			t.Errorf("Extract(%q) returned error: %v", raw, err)
		}
		if !ex.IsEmpty() {
			t.Errorf("Extract(%q) = %+v, want empty", raw, ex)
		}
	}
}

func TestExtractEmptyObject(t *testing.T) {
	model := &mockModel{extraction: "{}"}
	ex, err := NewSlotExtractor(model).Extract(context.Background(), "bonjour")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !ex.IsEmpty() {
		t.Errorf("expected empty extraction, got %+v", ex)
	}
}

func TestExtractTransportErrorPropagates(t *testing.T) {
	model := &mockModel{err: errors.New("model unreachable")}
	_, err := NewSlotExtractor(model).Extract(context.Background(), "bonjour")
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
}

func TestExtractLanguageGuess(t *testing.T) {
	model := &mockModel{extraction: `{"language_code": "en"}`}
	ex, err := NewSlotExtractor(model).Extract(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ex.LanguageCode != "en" {
		t.Errorf("expected language code en, got %q", ex.LanguageCode)
	}
	fields := ex.Fields()
	if fields[models.FieldLanguageCode] != "en" {
		t.Errorf("expected language field in Fields(), got %v", fields)
	}
}
