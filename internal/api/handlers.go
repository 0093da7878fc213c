package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pauhq/pau/internal/messaging"
	"github.com/pauhq/pau/internal/models"
)

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success())
}

// metaVerifyHandler implements the Meta GET verification handshake:
// hub.mode=subscribe with the configured verify token echoes hub.challenge.
func (s *Server) metaVerifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.handleMetaVerification(w, r)
}

func (s *Server) handleMetaVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && s.metaVerifyToken != "" && token == s.metaVerifyToken {
		slog.Debug("Server.handleMetaVerification: webhook verified", "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	slog.Warn("Server.handleMetaVerification: verification rejected", "path", r.URL.Path, "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// twilioWebhookHandler receives Twilio's inbound WhatsApp form posts.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form payload"))
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("Server.twilioWebhookHandler: missing From or Body")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing From or Body"))
		return
	}

	msg := models.InboundMessage{
		Channel:  models.ChannelWhatsApp,
		SenderID: canonicalWhatsAppID(from),
		Text:     body,
		Time:     time.Now().Unix(),
	}
	if err := s.processor.Process(r.Context(), msg); err != nil {
		slog.Error("Server.twilioWebhookHandler: turn aborted", "error", err, "sender", msg.SenderID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success())
}

// canonicalWhatsAppID strips the "whatsapp:" and "+" prefixes Twilio adds,
// leaving the bare digits used as the stored channel identity.
func canonicalWhatsAppID(from string) string {
	from = strings.TrimPrefix(from, "whatsapp:")
	return strings.TrimPrefix(from, "+")
}

// instagramWebhookHandler serves the Meta handshake on GET and inbound DMs
// on POST.
func (s *Server) instagramWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		s.handleMetaVerification(w, r)
	case http.MethodPost:
		s.handleInstagramEvent(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleInstagramEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read body"))
		return
	}

	if s.instagramSecret != "" {
		signature := r.Header.Get("X-Hub-Signature-256")
		if !messaging.VerifySignature(s.instagramSecret, body, signature) {
			slog.Warn("Server.handleInstagramEvent: signature verification failed")
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid signature"))
			return
		}
	}

	var event messaging.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Warn("Server.handleInstagramEvent: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	// Echoes and non-text entries are already filtered by the parser.
	for _, msg := range messaging.ParseWebhookEvent(event) {
		if err := s.processor.Process(r.Context(), msg); err != nil {
			slog.Error("Server.handleInstagramEvent: turn aborted", "error", err, "sender", msg.SenderID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success())
}

// emailWebhookHandler receives inbound-parse style email posts carrying
// from, subject and text form fields.
func (s *Server) emailWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.emailWebhookHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form payload"))
		return
	}

	from := strings.TrimSpace(r.FormValue("from"))
	text := r.FormValue("text")
	if from == "" || text == "" {
		slog.Warn("Server.emailWebhookHandler: missing from or text")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing from or text"))
		return
	}

	// Our own outbound address looping back is an echo.
	if s.outboundEmail != "" && strings.EqualFold(from, s.outboundEmail) {
		slog.Debug("Server.emailWebhookHandler: echo from own address dropped", "from", from)
		writeJSONResponse(w, http.StatusOK, models.Success())
		return
	}

	msg := models.InboundMessage{
		Channel:  models.ChannelEmail,
		SenderID: strings.ToLower(from),
		Text:     text,
		Subject:  r.FormValue("subject"),
		Time:     time.Now().Unix(),
	}
	if err := s.processor.Process(r.Context(), msg); err != nil {
		slog.Error("Server.emailWebhookHandler: turn aborted", "error", err, "sender", msg.SenderID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success())
}
