package messaging

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pauhq/pau/internal/models"
)

// Constants for the Instagram Graph API client
const (
	// DefaultGraphAPIBase is the Meta Graph API endpoint used for sends
	DefaultGraphAPIBase = "https://graph.facebook.com/v21.0"
	// DefaultGraphTimeout bounds one Graph API call
	DefaultGraphTimeout = 10 * time.Second
)

// InstagramOpts holds configuration options for the Instagram client.
type InstagramOpts struct {
	AccessToken  string
	GraphAPIBase string
}

// InstagramOption defines a configuration option for the Instagram client.
type InstagramOption func(*InstagramOpts)

// WithAccessToken sets the page access token.
func WithAccessToken(token string) InstagramOption {
	return func(o *InstagramOpts) { o.AccessToken = token }
}

// WithGraphAPIBase overrides the Graph API base URL (useful for testing).
func WithGraphAPIBase(base string) InstagramOption {
	return func(o *InstagramOpts) { o.GraphAPIBase = base }
}

// InstagramClient sends direct messages via the Meta Graph API.
type InstagramClient struct {
	accessToken  string
	graphAPIBase string
	httpClient   *http.Client
}

// NewInstagramClient creates a Graph API client, falling back to the
// INSTAGRAM_ACCESS_TOKEN environment variable when no token option is given.
func NewInstagramClient(opts ...InstagramOption) (*InstagramClient, error) {
	var cfg InstagramOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("INSTAGRAM_ACCESS_TOKEN")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("instagram access token must be provided")
	}
	if cfg.GraphAPIBase == "" {
		cfg.GraphAPIBase = DefaultGraphAPIBase
	}
	slog.Debug("Instagram client config loaded", "AccessToken_set", true, "base", cfg.GraphAPIBase)
	return &InstagramClient{
		accessToken:  cfg.AccessToken,
		graphAPIBase: cfg.GraphAPIBase,
		httpClient:   &http.Client{Timeout: DefaultGraphTimeout},
	}, nil
}

// graphSendRequest is the Graph API send payload.
type graphSendRequest struct {
	Recipient graphRecipient `json:"recipient"`
	Message   graphText      `json:"message"`
}

type graphRecipient struct {
	ID string `json:"id"`
}

type graphText struct {
	Text string `json:"text"`
}

// graphSendResponse is the Graph API send reply, including the error shape.
type graphSendResponse struct {
	RecipientID string      `json:"recipient_id"`
	MessageID   string      `json:"message_id"`
	Error       *graphError `json:"error,omitempty"`
}

type graphError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SendMessage sends a plain text direct message to the given recipient.
func (c *InstagramClient) SendMessage(ctx context.Context, recipientID, text string) error {
	payload := graphSendRequest{
		Recipient: graphRecipient{ID: recipientID},
		Message:   graphText{Text: text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", c.graphAPIBase, c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Instagram SendMessage failed", "to", recipientID, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", recipientID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read send response: %w", err)
	}
	var sendResp graphSendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return fmt.Errorf("failed to unmarshal send response: %w", err)
	}
	if sendResp.Error != nil {
		slog.Error("Instagram SendMessage API error", "to", recipientID, "code", sendResp.Error.Code, "message", sendResp.Error.Message)
		return fmt.Errorf("graph API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Debug("Instagram message sent", "to", recipientID, "messageID", sendResp.MessageID)
	return nil
}

// WebhookEvent is the Meta webhook envelope for Instagram messaging events.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string             `json:"id"`
	Time      int64              `json:"time"`
	Messaging []MessagingPayload `json:"messaging"`
}

type MessagingPayload struct {
	Sender    MessagingParty   `json:"sender"`
	Recipient MessagingParty   `json:"recipient"`
	Timestamp int64            `json:"timestamp"`
	Message   *MessagePayload  `json:"message,omitempty"`
	Postback  *PostbackPayload `json:"postback,omitempty"`
}

type MessagingParty struct {
	ID string `json:"id"`
}

type MessagePayload struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

type PostbackPayload struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// ParseWebhookEvent extracts inbound messages from a webhook event. Echoes
// of our own outbound messages and non-text payloads are dropped here so
// they never reach the conversation pipeline.
func ParseWebhookEvent(event WebhookEvent) []models.InboundMessage {
	var messages []models.InboundMessage
	for _, entry := range event.Entry {
		for _, m := range entry.Messaging {
			if m.Message == nil {
				continue
			}
			if m.Message.IsEcho {
				slog.Debug("Instagram echo event dropped", "messageID", m.Message.MID)
				continue
			}
			if m.Message.Text == "" {
				continue
			}
			messages = append(messages, models.InboundMessage{
				Channel:  models.ChannelInstagram,
				SenderID: m.Sender.ID,
				Text:     m.Message.Text,
				Time:     time.UnixMilli(m.Timestamp).Unix(),
			})
		}
	}
	return messages
}

// VerifySignature verifies the X-Hub-Signature-256 header Meta sends with
// every webhook POST. The signature format is "sha256=<hex>".
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}
	const prefix = "sha256="
	if len(signature) <= len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}

// InstagramSender sends one Instagram direct message.
type InstagramSender interface {
	SendMessage(ctx context.Context, recipientID, text string) error
}

// InstagramDispatcher delivers Instagram replies through the Graph API.
type InstagramDispatcher struct {
	sender InstagramSender
}

// NewInstagramDispatcher creates a dispatcher for the given Instagram sender.
func NewInstagramDispatcher(sender InstagramSender) *InstagramDispatcher {
	return &InstagramDispatcher{sender: sender}
}

// Deliver sends the reply back to the inbound sender's platform id.
func (d *InstagramDispatcher) Deliver(ctx context.Context, msg models.InboundMessage, text string) error {
	return d.sender.SendMessage(ctx, msg.SenderID, text)
}
