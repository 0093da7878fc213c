// Package models defines the core data structures for PAU.
//
// It includes the user Profile, channel identities, inbound message events and
// delivery receipts, which are shared across modules.
package models

import "errors"

// ChannelKind identifies a messaging channel a profile can be reached on.
type ChannelKind string

const (
	// ChannelWhatsApp is the WhatsApp channel.
	ChannelWhatsApp ChannelKind = "whatsapp"
	// ChannelInstagram is the Instagram DM channel.
	ChannelInstagram ChannelKind = "instagram"
	// ChannelEmail is the email channel.
	ChannelEmail ChannelKind = "email"
	// ChannelFacebook is known only as an extracted handle; no transport exists for it.
	ChannelFacebook ChannelKind = "facebook"
	// ChannelTikTok is known only as an extracted handle; no transport exists for it.
	ChannelTikTok ChannelKind = "tiktok"
)

// Error variables for better error handling and testability
var (
	ErrInvalidChannel = errors.New("invalid channel kind")
	ErrEmptySender    = errors.New("sender identifier cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrInvalidState   = errors.New("invalid conversation state")
	ErrInvalidStep    = errors.New("invalid onboarding step")
)

// IsValidChannel checks if the given channel kind is known.
func IsValidChannel(c ChannelKind) bool {
	switch c {
	case ChannelWhatsApp, ChannelInstagram, ChannelEmail, ChannelFacebook, ChannelTikTok:
		return true
	default:
		return false
	}
}

// IsInboundChannel checks if the given channel kind has an inbound transport.
// Facebook and TikTok identities are only ever learned through extraction.
func IsInboundChannel(c ChannelKind) bool {
	switch c {
	case ChannelWhatsApp, ChannelInstagram, ChannelEmail:
		return true
	default:
		return false
	}
}

// InboundMessage is a single user message arriving from a channel, already
// stripped of transport details by the webhook layer.
type InboundMessage struct {
	Channel  ChannelKind `json:"channel"`
	SenderID string      `json:"sender_id"`
	Text     string      `json:"text"`
	Subject  string      `json:"subject,omitempty"` // email only, used for the Re: reply subject
	Time     int64       `json:"time"`
}

// Validate performs validation on an InboundMessage.
func (m *InboundMessage) Validate() error {
	if !IsInboundChannel(m.Channel) {
		return ErrInvalidChannel
	}
	if m.SenderID == "" {
		return ErrEmptySender
	}
	if m.Text == "" {
		return ErrEmptyBody
	}
	return nil
}

// MessageDirection distinguishes inbound user messages from outbound replies
// in the audit trail.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "in"
	DirectionOutbound MessageDirection = "out"
)

// MessageRecord is an audit entry for a processed message.
type MessageRecord struct {
	ProfileID string           `json:"profile_id"`
	Channel   ChannelKind      `json:"channel"`
	Direction MessageDirection `json:"direction"`
	Body      string           `json:"body"`
	Time      int64            `json:"time"`
}

// DeliveryStatus represents the delivery status of an outbound reply.
type DeliveryStatus string

const (
	// StatusSent indicates the reply was handed to the channel transport.
	StatusSent DeliveryStatus = "sent"
	// StatusFailed indicates the channel transport rejected the reply.
	StatusFailed DeliveryStatus = "failed"
)

// Receipt records the outcome of one delivery attempt.
type Receipt struct {
	ProfileID string         `json:"profile_id"`
	Channel   ChannelKind    `json:"channel"`
	Status    DeliveryStatus `json:"status"`
	Time      int64          `json:"time"`
}

// API response types for consistent JSON responses

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional message.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Success creates a successful API response.
func Success() APIResponse {
	return APIResponse{Status: string(APIStatusOK)}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
