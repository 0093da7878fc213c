package messaging

import (
	"context"

	"github.com/pauhq/pau/internal/models"
	"github.com/pauhq/pau/internal/whatsapp"
)

// WhatsAppDispatcher delivers WhatsApp replies through a whatsmeow-backed
// sender.
type WhatsAppDispatcher struct {
	sender whatsapp.Sender
}

// NewWhatsAppDispatcher creates a dispatcher for the given WhatsApp sender.
func NewWhatsAppDispatcher(sender whatsapp.Sender) *WhatsAppDispatcher {
	return &WhatsAppDispatcher{sender: sender}
}

// Deliver sends the reply to the inbound sender. Sender identities are
// stored as bare digits, which is also the JID user part whatsmeow expects.
func (d *WhatsAppDispatcher) Deliver(ctx context.Context, msg models.InboundMessage, text string) error {
	return d.sender.SendMessage(ctx, msg.SenderID, text)
}
