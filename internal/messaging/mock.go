package messaging

import (
	"context"

	"github.com/pauhq/pau/internal/models"
)

// MockDispatcher records deliveries instead of sending them (for tests).
type MockDispatcher struct {
	Delivered []MockDelivery
	Err       error
}

// MockDelivery is one recorded delivery.
type MockDelivery struct {
	Msg  models.InboundMessage
	Text string
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Deliver(ctx context.Context, msg models.InboundMessage, text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Delivered = append(m.Delivered, MockDelivery{Msg: msg, Text: text})
	return nil
}
