package domain

import (
	"context"
	"net/http"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
	EventRefundCreated   = "refund.created"
	EventRefundProcessed = "refund.processed"
)

// PaymentEvent is the canonical webhook event parsed by the gateway adapter.
// Notes carry the partner correlation key and may be present on the order,
// the payment, both, or neither.
type PaymentEvent struct {
	EventType        string
	PaymentID        string
	OrderID          string
	RefundID         string
	AmountMinor      int64
	Currency         string
	Method           string
	OrderNotes       map[string]string
	PaymentNotes     map[string]string
	ErrorCode        string
	ErrorDescription string
	ErrorReason      string
	RawPayload       []byte
}

// Adapter verifies and parses gateway webhook deliveries. Verify must run on
// the exact raw body bytes, before any JSON parsing.
type Adapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

// Order is the gateway-side order record fetched through the provider API.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
	Notes       map[string]string
}

// OrderFetcher re-fetches an order from the gateway; used only as the
// last-resort partner resolution fallback.
type OrderFetcher interface {
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

// Service ingests a raw webhook delivery.
type Service interface {
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error
}
