package resolver

import (
	"context"
	"strconv"
	"strings"

	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	"go.uber.org/zap"
)

const noteKeyPartnerID = "partner_id"

// Strategy attempts to extract the raw partner correlation key from an event.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, event *paymentdomain.PaymentEvent) (string, bool)
}

// Resolver walks an ordered strategy list and returns the first value that
// parses as a positive integer. A malformed id is treated exactly like an
// absent one; there is no guessing and no default partner.
type Resolver struct {
	strategies []Strategy
	log        *zap.Logger
}

func New(log *zap.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		log:        log.Named("payment.resolver"),
	}
}

// NewDefault wires the production order: order notes, payment notes, then the
// live order re-fetch.
func NewDefault(log *zap.Logger, fetcher paymentdomain.OrderFetcher) *Resolver {
	return New(log,
		OrderNotes{},
		PaymentNotes{},
		NewOrderFetch(fetcher, log),
	)
}

func (r *Resolver) Resolve(ctx context.Context, event *paymentdomain.PaymentEvent) (int64, error) {
	if event == nil {
		return 0, paymentdomain.ErrPartnerUnresolved
	}

	for _, strategy := range r.strategies {
		raw, ok := strategy.Lookup(ctx, event)
		if !ok {
			continue
		}
		partnerID, err := parsePartnerID(raw)
		if err != nil {
			r.log.Warn("malformed partner id in event notes",
				zap.String("strategy", strategy.Name()),
				zap.String("raw", raw),
				zap.String("payment_id", event.PaymentID),
				zap.String("order_id", event.OrderID),
			)
			continue
		}
		if strategy.Name() != "order_notes" {
			r.log.Info("partner id resolved via fallback",
				zap.String("strategy", strategy.Name()),
				zap.Int64("partner_id", partnerID),
				zap.String("payment_id", event.PaymentID),
			)
		}
		return partnerID, nil
	}

	return 0, paymentdomain.ErrPartnerUnresolved
}

func parsePartnerID(raw string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, paymentdomain.ErrPartnerUnresolved
	}
	return parsed, nil
}

// OrderNotes reads the order-level notes set at order-creation time; the
// authoritative source.
type OrderNotes struct{}

func (OrderNotes) Name() string { return "order_notes" }

func (OrderNotes) Lookup(ctx context.Context, event *paymentdomain.PaymentEvent) (string, bool) {
	return readNote(event.OrderNotes)
}

// PaymentNotes reads the payment-level notes; the gateway sometimes relocates
// or duplicates notes between the order and payment objects.
type PaymentNotes struct{}

func (PaymentNotes) Name() string { return "payment_notes" }

func (PaymentNotes) Lookup(ctx context.Context, event *paymentdomain.PaymentEvent) (string, bool) {
	return readNote(event.PaymentNotes)
}

// OrderFetch re-fetches the order from the gateway API. Handles deliveries
// where note propagation to the webhook payload lagged behind.
type OrderFetch struct {
	fetcher paymentdomain.OrderFetcher
	log     *zap.Logger
}

func NewOrderFetch(fetcher paymentdomain.OrderFetcher, log *zap.Logger) OrderFetch {
	return OrderFetch{fetcher: fetcher, log: log.Named("payment.resolver")}
}

func (OrderFetch) Name() string { return "order_fetch" }

func (s OrderFetch) Lookup(ctx context.Context, event *paymentdomain.PaymentEvent) (string, bool) {
	if s.fetcher == nil || strings.TrimSpace(event.OrderID) == "" {
		return "", false
	}

	order, err := s.fetcher.FetchOrder(ctx, event.OrderID)
	if err != nil {
		s.log.Warn("order re-fetch failed",
			zap.String("order_id", event.OrderID),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		return "", false
	}
	return readNote(order.Notes)
}

func readNote(notes map[string]string) (string, bool) {
	if len(notes) == 0 {
		return "", false
	}
	value, ok := notes[noteKeyPartnerID]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
