package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/servizo/walletd/internal/metrics"
	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	"github.com/servizo/walletd/internal/payment/resolver"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"go.uber.org/zap"
)

type service struct {
	adapter  paymentdomain.Adapter
	resolver *resolver.Resolver
	wallet   walletdomain.Service
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func New(
	adapter paymentdomain.Adapter,
	res *resolver.Resolver,
	wallet walletdomain.Service,
	m *metrics.Metrics,
	log *zap.Logger,
) paymentdomain.Service {
	return &service{
		adapter:  adapter,
		resolver: res,
		wallet:   wallet,
		metrics:  m,
		log:      log.Named("payment.service"),
	}
}

// IngestWebhook verifies, parses and routes one webhook delivery. Only
// signature and payload problems surface as errors; everything past that
// point is handled internally so the gateway sees a 200 and stops retrying.
func (s *service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.adapter.Verify(ctx, payload, headers); err != nil {
		s.log.Warn("webhook signature rejected", zap.Error(err))
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		return err
	}

	if !json.Valid(payload) {
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		return paymentdomain.ErrInvalidPayload
	}

	event, err := s.adapter.Parse(ctx, payload)
	if err != nil {
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		return err
	}

	switch event.EventType {
	case paymentdomain.EventPaymentCaptured:
		s.handleCaptured(ctx, event)
	case paymentdomain.EventPaymentFailed:
		s.handleFailed(ctx, event)
	case paymentdomain.EventOrderPaid:
		s.log.Info("order paid",
			zap.String("order_id", event.OrderID),
			zap.String("payment_id", event.PaymentID),
			zap.Int64("amount_minor", event.AmountMinor),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeIgnored)
	case paymentdomain.EventRefundCreated, paymentdomain.EventRefundProcessed:
		s.handleRefund(ctx, event)
	default:
		s.log.Info("unhandled webhook event", zap.String("event_type", event.EventType))
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeIgnored)
	}

	return nil
}

func (s *service) handleCaptured(ctx context.Context, event *paymentdomain.PaymentEvent) {
	if strings.TrimSpace(event.PaymentID) == "" || event.AmountMinor <= 0 {
		s.log.Error("captured event missing payment id or amount",
			zap.String("payment_id", event.PaymentID),
			zap.Int64("amount_minor", event.AmountMinor),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
		return
	}

	partnerID, err := s.resolver.Resolve(ctx, event)
	if err != nil {
		s.log.Error("partner unresolved for captured payment",
			zap.String("payment_id", event.PaymentID),
			zap.String("order_id", event.OrderID),
			zap.Int64("amount_minor", event.AmountMinor),
		)
		s.metrics.RecordResolutionFailure("partner_unresolved")
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
		return
	}

	tx, err := s.wallet.Credit(ctx, walletdomain.CreditRequest{
		PartnerID:   partnerID,
		PaymentID:   event.PaymentID,
		OrderID:     event.OrderID,
		Method:      event.Method,
		AmountMinor: event.AmountMinor,
		Currency:    event.Currency,
	})
	switch {
	case errors.Is(err, walletdomain.ErrAlreadyProcessed):
		s.log.Info("payment already credited",
			zap.String("payment_id", event.PaymentID),
			zap.Int64("partner_id", partnerID),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeDuplicate)
	case errors.Is(err, walletdomain.ErrPartnerNotFound):
		s.log.Error("resolved partner does not exist",
			zap.Int64("partner_id", partnerID),
			zap.String("payment_id", event.PaymentID),
		)
		s.metrics.RecordResolutionFailure("partner_not_found")
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
	case err != nil:
		s.log.Error("wallet credit failed",
			zap.Int64("partner_id", partnerID),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
	default:
		s.log.Debug("captured payment reconciled",
			zap.Int64("partner_id", partnerID),
			zap.String("payment_id", event.PaymentID),
			zap.String("balance_after", tx.BalanceAfter.String()),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeProcessed)
	}
}

func (s *service) handleFailed(ctx context.Context, event *paymentdomain.PaymentEvent) {
	// Partner resolution is best effort here; a failure row with no partner is
	// still worth keeping for support lookups.
	partnerID, err := s.resolver.Resolve(ctx, event)
	if err != nil {
		partnerID = 0
	}

	rec := walletdomain.FailureRecord{
		PartnerID:   partnerID,
		PaymentID:   event.PaymentID,
		OrderID:     event.OrderID,
		Method:      event.Method,
		AmountMinor: event.AmountMinor,
		Currency:    event.Currency,
		Reason:      event.ErrorReason,
		Description: failureDescription(event),
	}
	if err := s.wallet.RecordFailure(ctx, rec); err != nil {
		s.log.Error("failed to record payment failure",
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
		return
	}

	s.log.Info("payment failure recorded",
		zap.String("payment_id", event.PaymentID),
		zap.Int64("partner_id", partnerID),
		zap.String("reason", rec.Reason),
	)
	s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeProcessed)
}

func (s *service) handleRefund(ctx context.Context, event *paymentdomain.PaymentEvent) {
	rec := walletdomain.RefundRecord{
		RefundID:    event.RefundID,
		PaymentID:   event.PaymentID,
		EventType:   event.EventType,
		AmountMinor: event.AmountMinor,
		Currency:    event.Currency,
	}
	if err := s.wallet.RecordRefund(ctx, rec); err != nil {
		s.log.Error("failed to record refund",
			zap.String("refund_id", event.RefundID),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeFailed)
		return
	}

	s.log.Info("refund recorded",
		zap.String("refund_id", event.RefundID),
		zap.String("payment_id", event.PaymentID),
		zap.Int64("amount_minor", event.AmountMinor),
	)
	s.metrics.RecordWebhookEvent(event.EventType, metrics.OutcomeProcessed)
}

func failureDescription(event *paymentdomain.PaymentEvent) string {
	if event.ErrorDescription != "" {
		return event.ErrorDescription
	}
	return event.ErrorCode
}
