package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	"github.com/servizo/walletd/internal/payment/razorpay"
	"github.com/servizo/walletd/internal/payment/resolver"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "whsec_route"

type walletFake struct {
	credits  []walletdomain.CreditRequest
	failures []walletdomain.FailureRecord
	refunds  []walletdomain.RefundRecord

	creditErr error
}

func (w *walletFake) Credit(ctx context.Context, req walletdomain.CreditRequest) (*walletdomain.Transaction, error) {
	w.credits = append(w.credits, req)
	if w.creditErr != nil {
		return nil, w.creditErr
	}
	return &walletdomain.Transaction{
		PartnerID:    req.PartnerID,
		Amount:       decimal.NewFromInt(req.AmountMinor).Shift(-2),
		BalanceAfter: decimal.NewFromInt(req.AmountMinor).Shift(-2),
	}, nil
}

func (w *walletFake) RecordFailure(ctx context.Context, rec walletdomain.FailureRecord) error {
	w.failures = append(w.failures, rec)
	return nil
}

func (w *walletFake) RecordRefund(ctx context.Context, rec walletdomain.RefundRecord) error {
	w.refunds = append(w.refunds, rec)
	return nil
}

func (w *walletFake) Balance(ctx context.Context, partnerID int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (w *walletFake) ListTransactions(ctx context.Context, partnerID int64, beforeID snowflake.ID, limit int) ([]*walletdomain.Transaction, error) {
	return nil, nil
}

func newTestService(wallet *walletFake) paymentdomain.Service {
	log := zap.NewNop()
	return New(
		razorpay.NewAdapter(testSecret),
		resolver.NewDefault(log, nil),
		wallet,
		nil,
		log,
	)
}

func signedHeaders(body []byte) http.Header {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	h := http.Header{}
	h.Set(razorpay.SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return h
}

func TestIngestWebhook_CapturedCreditsWallet(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)

	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_ABC123",
					"order_id": "order_XYZ",
					"amount": 10000,
					"currency": "INR",
					"method": "upi",
					"notes": {"partner_id": "42"}
				}
			}
		}
	}`)

	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)

	if assert.Len(t, wallet.credits, 1) {
		req := wallet.credits[0]
		assert.Equal(t, int64(42), req.PartnerID)
		assert.Equal(t, "pay_ABC123", req.PaymentID)
		assert.Equal(t, "order_XYZ", req.OrderID)
		assert.Equal(t, int64(10000), req.AmountMinor)
	}
}

func TestIngestWebhook_SignatureRejected(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)
	body := []byte(`{"event":"payment.captured"}`)

	err := svc.IngestWebhook(context.Background(), body, http.Header{})
	assert.True(t, errors.Is(err, paymentdomain.ErrMissingSignature))

	bad := http.Header{}
	bad.Set(razorpay.SignatureHeader, "deadbeef")
	err = svc.IngestWebhook(context.Background(), body, bad)
	assert.True(t, errors.Is(err, paymentdomain.ErrInvalidSignature))

	assert.Empty(t, wallet.credits)
}

func TestIngestWebhook_UnresolvedPartnerStillSucceeds(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)

	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {"id": "pay_NOPARTNER", "amount": 5000, "currency": "INR", "notes": []}
			}
		}
	}`)

	// The gateway must still see success; the gap is logged and counted.
	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)
	assert.Empty(t, wallet.credits)
}

func TestIngestWebhook_DuplicateCreditAbsorbed(t *testing.T) {
	wallet := &walletFake{creditErr: walletdomain.ErrAlreadyProcessed}
	svc := newTestService(wallet)

	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {"id": "pay_DUP", "amount": 5000, "currency": "INR", "notes": {"partner_id": "8"}}
			}
		}
	}`)

	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)
	assert.Len(t, wallet.credits, 1)
}

func TestIngestWebhook_FailedEventRecorded(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)

	body := []byte(`{
		"event": "payment.failed",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_FAIL",
					"amount": 5000,
					"currency": "INR",
					"notes": {"partner_id": "9"},
					"error_reason": "payment_declined",
					"error_description": "card declined"
				}
			}
		}
	}`)

	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)

	if assert.Len(t, wallet.failures, 1) {
		rec := wallet.failures[0]
		assert.Equal(t, int64(9), rec.PartnerID)
		assert.Equal(t, "pay_FAIL", rec.PaymentID)
		assert.Equal(t, "payment_declined", rec.Reason)
		assert.Equal(t, "card declined", rec.Description)
	}
	assert.Empty(t, wallet.credits)
}

func TestIngestWebhook_RefundRecorded(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)

	body := []byte(`{
		"event": "refund.processed",
		"payload": {
			"refund": {
				"entity": {"id": "rfnd_1", "payment_id": "pay_R", "amount": 3000, "currency": "INR"}
			}
		}
	}`)

	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)

	if assert.Len(t, wallet.refunds, 1) {
		assert.Equal(t, "rfnd_1", wallet.refunds[0].RefundID)
		assert.Equal(t, "pay_R", wallet.refunds[0].PaymentID)
	}
}

func TestIngestWebhook_UnknownEventIgnored(t *testing.T) {
	wallet := &walletFake{}
	svc := newTestService(wallet)

	body := []byte(`{"event": "invoice.paid", "payload": {}}`)
	err := svc.IngestWebhook(context.Background(), body, signedHeaders(body))
	assert.NoError(t, err)
	assert.Empty(t, wallet.credits)
	assert.Empty(t, wallet.failures)
	assert.Empty(t, wallet.refunds)
}
