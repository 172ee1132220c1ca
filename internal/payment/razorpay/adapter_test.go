package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	adapter := NewAdapter(testSecret)
	body := []byte(`{"event":"payment.captured"}`)

	headers := http.Header{}
	headers.Set(SignatureHeader, signBody(testSecret, body))
	assert.NoError(t, adapter.Verify(context.Background(), body, headers))

	t.Run("missing header", func(t *testing.T) {
		err := adapter.Verify(context.Background(), body, http.Header{})
		assert.True(t, errors.Is(err, paymentdomain.ErrMissingSignature))
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := []byte(`{"event":"payment.captured","amount":1}`)
		err := adapter.Verify(context.Background(), tampered, headers)
		assert.True(t, errors.Is(err, paymentdomain.ErrInvalidSignature))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := http.Header{}
		other.Set(SignatureHeader, signBody("other", body))
		err := adapter.Verify(context.Background(), body, other)
		assert.True(t, errors.Is(err, paymentdomain.ErrInvalidSignature))
	})

	t.Run("no secret configured", func(t *testing.T) {
		err := NewAdapter("").Verify(context.Background(), body, headers)
		assert.True(t, errors.Is(err, paymentdomain.ErrInvalidSignature))
	})
}

func TestParse_CapturedPayment(t *testing.T) {
	adapter := NewAdapter(testSecret)
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_ABC123",
					"order_id": "order_XYZ",
					"amount": 10000,
					"currency": "inr",
					"method": "upi",
					"notes": {"partner_id": "42", "count": 3}
				}
			},
			"order": {
				"entity": {
					"id": "order_XYZ",
					"amount": 10000,
					"currency": "INR",
					"notes": []
				}
			}
		}
	}`)

	event, err := adapter.Parse(context.Background(), body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	assert.Equal(t, paymentdomain.EventPaymentCaptured, event.EventType)
	assert.Equal(t, "pay_ABC123", event.PaymentID)
	assert.Equal(t, "order_XYZ", event.OrderID)
	assert.Equal(t, int64(10000), event.AmountMinor)
	assert.Equal(t, "INR", event.Currency)
	assert.Equal(t, "upi", event.Method)
	assert.Equal(t, "42", event.PaymentNotes["partner_id"])
	assert.Equal(t, "3", event.PaymentNotes["count"])
	// Razorpay serializes empty notes as an array.
	assert.Nil(t, event.OrderNotes)
}

func TestParse_FailedPayment(t *testing.T) {
	adapter := NewAdapter(testSecret)
	body := []byte(`{
		"event": "payment.failed",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_FAIL",
					"amount": 5000,
					"currency": "INR",
					"error_code": "BAD_REQUEST_ERROR",
					"error_description": "Payment declined",
					"error_reason": "payment_declined"
				}
			}
		}
	}`)

	event, err := adapter.Parse(context.Background(), body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	assert.Equal(t, "pay_FAIL", event.PaymentID)
	assert.Equal(t, "payment_declined", event.ErrorReason)
	assert.Equal(t, "Payment declined", event.ErrorDescription)
}

func TestParse_Refund(t *testing.T) {
	adapter := NewAdapter(testSecret)
	body := []byte(`{
		"event": "refund.processed",
		"payload": {
			"refund": {
				"entity": {
					"id": "rfnd_1",
					"payment_id": "pay_R",
					"amount": 3000,
					"currency": "INR"
				}
			}
		}
	}`)

	event, err := adapter.Parse(context.Background(), body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	assert.Equal(t, "rfnd_1", event.RefundID)
	assert.Equal(t, "pay_R", event.PaymentID)
	assert.Equal(t, int64(3000), event.AmountMinor)
}

func TestParse_Invalid(t *testing.T) {
	adapter := NewAdapter(testSecret)

	_, err := adapter.Parse(context.Background(), []byte(`{not json`))
	assert.True(t, errors.Is(err, paymentdomain.ErrInvalidPayload))

	_, err = adapter.Parse(context.Background(), []byte(`{"payload":{}}`))
	assert.True(t, errors.Is(err, paymentdomain.ErrInvalidEvent))
}
