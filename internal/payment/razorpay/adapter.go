package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Razorpay-Signature"

type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{webhookSecret: strings.TrimSpace(webhookSecret)}
}

// Verify checks the webhook signature against the raw body bytes. The
// comparison is constant-time; a missing header is distinguished from a
// mismatch so the caller can log them separately.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return paymentdomain.ErrInvalidSignature
	}

	signature := strings.TrimSpace(headers.Get(SignatureHeader))
	if signature == "" {
		return paymentdomain.ErrMissingSignature
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event webhookEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	eventType := strings.TrimSpace(event.Event)
	if eventType == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	out := &paymentdomain.PaymentEvent{
		EventType:  eventType,
		RawPayload: payload,
	}

	if payment := event.Payload.Payment; payment != nil {
		entity := payment.Entity
		out.PaymentID = strings.TrimSpace(entity.ID)
		out.OrderID = strings.TrimSpace(entity.OrderID)
		out.AmountMinor = entity.Amount
		out.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
		out.Method = strings.TrimSpace(entity.Method)
		out.PaymentNotes = entity.Notes
		out.ErrorCode = strings.TrimSpace(entity.ErrorCode)
		out.ErrorDescription = strings.TrimSpace(entity.ErrorDescription)
		out.ErrorReason = strings.TrimSpace(entity.ErrorReason)
	}

	if order := event.Payload.Order; order != nil {
		entity := order.Entity
		if out.OrderID == "" {
			out.OrderID = strings.TrimSpace(entity.ID)
		}
		if out.AmountMinor == 0 {
			out.AmountMinor = entity.Amount
		}
		if out.Currency == "" {
			out.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
		}
		out.OrderNotes = entity.Notes
	}

	if refund := event.Payload.Refund; refund != nil {
		entity := refund.Entity
		out.RefundID = strings.TrimSpace(entity.ID)
		if out.PaymentID == "" {
			out.PaymentID = strings.TrimSpace(entity.PaymentID)
		}
		if out.AmountMinor == 0 {
			out.AmountMinor = entity.Amount
		}
		if out.Currency == "" {
			out.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
		}
	}

	return out, nil
}

type webhookEnvelope struct {
	Event   string         `json:"event"`
	Payload webhookPayload `json:"payload"`
}

type webhookPayload struct {
	Payment *paymentWrapper `json:"payment"`
	Order   *orderWrapper   `json:"order"`
	Refund  *refundWrapper  `json:"refund"`
}

type paymentWrapper struct {
	Entity paymentEntity `json:"entity"`
}

type orderWrapper struct {
	Entity orderEntity `json:"entity"`
}

type refundWrapper struct {
	Entity refundEntity `json:"entity"`
}

type paymentEntity struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	Method           string     `json:"method"`
	Notes            notesField `json:"notes"`
	ErrorCode        string     `json:"error_code"`
	ErrorDescription string     `json:"error_description"`
	ErrorReason      string     `json:"error_reason"`
}

type orderEntity struct {
	ID       string     `json:"id"`
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Status   string     `json:"status"`
	Notes    notesField `json:"notes"`
}

type refundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// notesField tolerates the gateway's inconsistent notes serialization: an
// object of strings normally, [] when empty, and numeric values in the wild.
type notesField map[string]string

func (n *notesField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' || string(trimmed) == "null" {
		*n = nil
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		*n = nil
		return nil
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch cast := value.(type) {
		case string:
			out[key] = strings.TrimSpace(cast)
		case float64:
			out[key] = strconv.FormatInt(int64(cast), 10)
		case json.Number:
			out[key] = cast.String()
		case bool:
			out[key] = strconv.FormatBool(cast)
		}
	}
	if len(out) == 0 {
		*n = nil
		return nil
	}
	*n = out
	return nil
}
