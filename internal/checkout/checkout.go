package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/servizo/walletd/internal/config"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured     = errors.New("checkout_not_configured")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidTxnID      = errors.New("invalid_merchant_txn_id")
	ErrInvalidCustomer   = errors.New("invalid_customer_field")
	ErrStaleTimestamp    = errors.New("stale_timestamp")
	ErrFutureTimestamp   = errors.New("future_timestamp")
	ErrSignatureMismatch = errors.New("callback_signature_mismatch")
)

// OrderRequest is the inbound payload for the order-creation flow. Amount is
// in major currency units; Timestamp is unix seconds as supplied by the
// client.
type OrderRequest struct {
	MerchantTxnID   string `json:"merchant_txn_id"`
	AmountMajor     int64  `json:"amount"`
	Currency        string `json:"currency"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerMobile  string `json:"customer_mobile"`
	CustomerAddress string `json:"customer_address"`
	Timestamp       int64  `json:"timestamp"`
}

// BuiltOrder is the fully signed request ready to hand to the gateway. All
// values are already string-cast exactly as they were signed.
type BuiltOrder struct {
	MerchantID      string `json:"merchant_id"`
	MerchantTxnID   string `json:"merchant_txn_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerMobile  string `json:"customer_mobile"`
	CustomerAddress string `json:"customer_address,omitempty"`
	Timestamp       string `json:"timestamp"`
	Signature       string `json:"signature"`
}

// CallbackParams are the fields the gateway posts back after checkout; the
// signature must cover them with the same algorithm used on the way out.
type CallbackParams struct {
	Amount            string `json:"amount"`
	MerchantTxnID     string `json:"merchant_txn_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	Signature         string `json:"signature"`
}

type Service struct {
	cfg config.CheckoutConfig
	log *zap.Logger
	now func() time.Time
}

func New(cfg config.Config, log *zap.Logger) *Service {
	return &Service{
		cfg: cfg.Checkout,
		log: log.Named("checkout"),
		now: time.Now,
	}
}

// BuildOrderRequest validates every field independently, then signs the
// request with the merchant secret.
func (s *Service) BuildOrderRequest(req OrderRequest) (*BuiltOrder, error) {
	if s.cfg.MerchantID == "" || s.cfg.MerchantSecret == "" {
		return nil, ErrNotConfigured
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	out := &BuiltOrder{
		MerchantID:      s.cfg.MerchantID,
		MerchantTxnID:   req.MerchantTxnID,
		Amount:          strconv.FormatInt(req.AmountMajor, 10),
		Currency:        req.Currency,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerMobile:  req.CustomerMobile,
		CustomerAddress: req.CustomerAddress,
		Timestamp:       strconv.FormatInt(req.Timestamp, 10),
	}
	out.Signature = signFields(map[string]string{
		fieldAmount:         out.Amount,
		fieldCurrency:       out.Currency,
		fieldCustomerEmail:  out.CustomerEmail,
		fieldCustomerMobile: out.CustomerMobile,
		fieldCustomerName:   out.CustomerName,
		fieldMerchantID:     out.MerchantID,
		fieldMerchantTxnID:  out.MerchantTxnID,
		fieldTimestamp:      out.Timestamp,
	}, requestSignatureFields, s.cfg.MerchantSecret)

	return out, nil
}

// VerifyCallback recomputes the callback signature and compares it in
// constant time. The timestamp window is enforced the same way as on the
// outbound side.
func (s *Service) VerifyCallback(p CallbackParams) error {
	if s.cfg.MerchantSecret == "" {
		return ErrNotConfigured
	}

	ts, err := strconv.ParseInt(p.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp", ErrInvalidCustomer)
	}
	if err := s.checkTimestamp(ts); err != nil {
		return err
	}

	expected := signFields(map[string]string{
		fieldAmount:            p.Amount,
		fieldMerchantTxnID:     p.MerchantTxnID,
		fieldProviderPaymentID: p.ProviderPaymentID,
		fieldStatus:            p.Status,
		fieldTimestamp:         p.Timestamp,
	}, callbackSignatureFields, s.cfg.MerchantSecret)

	if !equalConstantTime(p.Signature, expected) {
		s.log.Warn("callback signature mismatch",
			zap.String("merchant_txn_id", p.MerchantTxnID),
			zap.String("provider_payment_id", p.ProviderPaymentID),
		)
		return ErrSignatureMismatch
	}
	return nil
}

func (s *Service) checkTimestamp(ts int64) error {
	age := s.now().Unix() - ts
	if age > int64(s.cfg.MaxSkewSeconds) {
		return ErrStaleTimestamp
	}
	if -age > int64(s.cfg.FutureSkewAllow) {
		return ErrFutureTimestamp
	}
	return nil
}
