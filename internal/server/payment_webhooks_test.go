package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/servizo/walletd/internal/checkout"
	"github.com/servizo/walletd/internal/config"
	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type paymentSvcFake struct {
	err      error
	payloads [][]byte
}

func (p *paymentSvcFake) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

type walletSvcFake struct {
	balance    decimal.Decimal
	balanceErr error
}

func (w *walletSvcFake) Credit(ctx context.Context, req walletdomain.CreditRequest) (*walletdomain.Transaction, error) {
	return nil, nil
}
func (w *walletSvcFake) RecordFailure(ctx context.Context, rec walletdomain.FailureRecord) error {
	return nil
}
func (w *walletSvcFake) RecordRefund(ctx context.Context, rec walletdomain.RefundRecord) error {
	return nil
}
func (w *walletSvcFake) Balance(ctx context.Context, partnerID int64) (decimal.Decimal, error) {
	return w.balance, w.balanceErr
}
func (w *walletSvcFake) ListTransactions(ctx context.Context, partnerID int64, beforeID snowflake.ID, limit int) ([]*walletdomain.Transaction, error) {
	return nil, nil
}

func newTestServer(t *testing.T, paymentSvc paymentdomain.Service, walletSvc walletdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Checkout: config.CheckoutConfig{
			MerchantID:      "MERCH01",
			MerchantSecret:  "topsecret",
			MaxSkewSeconds:  300,
			FutureSkewAllow: 30,
			MinAmountMajor:  1,
			MaxAmountMajor:  1_000_000,
		},
	}
	log := zap.NewNop()

	return NewServer(ServerParams{
		Gin:         NewEngine(log),
		Cfg:         cfg,
		PaymentSvc:  paymentSvc,
		WalletSvc:   walletSvc,
		CheckoutSvc: checkout.New(cfg, log),
		Log:         log,
	})
}

func TestHandlePaymentWebhook_Success(t *testing.T) {
	paymentSvc := &paymentSvcFake{}
	srv := newTestServer(t, paymentSvc, &walletSvcFake{})

	body := []byte(`{"event":"payment.captured"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payment-webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	// The raw bytes must reach the service untouched.
	if assert.Len(t, paymentSvc.payloads, 1) {
		assert.Equal(t, body, paymentSvc.payloads[0])
	}
}

func TestHandlePaymentWebhook_SignatureErrorsReturn400(t *testing.T) {
	for _, svcErr := range []error{
		paymentdomain.ErrMissingSignature,
		paymentdomain.ErrInvalidSignature,
		paymentdomain.ErrInvalidPayload,
	} {
		srv := newTestServer(t, &paymentSvcFake{err: svcErr}, &walletSvcFake{})

		req := httptest.NewRequest(http.MethodPost, "/api/payment-webhook", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "err=%v", svcErr)

		var resp struct {
			Error struct {
				Type string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, "validation_error", resp.Error.Type)
	}
}

func TestGetPartnerWallet(t *testing.T) {
	srv := newTestServer(t, &paymentSvcFake{}, &walletSvcFake{
		balance: decimal.RequireFromString("150.50"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/partners/42/wallet", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PartnerID     int64           `json:"partner_id"`
		WalletBalance decimal.Decimal `json:"wallet_balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, int64(42), resp.PartnerID)
	assert.True(t, resp.WalletBalance.Equal(decimal.RequireFromString("150.50")))
}

func TestGetPartnerWallet_Errors(t *testing.T) {
	srv := newTestServer(t, &paymentSvcFake{}, &walletSvcFake{
		balanceErr: walletdomain.ErrPartnerNotFound,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/partners/42/wallet", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/partners/abc/wallet", nil)
	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitiateCheckout(t *testing.T) {
	srv := newTestServer(t, &paymentSvcFake{}, &walletSvcFake{})

	payload := map[string]any{
		"merchant_txn_id": "txn_001",
		"amount":          500,
		"currency":        "INR",
		"customer_name":   "Asha Verma",
		"customer_email":  "asha@example.com",
		"customer_mobile": "9876543210",
		"timestamp":       timeNowUnix(),
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/initiate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Order checkout.BuiltOrder `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "MERCH01", resp.Order.MerchantID)
	assert.Len(t, resp.Order.Signature, 64)
}

func TestInitiateCheckout_ValidationFailure(t *testing.T) {
	srv := newTestServer(t, &paymentSvcFake{}, &walletSvcFake{})

	payload := map[string]any{
		"merchant_txn_id": "txn 001",
		"amount":          500,
		"currency":        "INR",
		"customer_name":   "Asha Verma",
		"customer_email":  "asha@example.com",
		"customer_mobile": "9876543210",
		"timestamp":       timeNowUnix(),
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/initiate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func timeNowUnix() int64 {
	return time.Now().Unix()
}
