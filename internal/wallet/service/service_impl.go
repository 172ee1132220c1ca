package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/servizo/walletd/internal/locker"
	"github.com/servizo/walletd/internal/metrics"
	partnerdomain "github.com/servizo/walletd/internal/partner/domain"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"github.com/servizo/walletd/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	partnerLockTTL      = 10 * time.Second
	partnerLockAttempts = 5
	partnerLockBackoff  = 50 * time.Millisecond
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	PartnerRepo partnerdomain.Repository
	WalletRepo  walletdomain.Repository
	Locker      locker.Locker
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	partnerRepo partnerdomain.Repository
	walletRepo  walletdomain.Repository
	locker      locker.Locker
	metrics     *metrics.Metrics
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("wallet.ledger"),
		genID:       p.GenID,
		partnerRepo: p.PartnerRepo,
		walletRepo:  p.WalletRepo,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

// Credit applies a captured payment exactly once. The balance update is a
// single atomic increment; the transaction row carries the before/after
// snapshots. A duplicate insert (concurrent redelivery that slipped past the
// pre-check) is compensated by reversing the increment, so the unique index
// on (reference_id, reference_type) is the final word on idempotency.
func (s *Service) Credit(ctx context.Context, req walletdomain.CreditRequest) (*walletdomain.Transaction, error) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	if req.PaymentID == "" {
		return nil, walletdomain.ErrInvalidReference
	}
	if req.PartnerID <= 0 {
		return nil, walletdomain.ErrPartnerNotFound
	}
	if req.AmountMinor <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	existing, err := s.walletRepo.FindByReference(ctx, s.db, req.PaymentID, walletdomain.ReferenceTypePayment)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == walletdomain.TransactionStatusCompleted {
		return existing, walletdomain.ErrAlreadyProcessed
	}

	lockKey := fmt.Sprintf("wallet:partner:%d", req.PartnerID)
	token, locked := s.acquireLock(ctx, lockKey)
	if locked {
		defer func() {
			_ = s.locker.Release(ctx, lockKey, token)
		}()
	} else {
		s.log.Warn("proceeding without partner lock",
			zap.Int64("partner_id", req.PartnerID),
			zap.String("payment_id", req.PaymentID),
		)
	}

	partner, err := s.partnerRepo.FindByID(ctx, s.db, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, walletdomain.ErrPartnerNotFound
	}

	amount := decimal.NewFromInt(req.AmountMinor).Shift(-2)
	balanceBefore := partner.WalletBalance
	balanceAfter := balanceBefore.Add(amount)
	now := time.Now().UTC()

	updated, err := s.partnerRepo.AdjustBalance(ctx, s.db, req.PartnerID, amount, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, walletdomain.ErrPartnerNotFound
	}

	tx := &walletdomain.Transaction{
		ID:            s.genID.Generate(),
		PartnerID:     req.PartnerID,
		Type:          walletdomain.TransactionTypeCredit,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ReferenceID:   req.PaymentID,
		ReferenceType: walletdomain.ReferenceTypePayment,
		Status:        walletdomain.TransactionStatusCompleted,
		Metadata: marshalMetadata(map[string]any{
			"method":       req.Method,
			"order_id":     req.OrderID,
			"currency":     strings.ToUpper(strings.TrimSpace(req.Currency)),
			"processed_at": now.Format(time.RFC3339),
			"source":       "razorpay_webhook",
		}),
		CreatedAt: now,
	}

	if err := s.walletRepo.Insert(ctx, s.db, tx); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race against a concurrent redelivery: reverse the
			// increment so the payment is counted once.
			if _, revErr := s.partnerRepo.AdjustBalance(ctx, s.db, req.PartnerID, amount.Neg(), now); revErr != nil {
				s.log.Error("failed to reverse duplicate credit",
					zap.Int64("partner_id", req.PartnerID),
					zap.String("payment_id", req.PaymentID),
					zap.Error(revErr),
				)
			}
			return nil, walletdomain.ErrAlreadyProcessed
		}

		// The money moved; a missing audit row is an operational problem, not
		// a reason to claw the credit back or fail the webhook.
		s.log.Error("wallet transaction insert failed after balance update",
			zap.Int64("partner_id", req.PartnerID),
			zap.String("payment_id", req.PaymentID),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		s.metrics.RecordResolutionFailure("audit_trail_gap")
		return tx, nil
	}

	s.metrics.RecordWalletCredit()
	s.log.Info("wallet credited",
		zap.Int64("partner_id", req.PartnerID),
		zap.String("payment_id", req.PaymentID),
		zap.String("amount", amount.String()),
		zap.String("balance_after", balanceAfter.String()),
	)
	return tx, nil
}

func (s *Service) RecordFailure(ctx context.Context, rec walletdomain.FailureRecord) error {
	rec.PaymentID = strings.TrimSpace(rec.PaymentID)
	if rec.PaymentID == "" {
		return walletdomain.ErrInvalidReference
	}

	balance := decimal.Zero
	if rec.PartnerID > 0 {
		partner, err := s.partnerRepo.FindByID(ctx, s.db, rec.PartnerID)
		if err != nil {
			return err
		}
		if partner != nil {
			balance = partner.WalletBalance
		}
	}

	now := time.Now().UTC()
	tx := &walletdomain.Transaction{
		ID:            s.genID.Generate(),
		PartnerID:     rec.PartnerID,
		Type:          walletdomain.TransactionTypeCredit,
		Amount:        decimal.Zero,
		BalanceBefore: balance,
		BalanceAfter:  balance,
		ReferenceID:   rec.PaymentID,
		ReferenceType: walletdomain.ReferenceTypePaymentFailed,
		Status:        walletdomain.TransactionStatusFailed,
		Metadata: marshalMetadata(map[string]any{
			"method":       rec.Method,
			"order_id":     rec.OrderID,
			"amount_minor": rec.AmountMinor,
			"currency":     strings.ToUpper(strings.TrimSpace(rec.Currency)),
			"reason":       rec.Reason,
			"description":  rec.Description,
			"processed_at": now.Format(time.RFC3339),
			"source":       "razorpay_webhook",
		}),
		CreatedAt: now,
	}

	if err := s.walletRepo.Insert(ctx, s.db, tx); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Debug("payment failure already recorded", zap.String("payment_id", rec.PaymentID))
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) RecordRefund(ctx context.Context, rec walletdomain.RefundRecord) error {
	referenceID := strings.TrimSpace(rec.RefundID)
	if referenceID == "" {
		referenceID = strings.TrimSpace(rec.PaymentID)
	}
	if referenceID == "" {
		return walletdomain.ErrInvalidReference
	}

	now := time.Now().UTC()
	tx := &walletdomain.Transaction{
		ID:            s.genID.Generate(),
		Type:          walletdomain.TransactionTypeCredit,
		Amount:        decimal.Zero,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.Zero,
		ReferenceID:   referenceID,
		ReferenceType: walletdomain.ReferenceTypeRefund,
		Status:        walletdomain.TransactionStatusCompleted,
		Metadata: marshalMetadata(map[string]any{
			"payment_id":   rec.PaymentID,
			"event":        rec.EventType,
			"amount_minor": rec.AmountMinor,
			"currency":     strings.ToUpper(strings.TrimSpace(rec.Currency)),
			"processed_at": now.Format(time.RFC3339),
			"source":       "razorpay_webhook",
		}),
		CreatedAt: now,
	}

	if err := s.walletRepo.Insert(ctx, s.db, tx); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Debug("refund already recorded", zap.String("refund_id", referenceID))
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, partnerID int64) (decimal.Decimal, error) {
	partner, err := s.partnerRepo.FindByID(ctx, s.db, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	if partner == nil {
		return decimal.Zero, walletdomain.ErrPartnerNotFound
	}
	return partner.WalletBalance, nil
}

func (s *Service) ListTransactions(ctx context.Context, partnerID int64, beforeID snowflake.ID, limit int) ([]*walletdomain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.walletRepo.ListByPartner(ctx, s.db, partnerID, beforeID, limit)
}

func (s *Service) acquireLock(ctx context.Context, key string) (string, bool) {
	for attempt := 0; attempt < partnerLockAttempts; attempt++ {
		token, ok, err := s.locker.TryLock(ctx, key, partnerLockTTL)
		if err != nil {
			s.log.Warn("partner lock attempt failed", zap.String("key", key), zap.Error(err))
			return "", false
		}
		if ok {
			return token, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(partnerLockBackoff):
		}
	}
	return "", false
}

func marshalMetadata(fields map[string]any) string {
	for key, value := range fields {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			delete(fields, key)
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
