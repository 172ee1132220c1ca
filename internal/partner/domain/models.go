package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("partner_not_found")
	ErrInvalidID = errors.New("invalid_partner_id")
)

// Partner is the wallet-owning aggregate. WalletBalance is mutated only
// through the wallet ledger via the atomic increment in Repository.
type Partner struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	Name              string          `json:"name" gorm:"type:text;not null"`
	Phone             string          `json:"phone" gorm:"type:text"`
	WalletBalance     decimal.Decimal `json:"wallet_balance" gorm:"type:numeric(14,2);not null;default:0"`
	LastTransactionAt *time.Time      `json:"last_transaction_at"`
	WalletUpdatedAt   *time.Time      `json:"wallet_updated_at"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Partner) TableName() string { return "partners" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Partner, error)

	// AdjustBalance applies wallet_balance = wallet_balance + delta in a single
	// statement and stamps the wallet timestamps. Returns false when no partner
	// row matched.
	AdjustBalance(ctx context.Context, db *gorm.DB, id int64, delta decimal.Decimal, at time.Time) (bool, error)
}
