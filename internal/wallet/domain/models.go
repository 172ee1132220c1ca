package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

const (
	ReferenceTypePayment       = "razorpay_payment"
	ReferenceTypePaymentFailed = "razorpay_payment_failed"
	ReferenceTypeRefund        = "razorpay_refund"
)

// Transaction is an append-only wallet ledger record. The unique index on
// (reference_id, reference_type) is the idempotency backstop against
// concurrent webhook redeliveries; the application-level pre-check is an
// optimization only.
type Transaction struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	PartnerID     int64             `json:"partner_id" gorm:"not null;index"`
	Type          TransactionType   `json:"type" gorm:"type:text;not null"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(14,2);not null"`
	BalanceBefore decimal.Decimal   `json:"balance_before" gorm:"type:numeric(14,2);not null"`
	BalanceAfter  decimal.Decimal   `json:"balance_after" gorm:"type:numeric(14,2);not null"`
	ReferenceID   string            `json:"reference_id" gorm:"type:text;not null;uniqueIndex:ux_wallet_tx_reference,priority:1"`
	ReferenceType string            `json:"reference_type" gorm:"type:text;not null;uniqueIndex:ux_wallet_tx_reference,priority:2"`
	Status        TransactionStatus `json:"status" gorm:"type:text;not null"`
	Metadata      string            `json:"metadata" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "wallet_transactions" }

// CreditRequest credits a captured payment to a partner wallet. AmountMinor is
// the gateway amount in minor currency units (paise).
type CreditRequest struct {
	PartnerID   int64
	PaymentID   string
	OrderID     string
	Method      string
	AmountMinor int64
	Currency    string
}

// FailureRecord captures a failed payment without touching any balance.
// PartnerID may be zero when the failure payload carries no correlation key.
type FailureRecord struct {
	PartnerID   int64
	PaymentID   string
	OrderID     string
	Method      string
	AmountMinor int64
	Currency    string
	Reason      string
	Description string
}

// RefundRecord is an informational ledger row for a gateway refund event.
// Balances are never reversed automatically; refunds are settled out-of-band.
type RefundRecord struct {
	RefundID    string
	PaymentID   string
	EventType   string
	AmountMinor int64
	Currency    string
}
