package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Credit applies a captured payment to the partner wallet exactly once.
	// Returns ErrAlreadyProcessed when the payment id was credited before and
	// ErrPartnerNotFound when no partner row matches.
	Credit(ctx context.Context, req CreditRequest) (*Transaction, error)

	// RecordFailure appends a zero-amount failed transaction for a rejected
	// payment. Never mutates a balance.
	RecordFailure(ctx context.Context, rec FailureRecord) error

	// RecordRefund appends a zero-amount informational row for a refund event.
	RecordRefund(ctx context.Context, rec RefundRecord) error

	Balance(ctx context.Context, partnerID int64) (decimal.Decimal, error)

	ListTransactions(ctx context.Context, partnerID int64, beforeID snowflake.ID, limit int) ([]*Transaction, error)
}
