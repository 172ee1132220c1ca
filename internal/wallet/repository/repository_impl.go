package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/servizo/walletd/internal/wallet/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, referenceID, referenceType string) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, partner_id, type, amount, balance_before, balance_after,
			reference_id, reference_type, status, metadata, created_at
		 FROM wallet_transactions
		 WHERE reference_id = ? AND reference_type = ?
		 LIMIT 1`,
		referenceID,
		referenceType,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO wallet_transactions (
			id, partner_id, type, amount, balance_before, balance_after,
			reference_id, reference_type, status, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.PartnerID,
		string(tx.Type),
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.ReferenceID,
		tx.ReferenceType,
		string(tx.Status),
		tx.Metadata,
		tx.CreatedAt,
	).Error
}

func (r *repo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID int64, beforeID snowflake.ID, limit int) ([]*domain.Transaction, error) {
	query := `SELECT id, partner_id, type, amount, balance_before, balance_after,
			reference_id, reference_type, status, metadata, created_at
		 FROM wallet_transactions
		 WHERE partner_id = ?`
	args := []any{partnerID}
	if beforeID != 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var items []*domain.Transaction
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
