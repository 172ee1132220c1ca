package repository

import (
	"context"
	"time"

	"github.com/servizo/walletd/internal/partner/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Partner, error) {
	var item domain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone, wallet_balance, last_transaction_at, wallet_updated_at, created_at
		 FROM partners
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) AdjustBalance(ctx context.Context, db *gorm.DB, id int64, delta decimal.Decimal, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE partners
		 SET wallet_balance = wallet_balance + ?,
		     last_transaction_at = ?,
		     wallet_updated_at = ?
		 WHERE id = ?`,
		delta,
		at,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
