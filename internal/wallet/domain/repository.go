package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByReference(ctx context.Context, db *gorm.DB, referenceID, referenceType string) (*Transaction, error)
	Insert(ctx context.Context, db *gorm.DB, tx *Transaction) error
	ListByPartner(ctx context.Context, db *gorm.DB, partnerID int64, beforeID snowflake.ID, limit int) ([]*Transaction, error)
}
