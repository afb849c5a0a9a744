package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType carries the sign of a transaction; amounts themselves are
// always non-negative.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Transaction is an income or expense entry on an account. A non-nil
// DeletedAt marks a soft-deleted row; every query excludes those explicitly
// (deleted_at IS NULL), and a deleted transaction is never resurrected.
type Transaction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time      `gorm:"index"`
	AccountID   uint            `gorm:"index;not null"`
	Account     Account         `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CategoryID  uint            `gorm:"index;not null"`
	Category    Category        `gorm:"foreignKey:CategoryID"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Type        TransactionType `gorm:"size:16;not null"`
	Description string          `gorm:"size:512"`
	Date        time.Time       `gorm:"type:date;not null;index"` // calendar date, no time component
}
