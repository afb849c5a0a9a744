package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountSavings  AccountType = "SAVINGS"
	AccountCredit   AccountType = "CREDIT"
	AccountCash     AccountType = "CASH"
)

// Account holds a running balance. Invariant: balance equals the initial
// balance plus the signed effect of every active transaction on the account,
// maintained exclusively by the transaction lifecycle.
type Account struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"index;not null"`
	Name      string          `gorm:"size:255;not null"`
	Type      AccountType     `gorm:"size:32;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Currency  string          `gorm:"size:3;not null"` // ISO 4217 code
}
