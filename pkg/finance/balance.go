// Package finance holds the pure computation core: the account-balance
// adjustment rule, report aggregation and budget evaluation. Everything here
// operates on rows the caller already fetched; nothing touches storage.
package finance

import (
	"github.com/shopspring/decimal"

	"finman/models"
)

// Direction selects whether a transaction's effect is being applied to or
// reversed from an account balance.
type Direction int

const (
	Apply Direction = iota
	Reverse
)

// Adjust returns the new balance after applying or reversing one
// transaction's effect. Amounts are non-negative; the sign comes from the
// transaction type. Applying then reversing the same (amount, type) is the
// identity.
func Adjust(balance, amount decimal.Decimal, txType models.TransactionType, dir Direction) decimal.Decimal {
	add := txType == models.TypeIncome
	if dir == Reverse {
		add = !add
	}
	if add {
		return balance.Add(amount)
	}
	return balance.Sub(amount)
}
