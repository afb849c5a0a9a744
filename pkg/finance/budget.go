package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"finman/models"
)

// MonthRange returns the first and last calendar day of the given month, in
// UTC at midnight.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// BudgetSpent sums active EXPENSE transactions in the budget's category
// whose date falls inside the budget's month. Transactions of other types,
// categories or periods never count.
func BudgetSpent(b models.Budget, txs []models.Transaction) decimal.Decimal {
	start, end := MonthRange(b.Year, b.Month)
	spent := decimal.Zero
	for _, t := range txs {
		if t.Type != models.TypeExpense || t.CategoryID != b.CategoryID {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		spent = spent.Add(t.Amount)
	}
	return spent
}

// BudgetRemaining is amount minus spent, clamped at zero. Overspend stays
// visible through spent alone.
func BudgetRemaining(amount, spent decimal.Decimal) decimal.Decimal {
	remaining := amount.Sub(spent)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
