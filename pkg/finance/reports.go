package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finman/models"
)

var hundred = decimal.NewFromInt(100)

// Summary holds income and expense totals for one reporting period.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetSavings   decimal.Decimal
}

// Summarize sums the given active transactions by type. Net savings is
// income minus expense.
func Summarize(txs []models.Transaction) Summary {
	s := Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case models.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case models.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
	}
	s.NetSavings = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// CategorySpending is one category's share of a spending breakdown.
type CategorySpending struct {
	CategoryID uint
	Total      decimal.Decimal
	Count      int
	Percentage decimal.Decimal
}

// SpendingByCategory groups transactions by category and computes each
// group's total, count and share of the grand total. Percentages are rounded
// half-up to 4 decimal places; when the grand total is zero every percentage
// is zero. The result is ordered by total descending, ties keeping
// first-seen order.
func SpendingByCategory(txs []models.Transaction) []CategorySpending {
	var (
		order  []uint
		groups = map[uint]*CategorySpending{}
		grand  = decimal.Zero
	)
	for _, t := range txs {
		g, ok := groups[t.CategoryID]
		if !ok {
			g = &CategorySpending{CategoryID: t.CategoryID, Total: decimal.Zero, Percentage: decimal.Zero}
			groups[t.CategoryID] = g
			order = append(order, t.CategoryID)
		}
		g.Total = g.Total.Add(t.Amount)
		g.Count++
		grand = grand.Add(t.Amount)
	}
	out := make([]CategorySpending, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if grand.IsPositive() {
			g.Percentage = g.Total.Mul(hundred).DivRound(grand, 4)
		}
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// MonthlyTrend is one month's summary inside a trend report.
type MonthlyTrend struct {
	Month      int
	Year       int
	Income     decimal.Decimal
	Expense    decimal.Decimal
	NetSavings decimal.Decimal
}

// MonthlyTrends computes independent per-month summaries for the n calendar
// months ending at now's month, oldest first. Months without transactions
// report zeros; there is no carry-over between months.
func MonthlyTrends(txs []models.Transaction, months int, now time.Time) []MonthlyTrend {
	type key struct{ year, month int }
	sums := map[key]Summary{}
	for _, t := range txs {
		k := key{t.Date.Year(), int(t.Date.Month())}
		s, ok := sums[k]
		if !ok {
			s = Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
		}
		switch t.Type {
		case models.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case models.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
		sums[k] = s
	}

	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trends := make([]MonthlyTrend, 0, months)
	for i := months - 1; i >= 0; i-- {
		target := current.AddDate(0, -i, 0)
		k := key{target.Year(), int(target.Month())}
		s, ok := sums[k]
		if !ok {
			s = Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
		}
		trends = append(trends, MonthlyTrend{
			Month:      k.month,
			Year:       k.year,
			Income:     s.TotalIncome,
			Expense:    s.TotalExpense,
			NetSavings: s.TotalIncome.Sub(s.TotalExpense),
		})
	}
	return trends
}
