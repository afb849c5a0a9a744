package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finman/models"
)

func tx(categoryID uint, txType models.TransactionType, amount string, date time.Time) models.Transaction {
	return models.Transaction{CategoryID: categoryID, Type: txType, Amount: dec(amount), Date: date}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarize(t *testing.T) {
	txs := []models.Transaction{
		tx(1, models.TypeIncome, "100", day(2025, time.March, 5)),
		tx(2, models.TypeExpense, "40", day(2025, time.March, 9)),
	}
	s := Summarize(txs)
	assert.True(t, s.TotalIncome.Equal(dec("100")), "income %s", s.TotalIncome)
	assert.True(t, s.TotalExpense.Equal(dec("40")), "expense %s", s.TotalExpense)
	assert.True(t, s.NetSavings.Equal(dec("60")), "net %s", s.NetSavings)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.TotalIncome.IsZero())
	assert.True(t, s.TotalExpense.IsZero())
	assert.True(t, s.NetSavings.IsZero())
}

func TestSpendingByCategory(t *testing.T) {
	d := day(2025, time.March, 1)
	groups := SpendingByCategory([]models.Transaction{
		tx(1, models.TypeExpense, "30", d),
		tx(2, models.TypeExpense, "100", d),
		tx(1, models.TypeExpense, "20", d),
	})
	require.Len(t, groups, 2)

	// ordered by amount descending
	assert.Equal(t, uint(2), groups[0].CategoryID)
	assert.True(t, groups[0].Total.Equal(dec("100")))
	assert.Equal(t, 1, groups[0].Count)
	assert.True(t, groups[0].Percentage.Equal(dec("66.6667")), "got %s", groups[0].Percentage)

	assert.Equal(t, uint(1), groups[1].CategoryID)
	assert.True(t, groups[1].Total.Equal(dec("50")))
	assert.Equal(t, 2, groups[1].Count)
	assert.True(t, groups[1].Percentage.Equal(dec("33.3333")), "got %s", groups[1].Percentage)
}

func TestSpendingByCategoryPercentagesSumToHundred(t *testing.T) {
	d := day(2025, time.June, 15)
	groups := SpendingByCategory([]models.Transaction{
		tx(1, models.TypeExpense, "33.33", d),
		tx(2, models.TypeExpense, "33.33", d),
		tx(3, models.TypeExpense, "33.34", d),
	})
	sum := decimal.Zero
	for _, g := range groups {
		sum = sum.Add(g.Percentage)
	}
	diff := sum.Sub(dec("100")).Abs()
	assert.True(t, diff.LessThanOrEqual(dec("0.001")), "percentages sum to %s", sum)
}

func TestSpendingByCategoryZeroGrandTotal(t *testing.T) {
	assert.Empty(t, SpendingByCategory(nil))

	d := day(2025, time.June, 15)
	groups := SpendingByCategory([]models.Transaction{
		tx(1, models.TypeExpense, "0", d),
		tx(2, models.TypeExpense, "0", d),
	})
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.True(t, g.Percentage.IsZero(), "category %d: %s", g.CategoryID, g.Percentage)
	}
}

func TestSpendingByCategoryTieKeepsFirstSeenOrder(t *testing.T) {
	d := day(2025, time.June, 15)
	groups := SpendingByCategory([]models.Transaction{
		tx(7, models.TypeExpense, "10", d),
		tx(3, models.TypeExpense, "10", d),
	})
	require.Len(t, groups, 2)
	assert.Equal(t, uint(7), groups[0].CategoryID)
	assert.Equal(t, uint(3), groups[1].CategoryID)
}

func TestMonthlyTrends(t *testing.T) {
	now := day(2025, time.March, 15)
	txs := []models.Transaction{
		tx(1, models.TypeIncome, "100", day(2025, time.January, 10)),
		tx(1, models.TypeExpense, "30", day(2025, time.January, 20)),
		tx(1, models.TypeExpense, "5", day(2025, time.March, 1)),
		// outside the window, must not appear anywhere
		tx(1, models.TypeIncome, "999", day(2024, time.December, 31)),
	}
	trends := MonthlyTrends(txs, 3, now)
	require.Len(t, trends, 3)

	assert.Equal(t, 1, trends[0].Month)
	assert.Equal(t, 2025, trends[0].Year)
	assert.True(t, trends[0].Income.Equal(dec("100")))
	assert.True(t, trends[0].Expense.Equal(dec("30")))
	assert.True(t, trends[0].NetSavings.Equal(dec("70")))

	// February has no transactions
	assert.Equal(t, 2, trends[1].Month)
	assert.True(t, trends[1].Income.IsZero())
	assert.True(t, trends[1].Expense.IsZero())
	assert.True(t, trends[1].NetSavings.IsZero())

	assert.Equal(t, 3, trends[2].Month)
	assert.True(t, trends[2].Expense.Equal(dec("5")))
}

func TestMonthlyTrendsCrossesYearBoundary(t *testing.T) {
	now := day(2025, time.January, 31)
	trends := MonthlyTrends(nil, 2, now)
	require.Len(t, trends, 2)
	assert.Equal(t, 12, trends[0].Month)
	assert.Equal(t, 2024, trends[0].Year)
	assert.Equal(t, 1, trends[1].Month)
	assert.Equal(t, 2025, trends[1].Year)
}
