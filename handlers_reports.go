package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finman/models"
	"finman/pkg/finance"
)

func summaryReportHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	month, err := queryInt(c, "month", 0)
	if err != nil || month < 1 || month > 12 {
		respondError(c, errValidation("month must be between 1 and 12"))
		return
	}
	year, err := queryInt(c, "year", 0)
	if err != nil || year < 1 {
		respondError(c, errValidation("year is required"))
		return
	}
	start, end := finance.MonthRange(year, month)
	txs, err := activeTransactionsForUser(user, start, end, "")
	if err != nil {
		respondError(c, err)
		return
	}
	s := finance.Summarize(txs)
	c.JSON(http.StatusOK, gin.H{
		"totalIncome":  s.TotalIncome,
		"totalExpense": s.TotalExpense,
		"netSavings":   s.NetSavings,
		"month":        month,
		"year":         year,
	})
}

func categorySpendingReportHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	start, err := time.Parse(dateLayout, c.Query("startDate"))
	if err != nil {
		respondError(c, errValidation("startDate must be formatted YYYY-MM-DD"))
		return
	}
	end, err := time.Parse(dateLayout, c.Query("endDate"))
	if err != nil {
		respondError(c, errValidation("endDate must be formatted YYYY-MM-DD"))
		return
	}
	txType := models.TransactionType(c.Query("type"))
	if txType != models.TypeIncome && txType != models.TypeExpense {
		respondError(c, errValidation("type must be INCOME or EXPENSE"))
		return
	}

	txs, err := activeTransactionsForUser(user, start, end, txType)
	if err != nil {
		respondError(c, err)
		return
	}
	groups := finance.SpendingByCategory(txs)

	categories, err := categoriesByID(groups)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(groups))
	for _, g := range groups {
		cat := categories[g.CategoryID]
		out = append(out, gin.H{
			"categoryId":       g.CategoryID,
			"categoryName":     cat.Name,
			"categoryIcon":     cat.Icon,
			"categoryColor":    cat.Color,
			"amount":           g.Total,
			"transactionCount": g.Count,
			"percentage":       g.Percentage,
		})
	}
	c.JSON(http.StatusOK, out)
}

func categoriesByID(groups []finance.CategorySpending) (map[uint]models.Category, error) {
	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.CategoryID)
	}
	byID := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	var categories []models.Category
	if err := db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return byID, nil
}

func trendsReportHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	months, err := queryInt(c, "months", 6)
	if err != nil || months < 1 || months > 120 {
		respondError(c, errValidation("months must be between 1 and 120"))
		return
	}
	now := time.Now()
	curStart, curEnd := finance.MonthRange(now.Year(), int(now.Month()))
	rangeStart := curStart.AddDate(0, -(months - 1), 0)

	txs, err := activeTransactionsForUser(user, rangeStart, curEnd, "")
	if err != nil {
		respondError(c, err)
		return
	}
	trends := finance.MonthlyTrends(txs, months, now)
	out := make([]gin.H, 0, len(trends))
	for _, tr := range trends {
		out = append(out, gin.H{
			"month":      tr.Month,
			"year":       tr.Year,
			"income":     tr.Income,
			"expense":    tr.Expense,
			"netSavings": tr.NetSavings,
		})
	}
	c.JSON(http.StatusOK, out)
}
