package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finman/models"
	"finman/pkg/finance"
)

type budgetResponse struct {
	ID           uint            `json:"id"`
	CategoryID   uint            `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// budgetToResponse evaluates one budget against the period's expense
// transactions. Remaining is clamped at zero.
func budgetToResponse(b models.Budget, periodTxs []models.Transaction) budgetResponse {
	spent := finance.BudgetSpent(b, periodTxs)
	return budgetResponse{
		ID:           b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: b.Category.Name,
		Amount:       b.Amount,
		Spent:        spent,
		Remaining:    finance.BudgetRemaining(b.Amount, spent),
		Month:        b.Month,
		Year:         b.Year,
		CreatedAt:    b.CreatedAt,
	}
}

func listBudgetsHandler(c *gin.Context) {
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
	var budgets []models.Budget
	err = db.Where("user_id = ? AND month = ? AND year = ?", user.ID, month, year).
		Preload("Category").
		Order("id").
		Find(&budgets).Error
	if err != nil {
		respondError(c, err)
		return
	}
	start, end := finance.MonthRange(year, month)
	periodTxs, err := activeTransactionsForUser(user, start, end, models.TypeExpense)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetToResponse(b, periodTxs))
	}
	c.JSON(http.StatusOK, out)
}

// upsertBudgetHandler creates a budget or overwrites the amount of the
// existing one for the same (category, month, year). The natural-key unique
// index plus ON CONFLICT keeps concurrent upserts from creating duplicates.
func upsertBudgetHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		CategoryID uint            `json:"categoryId" binding:"required"`
		Amount     decimal.Decimal `json:"amount"`
		Month      int             `json:"month" binding:"required,min=1,max=12"`
		Year       int             `json:"year" binding:"required,min=1970,max=2200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	if !req.Amount.IsPositive() {
		respondError(c, errValidation("amount must be positive"))
		return
	}
	category, err := findCategoryForUser(db, user, req.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}

	budget := models.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     req.Amount,
		Month:      req.Month,
		Year:       req.Year,
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "category_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     req.Amount,
			"updated_at": time.Now(),
		}),
	}).Omit("Category").Create(&budget).Error
	if err != nil {
		respondError(c, err)
		return
	}
	// re-read the canonical row; on conflict the in-memory id is not reliable
	err = db.Where("user_id = ? AND category_id = ? AND month = ? AND year = ?",
		user.ID, category.ID, req.Month, req.Year).
		First(&budget).Error
	if err != nil {
		respondError(c, err)
		return
	}
	budget.Category = category

	start, end := finance.MonthRange(req.Year, req.Month)
	periodTxs, err := activeTransactionsForUser(user, start, end, models.TypeExpense)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budgetToResponse(budget, periodTxs))
}

func deleteBudgetHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var budget models.Budget
	err = db.Where("id = ? AND user_id = ?", id, user.ID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, errNotFound("Budget", "id", id))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if err := db.Delete(&budget).Error; err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
