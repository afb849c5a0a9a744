package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finman/models"
	"finman/pkg/finance"
)

const dateLayout = "2006-01-02"

type transactionResponse struct {
	ID              uint                   `json:"id"`
	AccountID       uint                   `json:"accountId"`
	AccountName     string                 `json:"accountName"`
	CategoryID      uint                   `json:"categoryId"`
	CategoryName    string                 `json:"categoryName"`
	Amount          decimal.Decimal        `json:"amount"`
	Type            models.TransactionType `json:"type"`
	Description     string                 `json:"description"`
	TransactionDate string                 `json:"transactionDate"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func transactionToResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		AccountID:       t.AccountID,
		AccountName:     t.Account.Name,
		CategoryID:      t.CategoryID,
		CategoryName:    t.Category.Name,
		Amount:          t.Amount,
		Type:            t.Type,
		Description:     t.Description,
		TransactionDate: t.Date.Format(dateLayout),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type createTransactionRequest struct {
	AccountID       uint            `json:"accountId" binding:"required"`
	CategoryID      uint            `json:"categoryId" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Description     string          `json:"description" binding:"max=512"`
	TransactionDate string          `json:"transactionDate" binding:"required"`
}

// updateTransactionRequest has no accountId: a transaction never moves to a
// different account.
type updateTransactionRequest struct {
	CategoryID      uint            `json:"categoryId" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Description     string          `json:"description" binding:"max=512"`
	TransactionDate string          `json:"transactionDate" binding:"required"`
}

func validateTransactionFields(amount decimal.Decimal, transactionDate string) (time.Time, error) {
	if !amount.IsPositive() {
		return time.Time{}, errValidation("amount must be positive")
	}
	date, err := time.Parse(dateLayout, transactionDate)
	if err != nil {
		return time.Time{}, errValidation("transactionDate must be formatted YYYY-MM-DD")
	}
	return date, nil
}

// createTransactionHandler persists a new active transaction and applies its
// effect to the account balance. Row write and balance write commit together
// or not at all; the account row is locked for the duration.
func createTransactionHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := validateTransactionFields(req.Amount, req.TransactionDate)
	if err != nil {
		respondError(c, err)
		return
	}

	var created models.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		account, err := lockAccountForUser(tx, user, req.AccountID)
		if err != nil {
			return err
		}
		category, err := findCategoryForUser(tx, user, req.CategoryID)
		if err != nil {
			return err
		}
		created = models.Transaction{
			AccountID:   account.ID,
			CategoryID:  category.ID,
			Amount:      req.Amount,
			Type:        models.TransactionType(req.Type),
			Description: req.Description,
			Date:        date,
		}
		if err := tx.Omit("Account", "Category").Create(&created).Error; err != nil {
			return err
		}
		newBalance := finance.Adjust(account.Balance, created.Amount, created.Type, finance.Apply)
		if err := tx.Model(&account).Update("balance", newBalance).Error; err != nil {
			return err
		}
		account.Balance = newBalance
		created.Account = account
		created.Category = category
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transactionToResponse(created))
}

// updateTransactionHandler edits an active transaction. The old effect is
// reversed and the new one applied as a single net balance write, so no
// intermediate balance is ever visible.
func updateTransactionHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	date, err := validateTransactionFields(req.Amount, req.TransactionDate)
	if err != nil {
		respondError(c, err)
		return
	}

	var updated models.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		trn, err := findActiveTransactionForUser(tx, user, id)
		if err != nil {
			return err
		}
		// the owning account never changes on update
		account, err := lockAccountForUser(tx, user, trn.AccountID)
		if err != nil {
			return err
		}
		// re-read under the account lock: a concurrent edit or delete of the
		// same transaction commits its balance write before releasing the
		// lock, so the first read may be stale
		trn, err = findActiveTransactionForUser(tx, user, id)
		if err != nil {
			return err
		}
		category, err := findCategoryForUser(tx, user, req.CategoryID)
		if err != nil {
			return err
		}

		balance := finance.Adjust(account.Balance, trn.Amount, trn.Type, finance.Reverse)
		balance = finance.Adjust(balance, req.Amount, models.TransactionType(req.Type), finance.Apply)

		trn.CategoryID = category.ID
		trn.Amount = req.Amount
		trn.Type = models.TransactionType(req.Type)
		trn.Description = req.Description
		trn.Date = date
		if err := tx.Omit("Account", "Category").Save(&trn).Error; err != nil {
			return err
		}
		if err := tx.Model(&account).Update("balance", balance).Error; err != nil {
			return err
		}
		account.Balance = balance
		trn.Account = account
		trn.Category = category
		updated = trn
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(updated))
}

// deleteTransactionHandler soft-deletes a transaction and reverses its
// effect on the account exactly once. A second delete finds nothing.
func deleteTransactionHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		trn, err := findActiveTransactionForUser(tx, user, id)
		if err != nil {
			return err
		}
		account, err := lockAccountForUser(tx, user, trn.AccountID)
		if err != nil {
			return err
		}
		// re-read under the account lock so the reversed amount is the
		// committed one, not a stale pre-lock read
		trn, err = findActiveTransactionForUser(tx, user, id)
		if err != nil {
			return err
		}
		now := time.Now()
		// guarded write: only an active row flips to deleted, so a racing
		// delete that lost the lock reverses nothing
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND deleted_at IS NULL", trn.ID).
			Update("deleted_at", &now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound("Transaction", "id", trn.ID)
		}
		newBalance := finance.Adjust(account.Balance, trn.Amount, trn.Type, finance.Reverse)
		return tx.Model(&account).Update("balance", newBalance).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func getTransactionHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	trn, err := findActiveTransactionForUser(db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(trn))
}

// listTransactionsHandler returns the caller's active transactions, newest
// first, with optional filters and offset pagination.
func listTransactionsHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := queryInt(c, "page", 0)
	if err != nil || page < 0 {
		respondError(c, errValidation("page must be a non-negative integer"))
		return
	}
	size, err := queryInt(c, "size", 20)
	if err != nil || size < 1 || size > 100 {
		respondError(c, errValidation("size must be between 1 and 100"))
		return
	}

	filters, err := transactionFilters(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	var total int64
	if err := filters(db.Model(&models.Transaction{})).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var txs []models.Transaction
	err = filters(db.Model(&models.Transaction{})).
		Preload("Account").
		Preload("Category").
		Order("transactions.date DESC, transactions.id DESC").
		Limit(size).
		Offset(page * size).
		Find(&txs).Error
	if err != nil {
		respondError(c, err)
		return
	}

	content := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		content = append(content, transactionToResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{
		"content":       content,
		"page":          page,
		"size":          size,
		"totalElements": total,
		"totalPages":    (total + int64(size) - 1) / int64(size),
	})
}

// transactionFilters builds the WHERE clause shared by the count and page
// queries of the transaction listing.
func transactionFilters(c *gin.Context, user *models.User) (func(*gorm.DB) *gorm.DB, error) {
	type filter struct {
		cond string
		arg  any
	}
	conds := []filter{}
	if v := c.Query("accountId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errValidation("accountId must be an integer")
		}
		conds = append(conds, filter{"transactions.account_id = ?", id})
	}
	if v := c.Query("categoryId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errValidation("categoryId must be an integer")
		}
		conds = append(conds, filter{"transactions.category_id = ?", id})
	}
	if v := c.Query("type"); v != "" {
		if v != string(models.TypeIncome) && v != string(models.TypeExpense) {
			return nil, errValidation("type must be INCOME or EXPENSE")
		}
		conds = append(conds, filter{"transactions.type = ?", v})
	}
	if v := c.Query("startDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, errValidation("startDate must be formatted YYYY-MM-DD")
		}
		conds = append(conds, filter{"transactions.date >= ?", d})
	}
	if v := c.Query("endDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, errValidation("endDate must be formatted YYYY-MM-DD")
		}
		conds = append(conds, filter{"transactions.date <= ?", d})
	}
	return func(q *gorm.DB) *gorm.DB {
		q = q.
			Joins("JOIN accounts ON accounts.id = transactions.account_id").
			Where("accounts.user_id = ? AND transactions.deleted_at IS NULL", user.ID)
		for _, f := range conds {
			q = q.Where(f.cond, f.arg)
		}
		return q
	}, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
