package main

import (
	"errors"
	"time"

	"finman/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ownership-scoped lookups. Every mutation path goes through one of these so
// a record that exists but belongs to someone else reads as NotFound. Only
// gorm.ErrRecordNotFound maps to 404; storage faults bubble up as-is.

func findAccountForUser(tx *gorm.DB, user *models.User, id uint) (models.Account, error) {
	var account models.Account
	err := tx.Where("id = ? AND user_id = ?", id, user.ID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, errNotFound("Account", "id", id)
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// lockAccountForUser fetches the account row FOR UPDATE so concurrent
// balance writes against the same account serialize at the store.
func lockAccountForUser(tx *gorm.DB, user *models.User, id uint) (models.Account, error) {
	var account models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, errNotFound("Account", "id", id)
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// findCategoryForUser resolves a category visible to the caller: system
// categories or the caller's own.
func findCategoryForUser(tx *gorm.DB, user *models.User, id uint) (models.Category, error) {
	var category models.Category
	err := tx.Where("id = ? AND (is_system = TRUE OR user_id = ?)", id, user.ID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, errNotFound("Category", "id", id)
	}
	if err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// findActiveTransactionForUser resolves an active (non-deleted) transaction
// owned by the caller through its account. Soft-deleted rows read as
// NotFound, which also makes re-deleting a deleted transaction a no-op 404.
func findActiveTransactionForUser(tx *gorm.DB, user *models.User, id uint) (models.Transaction, error) {
	var trn models.Transaction
	err := tx.
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("transactions.id = ? AND accounts.user_id = ? AND transactions.deleted_at IS NULL", id, user.ID).
		Preload("Account").
		Preload("Category").
		First(&trn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, errNotFound("Transaction", "id", id)
	}
	if err != nil {
		return models.Transaction{}, err
	}
	return trn, nil
}

// activeTransactionsForUser returns the caller's active transactions with
// dates inside [start, end], optionally restricted to one type.
func activeTransactionsForUser(user *models.User, start, end time.Time, txType models.TransactionType) ([]models.Transaction, error) {
	q := db.
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ? AND transactions.deleted_at IS NULL", user.ID).
		Where("transactions.date BETWEEN ? AND ?", start, end)
	if txType != "" {
		q = q.Where("transactions.type = ?", txType)
	}
	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func accountHasActiveTransactions(id uint) (bool, error) {
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("account_id = ? AND deleted_at IS NULL", id).
		Count(&n).Error
	return n > 0, err
}

func categoryHasActiveTransactions(id uint) (bool, error) {
	var n int64
	err := db.Model(&models.Transaction{}).
		Where("category_id = ? AND deleted_at IS NULL", id).
		Count(&n).Error
	return n > 0, err
}
