package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finman/models"
)

type accountResponse struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	Type      models.AccountType `json:"type"`
	Balance   decimal.Decimal    `json:"balance"`
	Currency  string             `json:"currency"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func accountToResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		Balance:   a.Balance,
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func listAccountsHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var accounts []models.Account
	if err := db.Where("user_id = ?", user.ID).Order("id").Find(&accounts).Error; err != nil {
		respondError(c, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountToResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func getAccountHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := findAccountForUser(db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountToResponse(account))
}

func createAccountHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name     string          `json:"name" binding:"required,max=255"`
		Type     string          `json:"type" binding:"required,oneof=CHECKING SAVINGS CREDIT CASH"`
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency" binding:"required,len=3"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	account := models.Account{
		UserID:   user.ID,
		Name:     req.Name,
		Type:     models.AccountType(req.Type),
		Balance:  req.Balance,
		Currency: strings.ToUpper(req.Currency),
	}
	if err := db.Create(&account).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountToResponse(account))
}

func updateAccountHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Name string `json:"name" binding:"required,max=255"`
		Type string `json:"type" binding:"required,oneof=CHECKING SAVINGS CREDIT CASH"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	account, err := findAccountForUser(db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	account.Name = req.Name
	account.Type = models.AccountType(req.Type)
	if err := db.Model(&account).Updates(map[string]any{"name": account.Name, "type": account.Type}).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountToResponse(account))
}

// deleteAccountHandler removes an account. Blocked while any active
// transaction still references it; soft-deleted transactions do not count.
func deleteAccountHandler(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := findAccountForUser(db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	hasTxs, err := accountHasActiveTransactions(account.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if hasTxs {
		respondError(c, errConflict("cannot delete account with existing transactions"))
		return
	}
	if err := db.Delete(&account).Error; err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
