package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewBuffer(b)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("integration-test-secret")
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

// registerAndLogin creates a fresh user and returns its access token.
func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	body := map[string]string{"name": "Integration Tester", "email": email, "password": "secret1"}
	resp := performRequest(r, http.MethodPost, "/auth/register", jsonBody(t, body), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var reg struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &reg)
	if reg.Token == "" {
		t.Fatalf("empty token in register response: %s", resp.Body.String())
	}
	return reg.Token
}

func accountBalance(t *testing.T, r *gin.Engine, token string, id uint) decimal.Decimal {
	t.Helper()
	resp := performRequest(r, http.MethodGet, fmt.Sprintf("/accounts/%d", id), nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("get account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		Balance decimal.Decimal `json:"balance"`
	}
	decodeJSON(t, resp, &acc)
	return acc.Balance
}

// expenseCategoryID picks a seeded system EXPENSE category.
func expenseCategoryID(t *testing.T, r *gin.Engine, token string) uint {
	t.Helper()
	resp := performRequest(r, http.MethodGet, "/categories", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("list categories failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var cats []struct {
		ID   uint   `json:"id"`
		Type string `json:"type"`
	}
	decodeJSON(t, resp, &cats)
	for _, cat := range cats {
		if cat.Type == "EXPENSE" {
			return cat.ID
		}
	}
	t.Fatal("no system EXPENSE category seeded")
	return 0
}

// Full transaction lifecycle against one account: create an expense of 50 on
// a zero balance, edit it to 30, delete it, and watch the balance pass
// through -50, -30 and back to 0.
func TestTransactionLifecycleBalances(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r)
	catID := expenseCategoryID(t, r, token)

	resp := performRequest(r, http.MethodPost, "/accounts", jsonBody(t, map[string]any{
		"name": "Checking", "type": "CHECKING", "balance": "0", "currency": "USD",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &acc)

	txBody := map[string]any{
		"accountId": acc.ID, "categoryId": catID, "amount": "50",
		"type": "EXPENSE", "description": "groceries", "transactionDate": "2025-03-10",
	}
	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, txBody), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var trn struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &trn)

	if b := accountBalance(t, r, token, acc.ID); !b.Equal(decimal.RequireFromString("-50")) {
		t.Fatalf("balance after create = %s, want -50", b)
	}

	// account can not be deleted while the transaction is active
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/accounts/%d", acc.ID), nil, token)
	if resp.Code != http.StatusConflict {
		t.Fatalf("delete account with transactions status=%d, want 409", resp.Code)
	}

	txBody["amount"] = "30"
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/transactions/%d", trn.ID), jsonBody(t, txBody), token)
	if resp.Code != http.StatusOK {
		t.Fatalf("update transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if b := accountBalance(t, r, token, acc.ID); !b.Equal(decimal.RequireFromString("-30")) {
		t.Fatalf("balance after update = %s, want -30", b)
	}

	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/transactions/%d", trn.ID), nil, token)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if b := accountBalance(t, r, token, acc.ID); !b.IsZero() {
		t.Fatalf("balance after delete = %s, want 0", b)
	}

	// deleting again must 404: the row is soft-deleted and invisible
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/transactions/%d", trn.ID), nil, token)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("re-delete transaction status=%d, want 404", resp.Code)
	}

	// with no active transactions left the account delete goes through
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/accounts/%d", acc.ID), nil, token)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete empty account status=%d body=%s", resp.Code, resp.Body.String())
	}
}

// Two racing deletes of the same transaction: exactly one may reverse the
// amount, the other must 404, and the balance ends where it started.
func TestConcurrentDeleteReversesOnce(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r)
	catID := expenseCategoryID(t, r, token)

	resp := performRequest(r, http.MethodPost, "/accounts", jsonBody(t, map[string]any{
		"name": "Racer", "type": "CHECKING", "balance": "0", "currency": "USD",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &acc)

	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"accountId": acc.ID, "categoryId": catID, "amount": "50",
		"type": "EXPENSE", "transactionDate": "2025-05-01",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var trn struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &trn)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := performRequest(r, http.MethodDelete, fmt.Sprintf("/transactions/%d", trn.ID), nil, token)
			codes <- resp.Code
		}()
	}
	wg.Wait()
	close(codes)

	var deleted, missed int
	for code := range codes {
		switch code {
		case http.StatusNoContent:
			deleted++
		case http.StatusNotFound:
			missed++
		default:
			t.Fatalf("unexpected delete status %d", code)
		}
	}
	if deleted != 1 || missed != 1 {
		t.Fatalf("got %d deletions and %d 404s, want exactly one of each", deleted, missed)
	}
	if b := accountBalance(t, r, token, acc.ID); !b.IsZero() {
		t.Fatalf("balance after racing deletes = %s, want 0", b)
	}
}

// A category with an active transaction refuses deletion; once the
// transaction is soft-deleted the category goes.
func TestCategoryDeleteBlockedByActiveTransactions(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r)

	// system categories are never deletable, so use a user-owned one
	resp := performRequest(r, http.MethodPost, "/categories", jsonBody(t, map[string]any{
		"name": "Coffee", "type": "EXPENSE", "icon": "coffee", "color": "#795548",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create category failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var cat struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &cat)

	resp = performRequest(r, http.MethodPost, "/accounts", jsonBody(t, map[string]any{
		"name": "Cash", "type": "CASH", "balance": "100", "currency": "USD",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &acc)

	resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, map[string]any{
		"accountId": acc.ID, "categoryId": cat.ID, "amount": "4.50",
		"type": "EXPENSE", "transactionDate": "2025-04-02",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var trn struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &trn)

	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/categories/%d", cat.ID), nil, token)
	if resp.Code != http.StatusConflict {
		t.Fatalf("delete category with transactions status=%d, want 409", resp.Code)
	}

	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/transactions/%d", trn.ID), nil, token)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// the soft-deleted transaction no longer blocks the category
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/categories/%d", cat.ID), nil, token)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete category after soft-delete status=%d body=%s", resp.Code, resp.Body.String())
	}
}

// Refresh rotation: the presented token is revoked and replaced in one step,
// the old token stops working and the new one keeps working until logout.
func TestRefreshRotation(t *testing.T) {
	r := setupTestServer(t)

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	resp := performRequest(r, http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"name": "Rotator", "email": email, "password": "secret1",
	}), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var first struct {
		RefreshToken string `json:"refreshToken"`
	}
	decodeJSON(t, resp, &first)

	resp = performRequest(r, http.MethodPost, "/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": first.RefreshToken,
	}), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("refresh failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var second struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeJSON(t, resp, &second)
	if second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh did not rotate the token")
	}
	if second.Token == "" {
		t.Fatal("refresh returned no access token")
	}

	// the revoked token can not be exchanged again
	resp = performRequest(r, http.MethodPost, "/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": first.RefreshToken,
	}), "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token status=%d, want 401", resp.Code)
	}

	resp = performRequest(r, http.MethodPost, "/auth/logout", jsonBody(t, map[string]string{
		"refreshToken": second.RefreshToken,
	}), "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("logout failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": second.RefreshToken,
	}), "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status=%d, want 401", resp.Code)
	}
}

func TestBudgetAndReports(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r)
	catID := expenseCategoryID(t, r, token)

	resp := performRequest(r, http.MethodPost, "/accounts", jsonBody(t, map[string]any{
		"name": "Wallet", "type": "CASH", "balance": "500", "currency": "USD",
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &acc)

	// one income and two expenses in June 2025
	entries := []map[string]any{
		{"accountId": acc.ID, "categoryId": catID, "amount": "180", "type": "EXPENSE", "transactionDate": "2025-06-05"},
		{"accountId": acc.ID, "categoryId": catID, "amount": "70", "type": "EXPENSE", "transactionDate": "2025-06-20"},
		{"accountId": acc.ID, "categoryId": catID, "amount": "100", "type": "INCOME", "transactionDate": "2025-06-11"},
	}
	for _, e := range entries {
		resp = performRequest(r, http.MethodPost, "/transactions", jsonBody(t, e), token)
		if resp.Code != http.StatusCreated {
			t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
		}
	}

	resp = performRequest(r, http.MethodGet, "/reports/summary?month=6&year=2025", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("summary failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var summary struct {
		TotalIncome  decimal.Decimal `json:"totalIncome"`
		TotalExpense decimal.Decimal `json:"totalExpense"`
		NetSavings   decimal.Decimal `json:"netSavings"`
	}
	decodeJSON(t, resp, &summary)
	if !summary.TotalIncome.Equal(decimal.RequireFromString("100")) ||
		!summary.TotalExpense.Equal(decimal.RequireFromString("250")) ||
		!summary.NetSavings.Equal(decimal.RequireFromString("-150")) {
		t.Fatalf("summary = %+v", summary)
	}

	// budget of 200 against 250 spent: remaining clamps to zero
	resp = performRequest(r, http.MethodPost, "/budgets", jsonBody(t, map[string]any{
		"categoryId": catID, "amount": "200", "month": 6, "year": 2025,
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upsert budget failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var budget struct {
		ID        uint            `json:"id"`
		Spent     decimal.Decimal `json:"spent"`
		Remaining decimal.Decimal `json:"remaining"`
	}
	decodeJSON(t, resp, &budget)
	if !budget.Spent.Equal(decimal.RequireFromString("250")) || !budget.Remaining.IsZero() {
		t.Fatalf("budget spent=%s remaining=%s, want 250/0", budget.Spent, budget.Remaining)
	}

	// upserting the same natural key overwrites, it never duplicates
	resp = performRequest(r, http.MethodPost, "/budgets", jsonBody(t, map[string]any{
		"categoryId": catID, "amount": "300", "month": 6, "year": 2025,
	}), token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("second upsert failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var second struct {
		ID        uint            `json:"id"`
		Amount    decimal.Decimal `json:"amount"`
		Remaining decimal.Decimal `json:"remaining"`
	}
	decodeJSON(t, resp, &second)
	if second.ID != budget.ID {
		t.Fatalf("upsert created a new row: id %d -> %d", budget.ID, second.ID)
	}
	if !second.Amount.Equal(decimal.RequireFromString("300")) || !second.Remaining.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("after overwrite amount=%s remaining=%s", second.Amount, second.Remaining)
	}

	resp = performRequest(r, http.MethodGet, "/budgets?month=6&year=2025", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("list budgets failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, "/reports/by-category?startDate=2025-06-01&endDate=2025-06-30&type=EXPENSE", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("by-category failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var spending []struct {
		Amount     decimal.Decimal `json:"amount"`
		Percentage decimal.Decimal `json:"percentage"`
	}
	decodeJSON(t, resp, &spending)
	if len(spending) != 1 || !spending[0].Amount.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("by-category = %s", resp.Body.String())
	}
	if !spending[0].Percentage.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("single category percentage = %s, want 100", spending[0].Percentage)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	r := setupTestServer(t)
	tokenA := registerAndLogin(t, r)
	tokenB := registerAndLogin(t, r)

	resp := performRequest(r, http.MethodPost, "/accounts", jsonBody(t, map[string]any{
		"name": "Private", "type": "SAVINGS", "balance": "10", "currency": "EUR",
	}), tokenA)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var acc struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &acc)

	// another caller sees 404, not 403: existence is not revealed
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/accounts/%d", acc.ID), nil, tokenB)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("cross-user account read status=%d, want 404", resp.Code)
	}

	// unauthenticated requests are rejected outright
	resp = performRequest(r, http.MethodGet, "/accounts", nil, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status=%d, want 401", resp.Code)
	}
}
