//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/config"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/infra"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/model"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Suite setup ──────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("puntoventa_test"),
		tcPostgres.WithUsername("puntoventa"),
		tcPostgres.WithPassword("puntoventa"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		ReceiptStoragePath: t.TempDir(),
		BusinessName:       "Tienda E2E",
	}

	// NewDatabase runs migrations and schema patches.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed tenant + admin.
	company := model.Company{Name: "Empresa E2E"}
	require.NoError(t, db.Create(&company).Error)
	branch := model.Branch{CompanyID: company.ID, Name: "Sucursal E2E"}
	require.NoError(t, db.Create(&branch).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("puntoventa2026"), 12)
	require.NoError(t, err)
	admin := model.User{
		CompanyID:    company.ID,
		BranchID:     branch.ID,
		Username:     "admin@e2e.test",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
	}
	require.NoError(t, db.Create(&admin).Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "puntoventa2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func (env *testEnv) createProduct(t *testing.T, barcode, description string, price float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"barcode":        barcode,
			"description":    description,
			"purchase_price": price / 2,
			"sale_price":     price,
			"initial_stock":  stock,
			"min_stock":      1,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

func (env *testEnv) openCashbox(t *testing.T, amount float64) {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/cashbox/open",
		jsonBody(t, map[string]any{"opening_amount": amount}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full cycle: product → open cashbox → sale → list → blind-count close.
func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)

	env.createProduct(t, "7890001000001", "Gaseosa 500ml", 2.50, 20)
	env.openCashbox(t, 100)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"items":    []map[string]any{{"barcode": "7890001000001", "quantity": 3, "unit_price": 2.50}},
			"payments": []map[string]any{{"method": "cash", "amount": 7.50}},
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID     string `json:"id"`
		Total  string `json:"total"`
		Status string `json:"status"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, "7.5", sale.Total)

	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(1), list.Total)

	// Blind count matching the expected drawer: 100 opening + 7.50 cash.
	closeResp := do(t, env.server, "POST", "/v1/cashbox/close",
		jsonBody(t, map[string]any{
			"counted": map[string]any{"cash": 107.50},
		}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Variance struct {
			Class string `json:"class"`
		} `json:"variance"`
		Status string `json:"status"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "normal", closed.Variance.Class)
	assert.Equal(t, "closed", closed.Status)
}

// A second open on the same branch trips the partial unique index.
func TestE2E_SingleOpenSessionPerBranch(t *testing.T) {
	env := setupTestEnv(t)
	env.openCashbox(t, 50)

	resp := do(t, env.server, "POST", "/v1/cashbox/open",
		jsonBody(t, map[string]any{"opening_amount": 80}), env.token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// Selling past the stock balance is rejected by the guarded decrement.
func TestE2E_InsufficientStockRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.createProduct(t, "7890001000002", "Agua Mineral", 1.00, 2)
	env.openCashbox(t, 50)

	resp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"items":    []map[string]any{{"barcode": "7890001000002", "quantity": 5, "unit_price": 1.00}},
			"payments": []map[string]any{{"method": "cash", "amount": 5.00}},
		}), env.token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// Voiding a sale restores stock through an offsetting ledger movement.
func TestE2E_VoidSaleRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.createProduct(t, "7890001000003", "Leche 1L", 2.00, 10)
	env.openCashbox(t, 100)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"items":    []map[string]any{{"barcode": "7890001000003", "quantity": 3, "unit_price": 2.00}},
			"payments": []map[string]any{{"method": "cash", "amount": 6.00}},
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)

	voidResp := do(t, env.server, "DELETE", "/v1/sales/"+sale.ID,
		jsonBody(t, map[string]any{"reason": "devolución del cliente"}), env.token)
	voidResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, voidResp.StatusCode)

	prodResp := do(t, env.server, "GET", "/v1/products/"+prodID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 10, prod.Stock)
}

// Credit sale: only the cash leg hits the register; the financed remainder
// becomes installments that can then be collected.
func TestE2E_CreditSaleAndInstallmentPayment(t *testing.T) {
	env := setupTestEnv(t)
	env.createProduct(t, "7890001000004", "Aceite 1L", 10.00, 50)
	env.openCashbox(t, 100)

	clientResp := do(t, env.server, "POST", "/v1/clients",
		jsonBody(t, map[string]any{"name": "Maria Lopez", "credit_limit": 500}), env.token)
	require.Equal(t, http.StatusCreated, clientResp.StatusCode)
	var client struct {
		ID string `json:"id"`
	}
	decodeJSON(t, clientResp, &client)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"items": []map[string]any{{"barcode": "7890001000004", "quantity": 10, "unit_price": 10.00}},
			"payments": []map[string]any{
				{"method": "cash", "amount": 40.00},
				{"method": "credit", "amount": 60.00},
			},
			"client_id":    client.ID,
			"installments": 3,
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)

	instResp := do(t, env.server, "GET", fmt.Sprintf("/v1/sales/%s/installments", sale.ID), nil, env.token)
	require.Equal(t, http.StatusOK, instResp.StatusCode)
	var installments []struct {
		ID        string `json:"id"`
		AmountDue string `json:"amount_due"`
		Status    string `json:"status"`
	}
	decodeJSON(t, instResp, &installments)
	require.Len(t, installments, 3)
	assert.Equal(t, "20", installments[0].AmountDue)

	payResp := do(t, env.server, "POST", "/v1/installments/"+installments[0].ID+"/pay",
		jsonBody(t, map[string]any{"amount": 20.00, "method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, payResp.StatusCode)
	var paid struct {
		Status string `json:"status"`
	}
	decodeJSON(t, payResp, &paid)
	assert.Equal(t, "paid", paid.Status)

	statusResp := do(t, env.server, "GET", "/v1/clients/"+client.ID+"/status", nil, env.token)
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
	var status struct {
		Client struct {
			CurrentDebt string `json:"current_debt"`
		} `json:"client"`
	}
	decodeJSON(t, statusResp, &status)
	assert.Equal(t, "40", status.Client.CurrentDebt)
}

// Two cashiers collect against the same installment at once. The row lock
// serializes them: only the payment that still fits is accepted and the paid
// amount never exceeds the amount due.
func TestE2E_ConcurrentInstallmentPayments(t *testing.T) {
	env := setupTestEnv(t)
	env.createProduct(t, "7890001000006", "Arroz 5kg", 20.00, 50)
	env.openCashbox(t, 100)

	clientResp := do(t, env.server, "POST", "/v1/clients",
		jsonBody(t, map[string]any{"name": "Jorge Diaz", "credit_limit": 500}), env.token)
	require.Equal(t, http.StatusCreated, clientResp.StatusCode)
	var client struct {
		ID string `json:"id"`
	}
	decodeJSON(t, clientResp, &client)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"items": []map[string]any{{"barcode": "7890001000006", "quantity": 5, "unit_price": 20.00}},
			"payments": []map[string]any{
				{"method": "cash", "amount": 40.00},
				{"method": "credit", "amount": 60.00},
			},
			"client_id":    client.ID,
			"installments": 1,
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)

	instResp := do(t, env.server, "GET", fmt.Sprintf("/v1/sales/%s/installments", sale.ID), nil, env.token)
	require.Equal(t, http.StatusOK, instResp.StatusCode)
	var installments []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, instResp, &installments)
	require.Len(t, installments, 1)

	// 40 + 40 against a 60 installment: each fits alone, together they don't.
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"amount": 40.00, "method": "cash"})
			req, err := http.NewRequest("POST", env.server.URL+"/v1/installments/"+installments[0].ID+"/pay", bytes.NewReader(body))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.token)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	var accepted, rejected int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			accepted++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	// Exactly one payment stuck: 40 of 60 paid, 20 of debt left.
	afterResp := do(t, env.server, "GET", "/v1/clients/"+client.ID+"/status", nil, env.token)
	require.Equal(t, http.StatusOK, afterResp.StatusCode)
	var after struct {
		Client struct {
			CurrentDebt string `json:"current_debt"`
		} `json:"client"`
		PendingInstallments []struct {
			AmountDue  string `json:"amount_due"`
			PaidAmount string `json:"paid_amount"`
		} `json:"pending_installments"`
	}
	decodeJSON(t, afterResp, &after)
	assert.Equal(t, "20", after.Client.CurrentDebt)
	require.Len(t, after.PendingInstallments, 1)
	assert.Equal(t, "60", after.PendingInstallments[0].AmountDue)
	assert.Equal(t, "40", after.PendingInstallments[0].PaidAmount)
}

// The price check endpoint serves from Redis after the first hit.
func TestE2E_PriceCheckCached(t *testing.T) {
	env := setupTestEnv(t)
	env.createProduct(t, "7890001000005", "Cafe 250g", 8.50, 5)

	for i := 0; i < 2; i++ {
		resp := do(t, env.server, "GET", "/v1/price/7890001000005", nil, env.token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var price struct {
			Description string `json:"description"`
			SalePrice   string `json:"sale_price"`
		}
		decodeJSON(t, resp, &price)
		assert.Equal(t, "Cafe 250g", price.Description)
		assert.Equal(t, "8.5", price.SalePrice)
	}
}
