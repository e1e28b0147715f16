//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - signup → product → draft → finalize → sale and ledger visible
//   - empty draft finalization leaves no rows
//   - customer resolution reuses an existing name
//   - device credential enrollment and login

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/config"
	"github.com/Jvjesus89/ERPapp/internal/credstore"
	"github.com/Jvjesus89/ERPapp/internal/infra"
	"github.com/Jvjesus89/ERPapp/internal/router"
	"github.com/Jvjesus89/ERPapp/internal/worker"
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

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server          *httptest.Server
	db              *gorm.DB
	token           string
	paymentMethodID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("erpapp_test"),
		tcPostgres.WithUsername("erpapp"),
		tcPostgres.WithPassword("erpapp"),
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
		Port:                8000,
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTExpirationHours:  8,
		JWTRefreshHours:     24,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		DeviceCredentialKey: "e2e-device-master-key",
		LookupBaseURL:       "http://localhost:9999", // lookup is not exercised here
		WorkerPoolSize:      1,
		ReceiptStoragePath:  t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	creds, err := credstore.New(rdb, cfg.DeviceCredentialKey)
	require.NoError(t, err)

	r := router.New(cfg, db, rdb, creds, worker.NewDispatcher(rdb))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	// fresh tenant per environment
	signupResp := do(t, srv, "POST", "/v1/auth/signup",
		jsonBody(t, map[string]string{
			"email":    "admin@e2e.test",
			"password": "e2e-senha",
			"name":     "Admin E2E",
		}), "")
	require.Equal(t, http.StatusCreated, signupResp.StatusCode)
	var signupBody struct {
		AccessToken string `json:"access_token"`
		CompanyID   string `json:"company_id"`
	}
	decodeJSON(t, signupResp, &signupBody)
	require.NotEmpty(t, signupBody.AccessToken)

	// payment method for finalization, seeded directly
	var pmID string
	err = db.Raw(`INSERT INTO payment_methods (id, company_id, description)
		VALUES (gen_random_uuid(), ?, 'Dinheiro') RETURNING id`, signupBody.CompanyID).
		Scan(&pmID).Error
	require.NoError(t, err)

	return &testEnv{server: srv, db: db, token: signupBody.AccessToken, paymentMethodID: pmID}
}

func (env *testEnv) createProduct(t *testing.T, description, price string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]string{"description": description, "price": price}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &body)
	return body.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestFullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "Água Mineral 500ml", "2,50")

	// open draft
	resp := do(t, env.server, "POST", "/v1/sales/draft",
		jsonBody(t, map[string]string{"customer_name": "Maria Silva"}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// two lines, one with an explicit price override and a discount
	resp = do(t, env.server, "PUT", "/v1/sales/draft/lines",
		jsonBody(t, map[string]any{
			"product_id": productID, "quantity": "2", "unit_price": "10", "discount": "1",
		}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "PUT", "/v1/sales/draft/lines",
		jsonBody(t, map[string]any{
			"product_id": productID, "quantity": "1", "unit_price": "5,50",
		}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var draft struct {
		Total string `json:"total"`
		Lines []struct {
			LineID int64 `json:"line_id"`
		} `json:"lines"`
	}
	decodeJSON(t, resp, &draft)
	assert.Equal(t, "24.50", draft.Total)
	require.Len(t, draft.Lines, 2)

	// finalize
	resp = do(t, env.server, "POST", "/v1/sales/draft/finalize",
		jsonBody(t, map[string]string{"payment_method_id": env.paymentMethodID}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale struct {
		ID           string `json:"id"`
		Total        string `json:"total"`
		CustomerName string `json:"customer_name"`
		Items        []any  `json:"items"`
	}
	decodeJSON(t, resp, &sale)
	assert.Equal(t, "24.50", sale.Total)
	assert.Equal(t, "Maria Silva", sale.CustomerName)
	assert.Len(t, sale.Items, 2)

	// the draft is gone
	resp = do(t, env.server, "GET", "/v1/sales/draft", nil, env.token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// sale shows up in the list
	resp = do(t, env.server, "GET", "/v1/sales", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sales struct {
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &sales)
	assert.Equal(t, 1, sales.Total)

	// and generated exactly one ledger entry
	resp = do(t, env.server, "GET", "/v1/financial", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ledger struct {
		Total int `json:"total"`
		Data  []struct {
			Amount       string  `json:"amount"`
			CustomerName string  `json:"customer_name"`
			SaleID       *string `json:"sale_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &ledger)
	require.Equal(t, 1, ledger.Total)
	assert.Equal(t, "24.50", ledger.Data[0].Amount)
	assert.Equal(t, "Maria Silva", ledger.Data[0].CustomerName)
	require.NotNil(t, ledger.Data[0].SaleID)
	assert.Equal(t, sale.ID, *ledger.Data[0].SaleID)
}

func TestEmptyDraftFinalizationLeavesNoRows(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "POST", "/v1/sales/draft",
		jsonBody(t, map[string]string{}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/sales/draft/finalize",
		jsonBody(t, map[string]string{"payment_method_id": env.paymentMethodID}), env.token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	var saleCount, entryCount, customerCount int64
	require.NoError(t, env.db.Table("sales").Count(&saleCount).Error)
	require.NoError(t, env.db.Table("financial_entries").Count(&entryCount).Error)
	require.NoError(t, env.db.Table("customers").Count(&customerCount).Error)
	assert.Zero(t, saleCount)
	assert.Zero(t, entryCount)
	assert.Zero(t, customerCount)
}

func TestCustomerResolutionReusesExistingName(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "Produto", "1")

	finalizeOnce := func(customerName string) {
		resp := do(t, env.server, "POST", "/v1/sales/draft",
			jsonBody(t, map[string]string{"customer_name": customerName}), env.token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = do(t, env.server, "PUT", "/v1/sales/draft/lines",
			jsonBody(t, map[string]any{"product_id": productID, "quantity": "1"}), env.token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = do(t, env.server, "POST", "/v1/sales/draft/finalize",
			jsonBody(t, map[string]string{"payment_method_id": env.paymentMethodID}), env.token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	finalizeOnce("Maria Silva")
	finalizeOnce("maria silva") // different case, same customer

	var customerCount int64
	require.NoError(t, env.db.Table("customers").Count(&customerCount).Error)
	assert.Equal(t, int64(1), customerCount)
}

func TestDeviceCredentialLogin(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/auth/device/support", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var support struct {
		Supported bool `json:"supported"`
	}
	decodeJSON(t, resp, &support)
	require.True(t, support.Supported)

	resp = do(t, env.server, "POST", "/v1/auth/device/enable",
		jsonBody(t, map[string]string{
			"device_id": "e2e-device",
			"email":     "admin@e2e.test",
			"password":  "e2e-senha",
		}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var enrolled struct {
		DeviceSecret string `json:"device_secret"`
	}
	decodeJSON(t, resp, &enrolled)
	require.NotEmpty(t, enrolled.DeviceSecret)

	resp = do(t, env.server, "POST", "/v1/auth/device/login",
		jsonBody(t, map[string]string{
			"device_id":     "e2e-device",
			"device_secret": enrolled.DeviceSecret,
		}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &login)
	assert.NotEmpty(t, login.AccessToken)

	// disable, then the same challenge must fail
	resp = do(t, env.server, "DELETE", "/v1/auth/device",
		jsonBody(t, map[string]string{"device_id": "e2e-device"}), login.AccessToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/auth/device/login",
		jsonBody(t, map[string]string{
			"device_id":     "e2e-device",
			"device_secret": enrolled.DeviceSecret,
		}), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	env := setupTestEnv(t)
	resp := do(t, env.server, "GET", "/v1/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
