package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoshichaam/crm_loyalty_go/internal/config"
	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories/memrepo"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Count   *int                `json:"count"`
	Errors  map[string][]string `json:"errors"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memrepo.New()
	cfg := config.Config{
		AppEnv:           "test",
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
		CORSOrigins:      "*",
	}
	return New(cfg, Repos{
		Users:    store.Users(),
		Members:  store.Members(),
		Points:   store.Points(),
		Vouchers: store.Vouchers(),
		Redeems:  store.Redeems(),
		Tx:       store,
	}, Options{})
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	code, _ := call(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "admin", "email": "admin@example.com",
		"password": "rahasia123", "password_confirm": "rahasia123", "full_name": "Admin",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": "admin", "password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, code)
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	require.NotEmpty(t, pair.Access)
	return pair.Access
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthAndWelcome(t *testing.T) {
	app := newTestApp(t)

	code, env := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = call(t, app, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome to CRM Loyalty API", env.Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestApp(t)
	code, env := call(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/api/members", "/api/points", "/api/vouchers", "/api/redeem", "/api/auth/me"} {
		code, env := call(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.False(t, env.Success, path)
	}
}

func TestLoyaltyFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	// member baru, trailing slash juga diterima
	code, env := call(t, app, http.MethodPost, "/api/members/", token, map[string]any{
		"name": "Siti", "email": "siti@example.com", "phone": "+62 812 3456",
	})
	require.Equal(t, http.StatusCreated, code, env.Errors)
	assert.Equal(t, "Member created successfully", env.Message)
	member := decode[map[string]any](t, env.Data)
	memberID := member["id"].(string)
	assert.Equal(t, "MEM-001", memberID)

	code, env = call(t, app, http.MethodPost, "/api/points", token, map[string]any{
		"member": memberID, "transaction_type": "earn", "points": 1000,
	})
	require.Equal(t, http.StatusCreated, code, env.Errors)
	pt := decode[map[string]any](t, env.Data)
	assert.Equal(t, "admin", pt["created_by"])

	today := loyalty.DateOnly(time.Now())
	code, env = call(t, app, http.MethodPost, "/api/vouchers", token, map[string]any{
		"code": "DISC50", "name": "Diskon 50rb", "type": "discount", "discount_value": "50000.00",
		"points_cost": 500, "stock": 1,
		"start_date": today.AddDate(0, 0, -1).Format(loyalty.DateLayout),
		"end_date":   today.AddDate(0, 0, 30).Format(loyalty.DateLayout),
	})
	require.Equal(t, http.StatusCreated, code, env.Errors)
	voucher := decode[map[string]any](t, env.Data)
	voucherID := int64(voucher["id"].(float64))
	assert.Equal(t, true, voucher["is_available"])

	code, env = call(t, app, http.MethodPost, "/api/redeem", token, map[string]any{
		"member": memberID, "voucher": voucherID,
	})
	require.Equal(t, http.StatusCreated, code, env.Errors)
	assert.Equal(t, "Redemption successful", env.Message)
	redeem := decode[map[string]any](t, env.Data)
	assert.Equal(t, "Pending", redeem["status"])
	redeemID := int64(redeem["id"].(float64))

	// stok habis: is_available ikut stock > 0
	code, env = call(t, app, http.MethodPost, "/api/redeem", token, map[string]any{
		"member": memberID, "voucher": voucherID,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"Voucher is not available"}, env.Errors["voucher"])

	code, env = call(t, app, http.MethodGet, "/api/members/"+memberID, token, nil)
	require.Equal(t, http.StatusOK, code)
	member = decode[map[string]any](t, env.Data)
	assert.Equal(t, float64(500), member["total_points"])
	assert.Equal(t, "Silver", member["tier_level"])

	code, env = call(t, app, http.MethodPost, fmt.Sprintf("/api/redeem/%d/cancel/", redeemID), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Redemption cancelled successfully", env.Message)

	code, env = call(t, app, http.MethodPost, fmt.Sprintf("/api/redeem/%d/cancel", redeemID), token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot cancel this redemption", env.Message)

	code, env = call(t, app, http.MethodGet, "/api/members/"+memberID, token, nil)
	require.Equal(t, http.StatusOK, code)
	member = decode[map[string]any](t, env.Data)
	assert.Equal(t, float64(1000), member["total_points"])

	code, env = call(t, app, http.MethodGet, "/api/redeem/statistics?member="+memberID, token, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]any](t, env.Data)
	assert.Equal(t, float64(1), stats["cancelled_redeems"])
	assert.Equal(t, float64(0), stats["total_points_redeemed"])

	code, env = call(t, app, http.MethodGet, "/api/points/member/"+memberID, token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestValidationErrorsAreFieldMapped(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	code, env := call(t, app, http.MethodPost, "/api/members", token, map[string]any{
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "name")

	code, _ = call(t, app, http.MethodGet, "/api/members/MEM-404", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	code, env := call(t, app, http.MethodGet, "/api/vouchers", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)

	code, env = call(t, app, http.MethodGet, "/api/members/statistics", token, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]any](t, env.Data)
	assert.Equal(t, map[string]any{"Bronze": float64(0), "Silver": float64(0), "Gold": float64(0), "Platinum": float64(0)}, stats["by_tier"])
}
