package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paydesk/internal/handlers"
	"paydesk/internal/logging"
	"paydesk/internal/middleware"
	"paydesk/internal/models"
	"paydesk/internal/repositories/cache"
	"paydesk/internal/repositories/memory"
	"paydesk/internal/services/auth"
	"paydesk/internal/services/bulk"
	"paydesk/internal/services/calculator"
	"paydesk/internal/services/linking"
	"paydesk/internal/services/notification"
	"paydesk/internal/services/session"
	"paydesk/internal/services/team"

	"github.com/facebookgo/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	app     *fiber.App
	store   *memory.Store
	auth    *auth.Service
	manager *session.Manager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logging.Discard()
	store := memory.New()
	roleCache := cache.NewMemory()

	authSvc := auth.NewService(store, roleCache, auth.Config{Secret: "test-secret"}, log)
	calc := calculator.New(calculator.DefaultFeeModel())
	linker := linking.NewService(store, log)
	manager := session.NewManager(session.Deps{
		Store:      store,
		Calculator: calc,
		Linker:     linker,
	}, session.Options{Clock: clock.NewMock(), Logger: log})
	t.Cleanup(func() { _ = manager.CloseAll(context.Background()) })

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:       handlers.NewAuthHandler(authSvc),
		Onboarding: handlers.NewOnboardingHandler(manager, log),
		Calculator: handlers.NewCalculatorHandler(calc),
		Admin: handlers.NewAdminHandler(
			bulk.NewService(store, log),
			linker,
			team.NewService(store, authSvc, notification.NewService("test@paydesk.local", log), log),
			store,
			log,
		),
		Health: handlers.NewHealthHandler("test", map[string]handlers.Checker{
			"store": func(context.Context) error { return nil },
		}),
	}, middleware.NewAuthMiddleware(authSvc, log))

	return &testApp{app: app, store: store, auth: authSvc, manager: manager}
}

func (a *testApp) user(t *testing.T, email, password, role string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Email: email, Name: email, Password: string(hash)}
	require.NoError(t, a.store.CreateUser(context.Background(), u, role))
	token, err := a.auth.IssueToken(u)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	} else {
		out["raw"] = string(data)
	}
	return resp.StatusCode, out
}

func TestHealthAndAuth(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, _ = a.do(t, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodGet, "/api/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	a.user(t, "partner@example.sk", "s3cret-pass", models.RolePartner)
	status, body = a.do(t, http.MethodPost, "/api/login", "", `{"email":"partner@example.sk","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, status)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	status, body = a.do(t, http.MethodGet, "/api/me", token, "")
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.RolePartner, data["role"])

	status, body = a.do(t, http.MethodPost, "/api/login", "", `{"email":"partner@example.sk","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(t, http.MethodPost, "/api/login", "", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestOnboardingSessionRoutes(t *testing.T) {
	a := newTestApp(t)
	token := a.user(t, "partner@example.sk", "pw-123456", models.RolePartner)

	status, body := a.do(t, http.MethodPost, "/api/onboarding/c-1/session", token, "")
	require.Equal(t, http.StatusOK, status, body)

	status, body = a.do(t, http.MethodPatch, "/api/onboarding/c-1/field", token, `{"path":"contactInfo.firstName","value":"Ján"}`)
	require.Equal(t, http.StatusOK, status, body)
	rec := body["data"].(map[string]interface{})
	assert.Equal(t, "Ján", rec["contactInfo"].(map[string]interface{})["firstName"])

	status, body = a.do(t, http.MethodPatch, "/api/onboarding/c-1/field", token, `{"path":"noSuchField","value":1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])

	status, body = a.do(t, http.MethodPatch, "/api/onboarding/c-1/field", token, `{"path":"status","value":"signed"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodPost, "/api/onboarding/c-1/authorized-persons/from-contact", token, `{"source":"elsewhere"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "source")

	status, _ = a.do(t, http.MethodGet, "/api/onboarding/c-2/session", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodDelete, "/api/onboarding/c-1/session", token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, a.manager.OpenSessions())
}

func TestCalculatorRoute(t *testing.T) {
	a := newTestApp(t)
	token := a.user(t, "partner@example.sk", "pw-123456", models.RolePartner)

	status, body := a.do(t, http.MethodPost, "/api/calculator", token,
		`{"cards":[{"id":"a920","type":"device","name":"A920","count":2,"monthlyFee":"10","companyCost":"6"}]}`)
	require.Equal(t, http.StatusOK, status, body)
	results := body["data"].(map[string]interface{})
	assert.Equal(t, "20", results["totalCustomerPayments"])
	assert.Equal(t, []interface{}{"20"}, results["cardTotals"])

	status, body = a.do(t, http.MethodPost, "/api/calculator", token,
		`{"cards":[{"id":"a920","type":"device","count":-1,"monthlyFee":"10"}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])

	merchant := a.user(t, "shop@example.sk", "pw-123456", models.RoleMerchant)
	status, body = a.do(t, http.MethodPost, "/api/calculator", merchant, `{}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", body["code"])
}

func TestAdminRoutes(t *testing.T) {
	a := newTestApp(t)
	admin := a.user(t, "admin@example.sk", "pw-123456", models.RoleAdmin)
	partner := a.user(t, "partner@example.sk", "pw-123456", models.RolePartner)

	status, body := a.do(t, http.MethodPost, "/api/onboarding/c-1/session", partner, "")
	require.Equal(t, http.StatusOK, status, body)

	status, body = a.do(t, http.MethodGet, "/api/admin/contracts", partner, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", body["code"])

	status, body = a.do(t, http.MethodGet, "/api/admin/contracts?page=1&limit=10", admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"c-1"}, body["data"])

	status, body = a.do(t, http.MethodPost, "/api/admin/bulk/contracts/delete", admin, `{"ids":["c-1"]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CONFIRMATION_REQUIRED", body["code"])

	status, body = a.do(t, http.MethodGet, "/api/admin/bulk/contracts/columns", admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"id", "status", "merchant_id"}, body["data"])

	status, body = a.do(t, http.MethodPost, "/api/admin/bulk/users/update", admin, `{"ids":["1"],"fields":{"role":"admin"}}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodPost, "/api/admin/bulk/contracts/export", admin, `{"ids":["c-1"]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "id,status,merchant_id\nc-1,draft,\n", body["raw"])

	status, body = a.do(t, http.MethodPost, "/api/admin/merchant-links/fix", admin, "")
	require.Equal(t, http.StatusOK, status)
	report := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, report["skipped"])

	status, body = a.do(t, http.MethodPost, "/api/admin/team", admin, `{"email":"eva@example.sk","name":"Eva","role":"partner"}`)
	require.Equal(t, http.StatusCreated, status, body)
	created := body["data"].(map[string]interface{})
	assert.NotEmpty(t, created["temporary_password"])
}
