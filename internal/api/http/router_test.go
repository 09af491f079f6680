package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront-service/internal/api/http/handlers"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/observability"
	"github.com/spec-kit/storefront-service/internal/service"
	"github.com/spec-kit/storefront-service/internal/testutil"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	users  *testutil.UserRepo
	admins *testutil.AdminRepo
	mailer *testutil.Mailer
	store  *testutil.FileStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		App: config.AppConfig{Name: "storefront-test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			BcryptCost:           bcrypt.MinCost,
			OTPTTLMinutes:        10,
			OTPResendCooldownSec: 60,
			SuperAdminEmail:      "root@shop.io",
			SuperAdminPassword:   "rootpw",
		},
		Upload: config.UploadConfig{MaxFileBytes: 1024, MaxFiles: 2},
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, 0)
	require.NoError(t, err)

	users := testutil.NewUserRepo()
	admins := testutil.NewAdminRepo()
	products := testutil.NewProductRepo()
	mailer := &testutil.Mailer{}
	store := testutil.NewFileStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics("storefront_test")

	authService := service.NewAuthService(cfg, tokens, service.AuthDependencies{UserRepo: users, Mailer: mailer, Logger: logger})
	adminService := service.NewAdminService(cfg, tokens, admins, logger)
	require.NoError(t, adminService.BootstrapSuperAdmin(context.Background(), cfg.Auth))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil),
		Users:          handlers.NewUsersHandler(authService, service.NewUserService(users, logger), metrics),
		Admins:         handlers.NewAdminsHandler(adminService),
		Products:       handlers.NewProductsHandler(service.NewProductService(products, store, cfg.Upload, logger), "http://cdn.test"),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens, users: users, admins: admins, mailer: mailer, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) adminToken(t *testing.T, role domain.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(domain.Subject{ID: "admin-" + string(role), Email: "ops@shop.io", Type: domain.SubjectTypeAdmin, Role: role})
	require.NoError(t, err)
	return token
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func dig(body map[string]any, keys ...string) any {
	var cur any = body
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func TestRoutes_ShopperLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/api/users", "", map[string]string{
		"name": "Alice", "email": "a@x.com", "phone": "555", "password": "pw1",
	})
	require.Equal(t, fiber.StatusCreated, status)
	user := dig(body, "data", "user").(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "otp_code")

	status, body = s.do(t, "POST", "/api/users", "", map[string]string{"name": "A", "email": "a@x.com", "password": "pw"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = s.do(t, "POST", "/api/users/verify-otp", "", map[string]string{"email": "a@x.com", "otp": "12345x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	code := s.mailer.LastCode("a@x.com")
	status, body = s.do(t, "POST", "/api/users/verify-otp", "", map[string]string{"email": "a@x.com", "otp": code})
	require.Equal(t, fiber.StatusOK, status)
	token := dig(body, "data", "auth", "token").(string)
	assert.Equal(t, true, dig(body, "data", "user", "is_verified"))

	status, body = s.do(t, "POST", "/api/users/verify-otp", "", map[string]string{"email": "a@x.com", "otp": code})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = s.do(t, "GET", "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "a@x.com", dig(body, "data", "email"))
	assert.Equal(t, "USER", dig(body, "data", "kind"))

	status, _ = s.do(t, "POST", "/api/users/signin", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, fiber.StatusOK, status)

	status, body = s.do(t, "POST", "/api/users/signin", "", map[string]string{"email": "a@x.com", "password": "bad"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, "POST", "/api/users/signin", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(t, "POST", "/api/users/resend-otp", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	status, _ = s.do(t, "POST", "/api/users/verify-otp", "", map[string]string{"email": "ghost@x.com", "otp": "123456"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRoutes_SignupMailFailure(t *testing.T) {
	s := newTestServer(t)
	s.mailer.Err = assert.AnError

	status, body := s.do(t, "POST", "/api/users", "", map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "OTP_DELIVERY_FAILED", errorCode(body))

	stored, err := s.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.HasPendingOTP())
}

func TestRoutes_AuthGate(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/api/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "not authorized", dig(body, "error", "message"))

	status, body = s.do(t, "GET", "/api/me", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", dig(body, "error", "message"))

	userToken, _, err := s.tokens.GenerateToken(domain.Subject{ID: "u1", Email: "u@x.com", Type: domain.SubjectTypeUser, Role: domain.RoleUser})
	require.NoError(t, err)
	status, _ = s.do(t, "GET", "/api/users", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, "GET", "/api/users", s.adminToken(t, domain.RoleAdmin), nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, body["data"])
}

func TestRoutes_AdminManagement(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/api/admins/signin", "", map[string]string{"email": "root@shop.io", "password": "rootpw"})
	require.Equal(t, fiber.StatusOK, status)
	rootToken := dig(body, "data", "auth", "token").(string)

	status, body = s.do(t, "POST", "/api/admins", rootToken, map[string]string{"name": "Ops", "email": "ops@shop.io", "password": "pw"})
	require.Equal(t, fiber.StatusCreated, status)
	opsID := dig(body, "data", "id").(string)
	assert.Equal(t, "ADMIN", dig(body, "data", "role"))

	status, body = s.do(t, "POST", "/api/admins/signin", "", map[string]string{"email": "ops@shop.io", "password": "pw"})
	require.Equal(t, fiber.StatusOK, status)
	opsToken := dig(body, "data", "auth", "token").(string)

	status, _ = s.do(t, "POST", "/api/admins", opsToken, map[string]string{"name": "X", "email": "x@shop.io", "password": "pw"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, "PUT", "/api/admins/"+opsID, opsToken, map[string]string{"name": "Ops", "email": "ops@shop.io", "phone": "555"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "555", dig(body, "data", "phone"))

	root, err := s.admins.GetByEmail(context.Background(), "root@shop.io")
	require.NoError(t, err)
	status, _ = s.do(t, "DELETE", "/api/admins/"+root.ID, rootToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "DELETE", "/api/admins/"+opsID, opsToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "DELETE", "/api/admins/"+opsID, rootToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = s.do(t, "DELETE", "/api/admins/"+opsID, rootToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(t, "GET", "/api/admins", rootToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func multipartProduct(t *testing.T, fields map[string]string, files map[string]string) *nethttp.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, contentType := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/products", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRoutes_Products(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t, domain.RoleAdmin)
	fields := map[string]string{
		"sl_no": "1", "product_name": "Shirt", "description": "Linen", "price": "2500",
		"offer_price": "1999", "agent_name": "Rita", "category": "shirts", "sizes": "S, M", "colors": `["Red"]`,
	}

	status, _ := s.send(t, multipartProduct(t, fields, nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := s.send(t, multipartProduct(t, fields, map[string]string{"front.png": "image/png"}), admin)
	require.Equal(t, fiber.StatusCreated, status)
	id := dig(body, "data", "id").(string)
	assert.Equal(t, []any{"S", "M"}, dig(body, "data", "sizes"))
	assert.Equal(t, []any{"Red"}, dig(body, "data", "colors"))
	images := dig(body, "data", "images").([]any)
	require.Len(t, images, 1)
	assert.True(t, strings.HasPrefix(images[0].(string), "http://cdn.test/uploads/products/"))
	assert.Len(t, s.store.Keys(), 1)

	status, body = s.send(t, multipartProduct(t, fields, nil), admin)
	assert.Equal(t, fiber.StatusConflict, status)

	fields["sl_no"] = "2"
	status, _ = s.send(t, multipartProduct(t, fields, map[string]string{"notes.txt": "text/plain"}), admin)
	assert.Equal(t, fiber.StatusBadRequest, status)

	fields["price"] = "cheap"
	status, _ = s.send(t, multipartProduct(t, fields, nil), admin)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "GET", "/api/products/"+id, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Shirt", dig(body, "data", "product_name"))

	status, body = s.do(t, "PUT", "/api/products/"+id, admin, map[string]any{"offer_price": 1500})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1500), dig(body, "data", "offer_price"))
	assert.Len(t, dig(body, "data", "images"), 1)

	status, body = s.do(t, "POST", "/api/products/import", admin, []map[string]any{
		{"sl_no": 10, "product_name": "Hat", "description": "Wool", "price": 900, "offer_price": 800, "agent_name": "Rita", "category": "hats", "affiate_link": "https://aff.test/hat"},
		{"sl_no": 10, "product_name": "Hat copy", "description": "Wool", "price": 900, "offer_price": 800, "agent_name": "Rita", "category": "hats"},
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["successful_insertions"])
	assert.Equal(t, float64(1), body["failed_insertions"])

	status, body = s.do(t, "GET", "/api/products", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "https://aff.test/hat", list[1].(map[string]any)["affiliate_link"])

	status, _ = s.do(t, "DELETE", "/api/products/"+id, admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, "GET", "/api/products/"+id, "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["message"], "storefront-test")

	status, body = s.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = s.do(t, "GET", "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "storefront_test_http_requests_total")
}
