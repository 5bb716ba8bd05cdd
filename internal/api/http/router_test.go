package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/offset-service/internal/api/http/handlers"
	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/config"
	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/observability"
	"github.com/spec-kit/offset-service/internal/repository/memory"
	"github.com/spec-kit/offset-service/internal/service"
)

type testServer struct {
	app   *fiber.App
	key   auth.SigningKey
	users *memory.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	key, err := auth.NewRandomSigningKey()
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics("test")
	tokens := auth.NewTokenService(key, auth.DefaultTokenTTL)
	users := memory.NewUserRepository()
	offsets := memory.NewOffsetRepository()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, config.AppConfig{AllowedOrigins: "*", RequestTimeoutSeconds: 5}, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("offset-service", "test", nil),
		Users:          handlers.NewUsersHandler(authService),
		Offsets:        handlers.NewOffsetsHandler(service.NewOffsetService(offsets, dispatcher, logger)),
		Converter:      handlers.NewConverterHandler(service.NewConverterService(offsets, metrics)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users, logger, metrics),
		Metrics:        metrics,
	})
	return &testServer{app: app, key: key, users: users}
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, contentType: resp.Header.Get(fiber.HeaderContentType), body: raw}
}

func (s *testServer) register(t *testing.T, username, password string) string {
	t.Helper()
	resp := s.do(t, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	return resp.json(t)["jwt"].(string)
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	return resp.json(t)["jwt"].(string)
}

func (s *testServer) createOffset(t *testing.T, token, label, offset string) string {
	t.Helper()
	resp := s.do(t, fiber.MethodPost, "/api/timezones", token, map[string]string{"label": label, "city": "", "offset": offset})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	return resp.json(t)["id"].(string)
}

func TestConversionScenario(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "secret1")
	token := s.login(t, "alice", "secret1")

	s.createOffset(t, token, "Pacific Time", "-08:00")
	s.createOffset(t, token, "Eastern Time", "-05:00")

	resp := s.do(t, fiber.MethodGet, "/convert-time?sourceZone=Pacific%20Time&targetZone=Eastern%20Time&time=2024-09-05T10:00:00", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "2024-09-05T13:00:00", string(resp.body))

	resp = s.do(t, fiber.MethodGet, "/convert-time?sourceZone=Pacific%20Time&targetZone=Eastern%20Time&time=invalid-format", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	body := resp.json(t)
	assert.Equal(t, "INVALID_TIME_FORMAT", body["code"])
	assert.Equal(t, "uri=/convert-time", body["requestDescription"])
	assert.EqualValues(t, fiber.StatusBadRequest, body["status"])

	resp = s.do(t, fiber.MethodGet, "/convert-time?sourceZone=Pacific%20Time", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
}

func TestConversion_OtherUsersLabel(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.register(t, "alice", "secret1")
	bobToken := s.register(t, "bob", "secret2")

	s.createOffset(t, aliceToken, "Eastern Time", "-05:00")
	s.createOffset(t, bobToken, "Tokyo Time", "+09:00")

	resp := s.do(t, fiber.MethodGet, "/convert-time?sourceZone=Tokyo%20Time&targetZone=Eastern%20Time&time=2024-09-05T10:00:00", aliceToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.Equal(t, "TIMEZONE_NOT_FOUND", resp.json(t)["code"])
}

func TestOffsetOwnership(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.register(t, "alice", "secret1")
	bobToken := s.register(t, "bob", "secret2")
	bobsID := s.createOffset(t, bobToken, "Tokyo Time", "+09:00")

	resp := s.do(t, fiber.MethodDelete, "/api/timezones/"+bobsID, aliceToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.status)
	assert.Equal(t, "Unauthorized to delete this TimeZone", string(resp.body))
	assert.Contains(t, resp.contentType, fiber.MIMETextPlain)

	resp = s.do(t, fiber.MethodPut, "/api/timezones/"+bobsID, aliceToken, map[string]string{"label": "Mine now", "offset": "+00:00"})
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/timezones/"+bobsID, bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "Tokyo Time", resp.json(t)["label"])

	resp = s.do(t, fiber.MethodDelete, "/api/timezones/does-not-exist", aliceToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = s.do(t, fiber.MethodDelete, "/api/timezones/"+bobsID, bobToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
}

func TestOffsetCRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "secret1")
	id := s.createOffset(t, token, "Pacific Time", "-08:00")

	resp := s.do(t, fiber.MethodPut, "/api/timezones/"+id, token, map[string]string{"label": "Los Angeles", "city": "LA", "offset": "-07:00"})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "-07:00", resp.json(t)["offset"])

	resp = s.do(t, fiber.MethodGet, "/api/timezones/user/timezones", token, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Los Angeles", list[0]["label"])

	resp = s.do(t, fiber.MethodPost, "/api/timezones", token, map[string]string{"label": "Bad", "offset": "+5:00"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	details := resp.json(t)["details"].(map[string]any)
	assert.Contains(t, details, "offset")
}

func TestRegistrationConflicts(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/register", "", map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "User registered successfully", string(resp.body))

	resp = s.do(t, fiber.MethodPost, "/register", "", map[string]string{"username": "carol", "email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, fiber.StatusConflict, resp.status)
	assert.Equal(t, "DUPLICATE_IDENTITY", resp.json(t)["code"])

	_, err := s.users.GetByUsername(context.Background(), "carol")
	assert.Error(t, err)

	resp = s.do(t, fiber.MethodPost, "/api/auth/register", "", map[string]string{"username": "x", "email": "bad", "password": "1"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.json(t)["code"])

	resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong1"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
}

func TestGateOnProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "secret1")

	resp := s.do(t, fiber.MethodGet, "/api/timezones/user/timezones", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	now := time.Now()
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(now.Add(-11 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte(s.key))
	require.NoError(t, err)

	resp = s.do(t, fiber.MethodGet, "/api/timezones/user/timezones", expired, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "TOKEN_EXPIRED", resp.json(t)["code"])

	resp = s.do(t, fiber.MethodGet, "/api/timezones/user/timezones", "not-a-token", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "TOKEN_MALFORMED", resp.json(t)["code"])
}

func TestProfileAndAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "secret1")

	resp := s.do(t, fiber.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, []any{"ROLE_USER"}, resp.json(t)["authorities"])

	resp = s.do(t, fiber.MethodGet, "/api/admin/users/alice", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	hash, err := auth.HashPassword("rootpw", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), &domain.User{
		Username: "root", Email: "root@example.com", PasswordHash: hash,
		Roles: []domain.Role{{Name: domain.RoleAdmin}},
	}))
	adminToken := s.login(t, "root", "rootpw")

	resp = s.do(t, fiber.MethodGet, "/api/admin/users/alice", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "alice@example.com", resp.json(t)["email"])
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "alive", resp.json(t)["status"])

	resp = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)

	resp = s.do(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "test_http_requests_total")

	resp = s.do(t, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.Equal(t, "uri=/nope", resp.json(t)["requestDescription"])
}

func TestMetricsScrapeAfterErrorRequests(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "secret1")

	for _, path := range []string{"/aaaa/1", "/bbbb/2", "/cccc/3"} {
		resp := s.do(t, fiber.MethodGet, path, "", nil)
		require.Equal(t, fiber.StatusNotFound, resp.status)
	}
	for _, id := range []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"} {
		resp := s.do(t, fiber.MethodGet, "/api/timezones/"+id, token, nil)
		require.Equal(t, fiber.StatusNotFound, resp.status)
	}

	for i := 0; i < 2; i++ {
		resp := s.do(t, fiber.MethodGet, "/metrics", "", nil)
		require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))

		body := string(resp.body)
		assert.Contains(t, body, "test_http_errors_total")
		assert.Contains(t, body, `path="/api/timezones/:id"`)
		assert.Contains(t, body, `path="unmatched"`)
		assert.NotContains(t, body, "/aaaa/1")
		assert.NotContains(t, body, "1111-1111")
	}
}
