package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catalog/internal/identity"
	"github.com/odyssey-erp/catalog/internal/observability"
	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/products"
	"github.com/odyssey-erp/catalog/internal/shared"
	"github.com/odyssey-erp/catalog/jobs"
	_ "github.com/odyssey-erp/catalog/testing"
)

const testSecret = "router-secret"

type fixture struct {
	params RouterParams
}

func newFixture(t *testing.T, probes ...Probe) fixture {
	t.Helper()
	cfg := &Config{AppEnv: "test", PageSizeMax: 100, RateLimitPerIP: 1000}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	errs := httpx.NewErrorMapper(nil, false)
	verifier, err := identity.NewJWTVerifier(identity.VerifierConfig{HMACSecret: testSecret})
	require.NoError(t, err)
	sessions := shared.NewSessionManager(client, "catalog_session", time.Hour, false)

	return fixture{params: RouterParams{
		Config:         cfg,
		Errors:         errs,
		SessionManager: sessions,
		Authenticator:  identity.NewAuthenticator(verifier, errs, nil),
		Metrics:        observability.NewMetrics(),
		Probes:         probes,
		AccountHandler: identity.NewAccountHandler(identity.OIDCConfig{AuthURL: "https://id.example.test/auth"}, verifier, sessions, nil, false),
		ProductHandler: products.NewHandler(products.NewService(products.NewMemoryRepository(), cfg.PageSizeMax), errs),
		JobHandler:     jobs.NewHandler(nil, errs),
		Dashboard: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("dashboard"))
		}),
	}}
}

func token(t *testing.T, roles ...any) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          "user-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"realm_access": map[string]any{"roles": roles},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func do(h http.Handler, method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) shared.Response[any] {
	t.Helper()
	var body shared.Response[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProductRoutesRequireUserRole(t *testing.T) {
	h := NewRouter(newFixture(t).params)

	rec := do(h, http.MethodGet, "/api/product", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, envelope(t, rec).Succeeded)

	rec = do(h, http.MethodGet, "/api/product", token(t, "other"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodGet, "/api/product", token(t, identity.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope(t, rec).Succeeded)
}

func TestMalformedRealmAccessIsUnclassifiedFailure(t *testing.T) {
	h := NewRouter(newFixture(t).params)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          "user-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"realm_access": "roles=user",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/api/product", raw)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred.", envelope(t, rec).Message)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := NewRouter(newFixture(t).params)
	rec := do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route /nope Not Found.", envelope(t, rec).Message)

	rec = do(h, http.MethodPatch, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method PATCH is not allowed.", envelope(t, rec).Message)
}

func TestSecurityHeaders(t *testing.T) {
	h := NewRouter(newFixture(t).params)
	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealth(t *testing.T) {
	up := Probe{Name: "store", Check: func(context.Context) error { return nil }}
	down := Probe{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	rec := do(NewRouter(newFixture(t, up).params), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusHealthy, report.Status)

	rec = do(NewRouter(newFixture(t, up, down).params), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Checks["store"].Status)
	assert.Equal(t, StatusUnhealthy, report.Checks["redis"].Status)
	assert.Empty(t, report.Checks["redis"].Error)
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(newFixture(t).params)
	_ = do(h, http.MethodGet, "/health", "")
	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_http_requests_total")
}

func TestDashboardRedirects(t *testing.T) {
	h := NewWorkerRouter(newFixture(t).params)

	rec := do(h, http.MethodGet, "/jobs/dashboard", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/account/login?returnUrl=%2Fjobs%2Fdashboard", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/jobs/dashboard/queues", token(t, identity.RoleUser))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, AccessDeniedPath, rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/jobs/dashboard", token(t, identity.RoleJobsDashboard))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard", rec.Body.String())

	rec = do(h, http.MethodGet, "/jobs/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{AppEnv: "development", StoreDriver: StoreDriverMemory, PageSizeMax: 100}
	assert.NoError(t, cfg.Validate())

	cfg.StoreDriver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = Config{AppEnv: "production", StoreDriver: StoreDriverPostgres, PageSizeMax: 100}
	assert.Error(t, cfg.Validate())
	cfg.OIDCClientID, cfg.OIDCAuthURL, cfg.OIDCTokenURL, cfg.OIDCPublicKey = "catalog", "https://id/auth", "https://id/token", "pem"
	assert.NoError(t, cfg.Validate())
}

func TestConfigRequestTimeoutShorterThanWriteTimeout(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Less(t, cfg.AppRequestTimeout, cfg.AppWriteTimeout)

	cfg.AppRequestTimeout = cfg.AppWriteTimeout
	assert.Error(t, cfg.Validate())
}
