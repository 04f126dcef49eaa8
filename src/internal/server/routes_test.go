package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "org@uni.edu",
		"roles":     []string{role},
		"usuarioId": 4,
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

type portal struct {
	router         *gin.Engine
	dashboardCalls *atomic.Int32
}

func newPortal(t *testing.T, role string) portal {
	t.Helper()
	gin.SetMode(gin.TestMode)
	token := signToken(t, role)
	calls := &atomic.Int32{}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/asistencias/dashboard", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"extraData":[]}`))
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	cfg := &config.Configuration{
		App:      config.Application{Name: "sigea-portal-svc"},
		Backend:  config.BackendSettings{URL: backend.URL, Timeout: 2},
		Session:  config.SessionSettings{Store: dependency.StoreMemory, CookieName: "sid", ExpirationMinutes: 5},
		Security: config.SecuritySettings{
			DashboardRoles: []string{"ADMIN", "ORGANIZADOR"},
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}

	router := gin.New()
	deps, err := dependency.NewDependencyManager(router, nil, nil, nil, cfg)
	require.NoError(t, err)
	SetupRoutes(deps)

	return portal{router: router, dashboardCalls: calls}
}

func (p portal) do(method, path string, body []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	p.router.ServeHTTP(resp, req)
	return resp
}

func TestLoginThenDashboard(t *testing.T) {
	p := newPortal(t, "ORGANIZADOR")

	resp := p.do(http.MethodPost, "/api/v1/auth/login", []byte(`{"email":"org@uni.edu","password":"secreto"}`), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	cookies := resp.Result().Cookies()

	resp = p.do(http.MethodGet, "/api/v1/asistencias/dashboard", nil, cookies)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int32(1), p.dashboardCalls.Load())
	assert.JSONEq(t, `{"success":true,"message":"Dashboard retrieved successfully","data":{"activities":[],"loading":false}}`, resp.Body.String())

	resp = p.do(http.MethodPost, "/api/v1/auth/logout", nil, cookies)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = p.do(http.MethodGet, "/api/v1/asistencias/dashboard", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, int32(1), p.dashboardCalls.Load())
}

func TestDashboardForbiddenForParticipants(t *testing.T) {
	p := newPortal(t, "PARTICIPANTE")

	resp := p.do(http.MethodPost, "/api/v1/auth/login", []byte(`{"email":"org@uni.edu","password":"secreto"}`), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = p.do(http.MethodGet, "/api/v1/asistencias/dashboard", nil, resp.Result().Cookies())
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, int32(0), p.dashboardCalls.Load())
}

func TestHealthAndStatus(t *testing.T) {
	p := newPortal(t, "ADMIN")

	resp := p.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"session_store":"memory"`)

	resp = p.do(http.MethodGet, "/api/v1/status", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	p := newPortal(t, "ADMIN")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	p.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	p := newPortal(t, "ADMIN")

	for _, method := range []string{http.MethodOptions, http.MethodGet} {
		req := httptest.NewRequest(method, "/api/v1/auth/session", nil)
		req.Header.Set("Origin", "https://evil.example")
		resp := httptest.NewRecorder()
		p.router.ServeHTTP(resp, req)

		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"), method)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Credentials"), method)
	}
}

func TestUnknownSessionStore(t *testing.T) {
	cfg := &config.Configuration{Session: config.SessionSettings{Store: "etcd"}}
	_, err := dependency.NewDependencyManager(gin.New(), nil, nil, nil, cfg)
	assert.Error(t, err)

	cfg.Session.Store = dependency.StoreRedis
	_, err = dependency.NewDependencyManager(gin.New(), nil, nil, nil, cfg)
	assert.Error(t, err)
}
