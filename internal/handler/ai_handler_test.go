package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aegisciso/internal/aiproxy"
	"aegisciso/internal/middleware"
	"aegisciso/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func signTestToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "8ec9f5f2-1db4-4c1f-9207-21f8a4b0f1aa",
		"email": "user@aegisciso.com",
		"role":  role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newAITestRouter(client *aiproxy.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	authMw := middleware.NewAuthMiddleware(testSecret, false)
	router := gin.New()
	NewAIHandler(client, authMw).RegisterRoutes(router.Group("/api"))
	return router
}

func postMapping(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/policy-mapping", strings.NewReader(`{"policy":"Access Control"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPolicyMappingRequiresAuthentication(t *testing.T) {
	client := aiproxy.New("http://localhost:8000", time.Second, true)
	router := newAITestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/policy-mapping", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPolicyMappingForbiddenForReadOnlyRole(t *testing.T) {
	upstreamCalls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	router := newAITestRouter(aiproxy.New(upstream.URL, 5*time.Second, true))

	for _, role := range []string{model.RoleAnalyst, model.RoleViewer} {
		rec := postMapping(router, signTestToken(t, role))
		assert.Equal(t, http.StatusForbidden, rec.Code, "role: %s", role)
	}
	// The upstream must never see a denied request
	assert.Zero(t, upstreamCalls)
}

func TestPolicyMappingAllowedRoleIsProxied(t *testing.T) {
	var gotRole string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.Header.Get("X-User-Role")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"mappings":[{"framework":"NCA-ECC"}]}`))
	}))
	defer upstream.Close()

	router := newAITestRouter(aiproxy.New(upstream.URL, 5*time.Second, true))

	rec := postMapping(router, signTestToken(t, model.RoleGRCAnalyst))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleGRCAnalyst, gotRole)
	assert.Contains(t, rec.Body.String(), "NCA-ECC")
}

func TestPolicyMappingBlocksExternalEndpoint(t *testing.T) {
	router := newAITestRouter(aiproxy.New("https://api.openai.com/v1", time.Second, false))

	rec := postMapping(router, signTestToken(t, model.RoleCISO))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not an approved local service")
}

func TestPolicyMappingUpstreamDownIsServiceUnavailable(t *testing.T) {
	router := newAITestRouter(aiproxy.New("http://127.0.0.1:1", 200*time.Millisecond, false))

	rec := postMapping(router, signTestToken(t, model.RoleCISO))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAIHealthBlocksExternalEndpoint(t *testing.T) {
	router := newAITestRouter(aiproxy.New("https://api.openai.com/v1", time.Second, false))

	req := httptest.NewRequest(http.MethodGet, "/api/ai/health", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, model.RoleViewer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAIHealthDegradesInsteadOfFailing(t *testing.T) {
	router := newAITestRouter(aiproxy.New("http://127.0.0.1:1", 200*time.Millisecond, true))

	req := httptest.NewRequest(http.MethodGet, "/api/ai/health", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, model.RoleViewer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"offline"`)
}
