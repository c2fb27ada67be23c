package aiproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLocalEndpoint(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"http://localhost:8000", true},
		{"http://127.0.0.1:8000", true},
		{"http://0.0.0.0:8000", true},
		{"http://sovereign-ai:8000", true},
		{"https://localhost", true},
		{"https://api.openai.com/v1", false},
		{"http://localhost.evil.com", false},
		{"http://192.168.1.10:8000", false},
		{"http://", false},
		{"", false},
		{"://not-a-url", false},
		{"just some text", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidateLocalEndpoint(tc.url), "url: %q", tc.url)
	}
}

func TestHealthOnline(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	// httptest binds to 127.0.0.1, which is on the allow-list
	client := New(upstream.URL, 5*time.Second, true)
	status := client.Health(context.Background())

	assert.Equal(t, "online", status.Status)
	assert.True(t, status.LLMAvailable)
	assert.True(t, status.EndpointConfigured)
	assert.Equal(t, "demo", status.Mode)
}

func TestHealthOfflineWhenUnreachable(t *testing.T) {
	client := New("http://127.0.0.1:1", 200*time.Millisecond, false)
	status := client.Health(context.Background())

	assert.Equal(t, "offline", status.Status)
	assert.False(t, status.LLMAvailable)
	assert.True(t, status.EndpointConfigured)
	assert.Equal(t, "production", status.Mode)
}

func TestHealthDisallowedEndpointNeverProbed(t *testing.T) {
	client := New("https://api.example.com", time.Second, false)
	status := client.Health(context.Background())

	assert.Equal(t, "offline", status.Status)
	assert.False(t, status.EndpointConfigured)
	assert.Empty(t, status.Endpoint)
}

func TestHealthUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client := New(upstream.URL, time.Second, false)
	status := client.Health(context.Background())

	assert.Equal(t, "error", status.Status)
}

func TestPolicyMappingForwardsIdentityHeaders(t *testing.T) {
	var gotPath, gotID, gotEmail, gotRole string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.Header.Get("X-User-Id")
		gotEmail = r.Header.Get("X-User-Email")
		gotRole = r.Header.Get("X-User-Role")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"mappings":[]}`))
	}))
	defer upstream.Close()

	client := New(upstream.URL, 5*time.Second, true)
	result, err := client.PolicyMapping(context.Background(), []byte(`{"policy":"Access Control"}`), UserIdentity{
		ID:    "8ec9f5f2-1db4-4c1f-9207-21f8a4b0f1aa",
		Email: "ciso@aegisciso.com",
		Role:  "CISO",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/compliance/policy-mapping", gotPath)
	assert.Equal(t, "8ec9f5f2-1db4-4c1f-9207-21f8a4b0f1aa", gotID)
	assert.Equal(t, "ciso@aegisciso.com", gotEmail)
	assert.Equal(t, "CISO", gotRole)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.JSONEq(t, `{"mappings":[]}`, string(result.Body))
}

func TestPolicyMappingRelaysUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"policy text required"}`))
	}))
	defer upstream.Close()

	client := New(upstream.URL, 5*time.Second, true)
	result, err := client.PolicyMapping(context.Background(), []byte(`{}`), UserIdentity{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, result.StatusCode)
	assert.Contains(t, string(result.Body), "policy text required")
}
