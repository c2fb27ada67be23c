// Package aiproxy talks to the locally hosted sovereign AI inference
// service. Every outbound call is guarded by a hostname allow-list so a
// misconfigured endpoint can never leak GRC data to an external provider.
package aiproxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// AllowedHosts is the closed set of hostnames the AI backend may resolve
// to. Anything else is a sovereignty violation.
var AllowedHosts = []string{"localhost", "127.0.0.1", "0.0.0.0", "sovereign-ai"}

// ValidateLocalEndpoint reports whether raw parses to a URL whose hostname
// is on the allow-list. Malformed URLs fail closed.
func ValidateLocalEndpoint(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	hostname := parsed.Hostname()
	if hostname == "" {
		return false
	}
	for _, allowed := range AllowedHosts {
		if hostname == allowed {
			return true
		}
	}
	return false
}

// HealthStatus mirrors the health payload the dashboards poll.
type HealthStatus struct {
	Status             string  `json:"status"` // online | offline | error
	LLMAvailable       bool    `json:"llm_available"`
	RAGAvailable       bool    `json:"rag_available"`
	Mode               string  `json:"mode"` // demo | production
	EndpointConfigured bool    `json:"endpoint_configured"`
	ResponseTimeMs     int64   `json:"response_time_ms"`
	Version            string  `json:"version,omitempty"`
	Error              string  `json:"error,omitempty"`
	CheckedAt          string  `json:"checked_at"`
	Endpoint           string  `json:"endpoint,omitempty"`
	Latency            float64 `json:"-"`
}

// UserIdentity carries the session identity forwarded to the AI backend.
type UserIdentity struct {
	ID    string
	Email string
	Role  string
}

// ProxyResult relays the upstream response verbatim.
type ProxyResult struct {
	StatusCode int
	Body       []byte
}

// Client is the HTTP client for the sovereign AI service. The timeout is
// fixed; a slow upstream is treated as offline rather than retried.
type Client struct {
	baseURL  string
	demoMode bool
	http     *http.Client
}

// New builds a Client. The base URL is validated per request, not here, so
// a bad configuration is reported as a policy failure instead of a
// constructor error.
func New(baseURL string, timeout time.Duration, demoMode bool) *Client {
	return &Client{
		baseURL:  baseURL,
		demoMode: demoMode,
		http:     &http.Client{Timeout: timeout},
	}
}

// BaseURL exposes the configured endpoint for handler-level validation.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes the upstream /health endpoint. Failures degrade to an
// offline status; no error escapes to the caller.
func (c *Client) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:             "offline",
		Mode:               "production",
		EndpointConfigured: ValidateLocalEndpoint(c.baseURL),
		CheckedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	if c.demoMode {
		status.Mode = "demo"
	}
	if status.EndpointConfigured {
		status.Endpoint = c.baseURL
	} else {
		return status
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		status.Status = "error"
		status.Error = "failed to build health request"
		return status
	}

	resp, err := c.http.Do(req)
	status.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Status = "error"
		return status
	}

	status.Status = "online"
	status.LLMAvailable = true
	status.RAGAvailable = true
	return status
}

// PolicyMapping forwards the request body verbatim to the upstream
// compliance mapping endpoint, stamping the session identity into headers.
// The caller is responsible for the role and sovereignty checks.
func (c *Client) PolicyMapping(ctx context.Context, body []byte, identity UserIdentity) (*ProxyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/compliance/policy-mapping", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", identity.ID)
	req.Header.Set("X-User-Email", identity.Email)
	req.Header.Set("X-User-Role", identity.Role)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &ProxyResult{StatusCode: resp.StatusCode, Body: respBody}, nil
}
