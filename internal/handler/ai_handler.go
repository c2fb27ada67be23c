package handler

import (
	"io"
	"log"
	"net/http"

	"aegisciso/internal/aiproxy"
	"aegisciso/internal/middleware"
	"aegisciso/internal/model"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

// aiMappingRoles are the roles allowed to invoke the policy mapping
// endpoint. Read-only roles can see AI health but never trigger inference.
var aiMappingRoles = []string{model.RoleCISO, model.RoleGRCAnalyst, model.RoleAdmin, model.RoleSOCManager}

type AIHandler struct {
	client *aiproxy.Client
	authMw *middleware.AuthMiddleware
}

func NewAIHandler(client *aiproxy.Client, authMw *middleware.AuthMiddleware) *AIHandler {
	return &AIHandler{client: client, authMw: authMw}
}

// RegisterRoutes binds the sovereign AI endpoints
func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup) {
	ai := router.Group("/ai")
	{
		ai.GET("/health", h.authMw.Authenticated(), h.Health)
		ai.POST("/policy-mapping", h.authMw.Authenticated(), h.PolicyMapping)
	}
}

// Health handles GET /ai/health
// @Summary      AI backend health
// @Description  Probes the local inference service; reports degraded status instead of failing
// @Tags         ai
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=aiproxy.HealthStatus}
// @Success      503  {object}  response.Response{data=aiproxy.HealthStatus}
// @Failure      403  {object}  response.Response
// @Router       /api/ai/health [get]
func (h *AIHandler) Health(c *gin.Context) {
	if !aiproxy.ValidateLocalEndpoint(h.client.BaseURL()) {
		log.Printf("SOVEREIGNTY VIOLATION: AI endpoint %q is not on the local allow-list", h.client.BaseURL())
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "AI endpoint is not an approved local service"))
		return
	}

	status := h.client.Health(c.Request.Context())

	code := http.StatusOK
	if status.Status != "online" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response.Success(code, status))
}

// PolicyMapping handles POST /ai/policy-mapping. The request body is
// forwarded verbatim to the local inference service after the role and
// endpoint sovereignty checks pass; the upstream status and body are
// relayed as-is.
// @Summary      AI policy-to-framework mapping
// @Description  Proxies a mapping request to the sovereign AI backend with the session identity attached
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  object
// @Failure      403  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /api/ai/policy-mapping [post]
func (h *AIHandler) PolicyMapping(c *gin.Context) {
	role := c.GetString(middleware.CtxUserRole)
	allowed := false
	for _, r := range aiMappingRoles {
		if role == r {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
		return
	}

	if !aiproxy.ValidateLocalEndpoint(h.client.BaseURL()) {
		log.Printf("SOVEREIGNTY VIOLATION: AI endpoint %q is not on the local allow-list; refusing to forward", h.client.BaseURL())
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "AI endpoint is not an approved local service"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read request body"))
		return
	}

	identity := aiproxy.UserIdentity{
		ID:    c.GetString(middleware.CtxUserID),
		Email: c.GetString(middleware.CtxUserEmail),
		Role:  role,
	}

	result, err := h.client.PolicyMapping(c.Request.Context(), body, identity)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "AI service is unavailable"))
		return
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}
