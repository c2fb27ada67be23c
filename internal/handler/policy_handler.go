package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/service"
	"aegisciso/pkg/pagination"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	policyService service.PolicyService
	authMw        *middleware.AuthMiddleware
}

func NewPolicyHandler(policyService service.PolicyService, authMw *middleware.AuthMiddleware) *PolicyHandler {
	return &PolicyHandler{policyService: policyService, authMw: authMw}
}

// RegisterRoutes binds the policy register endpoints
func (h *PolicyHandler) RegisterRoutes(router *gin.RouterGroup) {
	policies := router.Group("/policies")
	{
		policies.GET("", h.authMw.RequirePermission("policy:read"), h.ListPolicies)
		policies.GET("/:id", h.authMw.RequirePermission("policy:read"), h.GetPolicy)
		policies.POST("", h.authMw.RequirePermission("policy:create"), h.CreatePolicy)
		policies.PUT("/:id", h.authMw.RequirePermission("policy:update"), h.UpdatePolicy)
	}
}

// CreatePolicy handles POST /policies
// @Summary      Create a new policy
// @Description  Validates constraints and assigns the next POL-XXX-NNN code from the category
// @Tags         policies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePolicyRequest  true  "Create Policy Payload"
// @Success      201      {object}  response.Response{data=service.PolicyResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/policies [post]
func (h *PolicyHandler) CreatePolicy(c *gin.Context) {
	var req service.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	policy, err := h.policyService.CreatePolicy(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to create policy"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, policy))
}

// ListPolicies handles GET /policies, most recent first
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	policies, total, err := h.policyService.ListPolicies(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch policies"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"policies": policies,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetPolicy handles GET /policies/:id
func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	policy, err := h.policyService.GetPolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, policy))
}

// UpdatePolicy handles PUT /policies/:id
func (h *PolicyHandler) UpdatePolicy(c *gin.Context) {
	var req service.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	policy, err := h.policyService.UpdatePolicy(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, policy))
}
