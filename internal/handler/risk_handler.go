package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/service"
	"aegisciso/pkg/pagination"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type RiskHandler struct {
	riskService service.RiskService
	authMw      *middleware.AuthMiddleware
}

func NewRiskHandler(riskService service.RiskService, authMw *middleware.AuthMiddleware) *RiskHandler {
	return &RiskHandler{riskService: riskService, authMw: authMw}
}

// RegisterRoutes binds the risk register endpoints
func (h *RiskHandler) RegisterRoutes(router *gin.RouterGroup) {
	risks := router.Group("/risks")
	{
		risks.GET("", h.authMw.RequirePermission("risk:read"), h.ListRisks)
		risks.GET("/:id", h.authMw.RequirePermission("risk:read"), h.GetRisk)
		risks.POST("", h.authMw.RequirePermission("risk:create"), h.CreateRisk)
		risks.PUT("/:id", h.authMw.RequirePermission("risk:update"), h.UpdateRisk)
	}
}

// CreateRisk handles POST /risks
// @Summary      Create a new risk
// @Description  Validates constraints, assigns the next RSK-NNN code and computes the inherent score
// @Tags         risks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRiskRequest  true  "Create Risk Payload"
// @Success      201      {object}  response.Response{data=service.RiskResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/risks [post]
func (h *RiskHandler) CreateRisk(c *gin.Context) {
	var req service.CreateRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	risk, err := h.riskService.CreateRisk(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to create risk"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, risk))
}

// ListRisks handles GET /risks, most recent first
// @Summary      List risks
// @Tags         risks
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/risks [get]
func (h *RiskHandler) ListRisks(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	risks, total, err := h.riskService.ListRisks(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch risks"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"risks": risks,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetRisk handles GET /risks/:id
func (h *RiskHandler) GetRisk(c *gin.Context) {
	risk, err := h.riskService.GetRisk(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, risk))
}

// UpdateRisk handles PUT /risks/:id
func (h *RiskHandler) UpdateRisk(c *gin.Context) {
	var req service.UpdateRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	risk, err := h.riskService.UpdateRisk(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, risk))
}
