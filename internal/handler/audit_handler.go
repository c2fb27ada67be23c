package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/service"
	"aegisciso/pkg/pagination"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	authMw       *middleware.AuthMiddleware
}

func NewAuditHandler(auditService service.AuditService, authMw *middleware.AuthMiddleware) *AuditHandler {
	return &AuditHandler{auditService: auditService, authMw: authMw}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit", h.authMw.RequirePermission("audit:read"), h.ListAuditLogs)
}

// ListAuditLogs handles GET /audit, newest entries first
// @Summary      List audit log entries
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      403    {object}  response.Response
// @Router       /api/audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit logs"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
