package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/model"
	"aegisciso/internal/service"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	authMw      *middleware.AuthMiddleware
}

func NewRoleHandler(roleService service.RoleService, authMw *middleware.AuthMiddleware) *RoleHandler {
	return &RoleHandler{roleService: roleService, authMw: authMw}
}

// RegisterRoutes binds the role and permission matrix endpoints. Listing is
// open to anyone who can read users; editing the matrix is restricted to the
// platform owners.
func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", h.authMw.RequirePermission("user:read"), h.ListRoles)
		roles.GET("/:id", h.authMw.RequirePermission("user:read"), h.GetRole)
		roles.PUT("/:id/permissions", h.authMw.RequireRole(model.RoleCISO, model.RoleAdmin), h.UpdateRolePermissions)
	}
	router.GET("/permissions", h.authMw.RequirePermission("user:read"), h.ListPermissions)
}

// ListRoles handles GET /roles
// @Summary      List roles
// @Description  Lists the built-in roles with their permission sets
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch roles"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole handles GET /roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// ListPermissions handles GET /permissions
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch permissions"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// UpdateRolePermissions handles PUT /roles/:id/permissions. Changes take
// effect for a user on their next token issue; already-issued tokens keep
// their snapshot until expiry.
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}
