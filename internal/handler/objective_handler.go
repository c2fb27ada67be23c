package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/service"
	"aegisciso/pkg/pagination"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type ObjectiveHandler struct {
	objectiveService service.ObjectiveService
	authMw           *middleware.AuthMiddleware
}

func NewObjectiveHandler(objectiveService service.ObjectiveService, authMw *middleware.AuthMiddleware) *ObjectiveHandler {
	return &ObjectiveHandler{objectiveService: objectiveService, authMw: authMw}
}

// RegisterRoutes binds the strategy objective endpoints
func (h *ObjectiveHandler) RegisterRoutes(router *gin.RouterGroup) {
	objectives := router.Group("/objectives")
	{
		objectives.GET("", h.authMw.RequirePermission("objective:read"), h.ListObjectives)
		objectives.GET("/:id", h.authMw.RequirePermission("objective:read"), h.GetObjective)
		objectives.POST("", h.authMw.RequirePermission("objective:create"), h.CreateObjective)
		objectives.PUT("/:id", h.authMw.RequirePermission("objective:update"), h.UpdateObjective)
	}
}

// CreateObjective handles POST /objectives
// @Summary      Create a strategy objective
// @Description  Validates constraints and assigns the next OBJ-NNN code
// @Tags         objectives
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateObjectiveRequest  true  "Create Objective Payload"
// @Success      201      {object}  response.Response{data=service.ObjectiveResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/objectives [post]
func (h *ObjectiveHandler) CreateObjective(c *gin.Context) {
	var req service.CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	objective, err := h.objectiveService.CreateObjective(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to create objective"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, objective))
}

// ListObjectives handles GET /objectives, most recent first
func (h *ObjectiveHandler) ListObjectives(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	objectives, total, err := h.objectiveService.ListObjectives(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch objectives"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"objectives": objectives,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}

// GetObjective handles GET /objectives/:id
func (h *ObjectiveHandler) GetObjective(c *gin.Context) {
	objective, err := h.objectiveService.GetObjective(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, objective))
}

// UpdateObjective handles PUT /objectives/:id
func (h *ObjectiveHandler) UpdateObjective(c *gin.Context) {
	var req service.UpdateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	objective, err := h.objectiveService.UpdateObjective(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, objective))
}
