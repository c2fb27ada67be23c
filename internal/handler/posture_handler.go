package handler

import (
	"net/http"

	"aegisciso/internal/middleware"
	"aegisciso/internal/service"
	"aegisciso/pkg/response"

	"github.com/gin-gonic/gin"
)

type PostureHandler struct {
	postureService service.PostureService
	authMw         *middleware.AuthMiddleware
}

func NewPostureHandler(postureService service.PostureService, authMw *middleware.AuthMiddleware) *PostureHandler {
	return &PostureHandler{postureService: postureService, authMw: authMw}
}

// RegisterRoutes binds the executive dashboard endpoint. Risk read access is
// the gate; every role with register visibility can see the aggregates.
func (h *PostureHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/posture", h.authMw.RequirePermission("risk:read"), h.GetPosture)
}

// GetPosture handles GET /posture
// @Summary      Security posture summary
// @Description  Aggregated risk, compliance and objective scores for the executive dashboard, each bounded to [0,100]
// @Tags         posture
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.PostureResponse}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/posture [get]
func (h *PostureHandler) GetPosture(c *gin.Context) {
	posture, err := h.postureService.GetPosture(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute posture"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, posture))
}
