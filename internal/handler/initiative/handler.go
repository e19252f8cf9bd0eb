package initiative

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/handler"
	"github.com/khadra/initiative-api/internal/middleware"
	"github.com/khadra/initiative-api/internal/model"
	initiativeService "github.com/khadra/initiative-api/internal/service/initiative"
)

type Handler struct {
	service *initiativeService.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *initiativeService.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	initiatives := r.Group("/initiatives")
	{
		initiatives.POST("", h.auth.RequireManager(), h.CreateInitiative)
		initiatives.GET("", h.ListInitiatives)
		initiatives.GET("/:id", h.GetInitiative)
		initiatives.POST("/:id/volunteers", h.Join)
		initiatives.POST("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) CreateInitiative(c *gin.Context) {
	var req model.CreateInitiativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	initiative, err := h.service.CreateInitiative(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusCreated, initiative)
}

func (h *Handler) GetInitiative(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondBadRequest(c, "invalid initiative ID")
		return
	}

	initiative, err := h.service.GetInitiative(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusOK, initiative)
}

func (h *Handler) ListInitiatives(c *gin.Context) {
	filters := &model.InitiativeFilters{}

	if status := c.Query("status"); status != "" {
		filters.Status = model.InitiativeStatus(status)
	}
	if id := c.Query("city_id"); id != "" {
		cityID, err := uuid.Parse(id)
		if err != nil {
			handler.RespondBadRequest(c, "invalid city ID")
			return
		}
		filters.CityID = cityID
	}

	initiatives, err := h.service.ListInitiatives(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusOK, initiatives)
}

func (h *Handler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondBadRequest(c, "invalid initiative ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if err := h.service.Join(c.Request.Context(), id, userID); err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusOK, gin.H{"joined": true})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondBadRequest(c, "invalid initiative ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, userID); err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusOK, gin.H{"cancelled": true})
}
