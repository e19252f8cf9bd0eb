package review

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/handler"
	"github.com/khadra/initiative-api/internal/middleware"
	"github.com/khadra/initiative-api/internal/model"
	reviewService "github.com/khadra/initiative-api/internal/service/review"
)

type Handler struct {
	service *reviewService.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *reviewService.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/initiatives/:id/reviews", h.auth.RequireManager(), h.SubmitReview)
	r.GET("/initiatives/:id/reviews", h.auth.RequireManager(), h.ListReviews)
}

func (h *Handler) SubmitReview(c *gin.Context) {
	initiativeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondBadRequest(c, "invalid initiative ID")
		return
	}

	var req model.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err.Error())
		return
	}

	managerID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), initiativeID, managerID, model.ReviewVote(req.Vote))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusCreated, review)
}

func (h *Handler) ListReviews(c *gin.Context) {
	initiativeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondBadRequest(c, "invalid initiative ID")
		return
	}

	reviews, err := h.service.ListReviews(c.Request.Context(), initiativeID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondOK(c, http.StatusOK, reviews)
}
