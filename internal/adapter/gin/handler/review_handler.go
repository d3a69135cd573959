package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"book-review-service/internal/adapter/gin/middleware"
	domain "book-review-service/internal/domain/review"
	"book-review-service/internal/usecase/review"
	pkgerrors "book-review-service/pkg/errors"
)

// ReviewHandler handles HTTP requests for review operations
type ReviewHandler struct {
	uc  review.UseCase
	log *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler instance
func NewReviewHandler(uc review.UseCase, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{uc: uc, log: log}
}

// CreateReviewRequest represents the HTTP request body for reviewing a book
type CreateReviewRequest struct {
	Rating  *int   `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// UpdateReviewRequest represents the HTTP request body for a partial review
// update. Omitted fields are left unchanged.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// CreateReview handles POST /books/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, h.log, pkgerrors.NewUnauthenticatedError("No token provided, unauthorized"))
		return
	}

	var req CreateReviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.CreateReview(c.Request.Context(), review.CreateReviewRequest{
		BookID:  c.Param("id"),
		UserID:  identity.ID,
		Rating:  *req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toReviewResponse(resp.Review))
}

// ListBookReviews handles GET /books/:id/reviews
func (h *ReviewHandler) ListBookReviews(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.ListBookReviews(c.Request.Context(), review.ListBookReviewsRequest{
		BookID: c.Param("id"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ListReviewsResponse{
		Total:   resp.Pagination.Total,
		Page:    resp.Pagination.Page,
		Pages:   resp.Pagination.Pages,
		Reviews: toReviewWithAuthorResponses(resp.Reviews),
	})
}

// UpdateReview handles PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, h.log, pkgerrors.NewUnauthenticatedError("No token provided, unauthorized"))
		return
	}

	var req UpdateReviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.UpdateReview(c.Request.Context(), review.UpdateReviewRequest{
		ID:     c.Param("id"),
		UserID: identity.ID,
		Patch: domain.Patch{
			Rating:  domain.FromPtr(req.Rating),
			Comment: domain.FromPtr(req.Comment),
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toReviewResponse(resp.Review))
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, h.log, pkgerrors.NewUnauthenticatedError("No token provided, unauthorized"))
		return
	}

	if err := h.uc.DeleteReview(c.Request.Context(), review.DeleteReviewRequest{ID: c.Param("id"), UserID: identity.ID}); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Review deleted successfully"})
}
