package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "book-review-service/internal/domain/book"
	"book-review-service/internal/usecase/book"
)

// BookHandler handles HTTP requests for book operations
type BookHandler struct {
	uc  book.UseCase
	log *zap.Logger
}

// NewBookHandler creates a new BookHandler instance
func NewBookHandler(uc book.UseCase, log *zap.Logger) *BookHandler {
	return &BookHandler{uc: uc, log: log}
}

// CreateBookRequest represents the HTTP request body for adding a book
type CreateBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
}

// UpdateBookRequest represents the HTTP request body for a partial book update
type UpdateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Genre       *string `json:"genre"`
	Description *string `json:"description"`
}

// CreateBook handles POST /books
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.CreateBook(c.Request.Context(), book.CreateBookRequest{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toBookResponse(resp.Book))
}

// ListBooks handles GET /books
func (h *BookHandler) ListBooks(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.ListBooks(c.Request.Context(), book.ListBooksRequest{
		Author: c.Query("author"),
		Genre:  c.Query("genre"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toListBooksResponse(resp))
}

// SearchBooks handles GET /books/search
func (h *BookHandler) SearchBooks(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.SearchBooks(c.Request.Context(), book.SearchBooksRequest{
		Query: c.Query("query"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toListBooksResponse(resp))
}

// GetBook handles GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.GetBook(c.Request.Context(), book.GetBookRequest{
		ID:    c.Param("id"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, BookDetailResponse{
		Book:          toBookResponse(resp.Book),
		AverageRating: resp.AverageRating,
		Reviews: ReviewPage{
			Total: resp.Pagination.Total,
			Page:  resp.Pagination.Page,
			Pages: resp.Pagination.Pages,
			Data:  toReviewWithAuthorResponses(resp.Reviews),
		},
	})
}

// UpdateBook handles PUT /books/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	var req UpdateBookRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.uc.UpdateBook(c.Request.Context(), book.UpdateBookRequest{
		ID: c.Param("id"),
		Patch: domain.Patch{
			Title:       req.Title,
			Author:      req.Author,
			Genre:       req.Genre,
			Description: req.Description,
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(resp.Book))
}

// DeleteBook handles DELETE /books/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	if err := h.uc.DeleteBook(c.Request.Context(), book.DeleteBookRequest{ID: c.Param("id")}); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
}

func toListBooksResponse(resp *book.ListBooksResponse) ListBooksResponse {
	return ListBooksResponse{
		Total: resp.Pagination.Total,
		Page:  resp.Pagination.Page,
		Pages: resp.Pagination.Pages,
		Books: toBookResponses(resp.Books),
	}
}
