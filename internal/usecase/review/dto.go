package review

import (
	"book-review-service/internal/domain/pagination"
	domain "book-review-service/internal/domain/review"
)

// DefaultListLimit is the page size of per-book review listings
const DefaultListLimit int64 = 10

// MaxCommentLength bounds review comments
const MaxCommentLength = 5000

// CreateReviewRequest represents a new review of BookID by UserID.
type CreateReviewRequest struct {
	BookID  string
	UserID  string
	Rating  int
	Comment string
}

// UpdateReviewRequest is a partial update of review ID requested by UserID.
type UpdateReviewRequest struct {
	ID     string
	UserID string
	Patch  domain.Patch
}

// DeleteReviewRequest asks to delete review ID on behalf of UserID.
type DeleteReviewRequest struct {
	ID     string
	UserID string
}

// ReviewResponse wraps a single review.
type ReviewResponse struct {
	Review domain.Review
}

// ListBookReviewsRequest selects one page of a book's reviews.
type ListBookReviewsRequest struct {
	BookID string
	Page   int64
	Limit  int64
}

// ListBookReviewsResponse is one page of reviews with author names.
type ListBookReviewsResponse struct {
	Reviews    []domain.WithAuthor
	Pagination pagination.Pagination
}
