package book

import (
	domain "book-review-service/internal/domain/book"
	"book-review-service/internal/domain/pagination"
	"book-review-service/internal/domain/review"
)

const (
	// DefaultListLimit is the page size of book listings and searches
	DefaultListLimit int64 = 10
	// DefaultDetailReviewLimit is the page size of reviews embedded in book details
	DefaultDetailReviewLimit int64 = 5
)

// CreateBookRequest represents the request payload for adding a book.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Author      string `json:"author" validate:"required,notblank,max=255"`
	Genre       string `json:"genre" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=5000"`
}

// BookResponse wraps a single book.
type BookResponse struct {
	Book domain.Book
}

// ListBooksRequest represents optional listing filters. Zero Page/Limit use defaults.
type ListBooksRequest struct {
	Author string
	Genre  string
	Page   int64
	Limit  int64
}

// SearchBooksRequest represents a free-text search over title and author.
type SearchBooksRequest struct {
	Query string
	Page  int64
	Limit int64
}

// ListBooksResponse is one page of books.
type ListBooksResponse struct {
	Books      []domain.Book
	Pagination pagination.Pagination
}

// GetBookRequest selects a book and the page of its reviews to embed.
type GetBookRequest struct {
	ID    string
	Page  int64
	Limit int64
}

// GetBookResponse is a book with its rating summary and a page of reviews.
type GetBookResponse struct {
	Book domain.Book
	// AverageRating is the mean rating with two decimals, nil without reviews
	AverageRating *string
	Reviews       []review.WithAuthor
	Pagination    pagination.Pagination
}

// UpdateBookRequest is a partial update of a book.
type UpdateBookRequest struct {
	ID    string
	Patch domain.Patch
}

// DeleteBookRequest identifies the book to remove.
type DeleteBookRequest struct {
	ID string
}
