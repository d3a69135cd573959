package handler

import (
	"time"

	"book-review-service/internal/domain/book"
	"book-review-service/internal/domain/review"
)

// BookResponse is the JSON form of a book
type BookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ReviewResponse is the JSON form of a review
type ReviewResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewAuthor is the reviewer summary embedded in listed reviews
type ReviewAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReviewWithAuthorResponse is a listed review with its reviewer's name
type ReviewWithAuthorResponse struct {
	ReviewResponse
	User ReviewAuthor `json:"user"`
}

// ListBooksResponse is one page of books
type ListBooksResponse struct {
	Total int64          `json:"total"`
	Page  int64          `json:"page"`
	Pages int64          `json:"pages"`
	Books []BookResponse `json:"books"`
}

// ReviewPage is the page of reviews embedded in book details
type ReviewPage struct {
	Total int64                      `json:"total"`
	Page  int64                      `json:"page"`
	Pages int64                      `json:"pages"`
	Data  []ReviewWithAuthorResponse `json:"data"`
}

// BookDetailResponse is a book with rating summary and reviews
type BookDetailResponse struct {
	Book          BookResponse `json:"book"`
	AverageRating *string      `json:"averageRating"`
	Reviews       ReviewPage   `json:"reviews"`
}

// ListReviewsResponse is one page of a book's reviews
type ListReviewsResponse struct {
	Total   int64                      `json:"total"`
	Page    int64                      `json:"page"`
	Pages   int64                      `json:"pages"`
	Reviews []ReviewWithAuthorResponse `json:"reviews"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

func toBookResponse(b book.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toBookResponses(books []book.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = toBookResponse(b)
	}
	return out
}

func toReviewResponse(r review.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReviewWithAuthorResponses(reviews []review.WithAuthor) []ReviewWithAuthorResponse {
	out := make([]ReviewWithAuthorResponse, len(reviews))
	for i, r := range reviews {
		out[i] = ReviewWithAuthorResponse{
			ReviewResponse: toReviewResponse(r.Review),
			User:           ReviewAuthor{ID: r.UserID, Name: r.UserName},
		}
	}
	return out
}
