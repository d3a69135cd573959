package review

import "context"

// UseCase defines review operations. Mutations take the caller's user id,
// which is always the author of created reviews.
type UseCase interface {
	CreateReview(ctx context.Context, in CreateReviewRequest) (*ReviewResponse, error)
	UpdateReview(ctx context.Context, in UpdateReviewRequest) (*ReviewResponse, error)
	DeleteReview(ctx context.Context, in DeleteReviewRequest) error
	ListBookReviews(ctx context.Context, in ListBookReviewsRequest) (*ListBookReviewsResponse, error)
}
