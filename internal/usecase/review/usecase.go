package review

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"book-review-service/internal/domain/book"
	"book-review-service/internal/domain/pagination"
	domain "book-review-service/internal/domain/review"
	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/logger"
	"book-review-service/pkg/metrics"
	"book-review-service/pkg/validation"
)

const (
	msgAlreadyReviewed = "You have already reviewed this book"
	msgReviewNotFound  = "Review not found"
	msgBookNotFound    = "Book not found"
)

// Repository defines the interface for review data access operations.
type Repository interface {
	Create(ctx context.Context, r *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	GetByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error)
	Update(ctx context.Context, r *domain.Review) error
	Delete(ctx context.Context, id string) error
	CountByBook(ctx context.Context, bookID string) (int64, error)
	ListByBook(ctx context.Context, bookID string, page, limit int64) ([]domain.WithAuthor, error)
}

// BookFinder looks up the book a review refers to.
type BookFinder interface {
	GetByID(ctx context.Context, id string) (*book.Book, error)
}

// Usecase implements review creation, ownership-gated mutation and listing.
type Usecase struct {
	reviews  Repository
	books    BookFinder
	log      *zap.Logger
	validate *validation.Validator
}

// New creates a new review Usecase.
func New(reviews Repository, books BookFinder, log *zap.Logger) *Usecase {
	return &Usecase{reviews: reviews, books: books, log: log, validate: validation.New()}
}

// CreateReview stores the caller's review of a book. A user may review a
// book only once.
func (uc *Usecase) CreateReview(ctx context.Context, in CreateReviewRequest) (*ReviewResponse, error) {
	log := logger.WithContext(ctx, uc.log).With(zap.String("book_id", in.BookID))

	if in.UserID == "" {
		return nil, pkgerrors.NewUnauthenticatedError("Not authorized, no user")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := uc.validateFields(in.Rating, in.Comment); err != nil {
		metrics.IncrementReviewMutation("create", "invalid")
		return nil, err
	}

	b, err := uc.books.GetByID(ctx, in.BookID)
	if err != nil {
		log.Error("failed to get book", zap.Error(err))
		metrics.IncrementReviewMutation("create", "error")
		return nil, pkgerrors.NewInternalError("failed to create review", err)
	}
	if b == nil {
		metrics.IncrementReviewMutation("create", "not_found")
		return nil, pkgerrors.NewNotFoundError("book", msgBookNotFound)
	}

	existing, err := uc.reviews.GetByBookAndUser(ctx, in.BookID, in.UserID)
	if err != nil {
		log.Error("failed to check existing review", zap.Error(err))
		metrics.IncrementReviewMutation("create", "error")
		return nil, pkgerrors.NewInternalError("failed to create review", err)
	}
	if existing != nil {
		log.Warn("duplicate review rejected", zap.String("review_id", existing.ID))
		metrics.IncrementReviewMutation("create", "conflict")
		return nil, pkgerrors.NewConflictError("review", msgAlreadyReviewed)
	}

	r := &domain.Review{
		BookID:  in.BookID,
		UserID:  in.UserID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := uc.reviews.Create(ctx, r); err != nil {
		if pkgerrors.IsConflict(err) {
			metrics.IncrementReviewMutation("create", "conflict")
			return nil, pkgerrors.NewConflictError("review", msgAlreadyReviewed)
		}
		log.Error("failed to create review", zap.Error(err))
		metrics.IncrementReviewMutation("create", "error")
		return nil, pkgerrors.NewInternalError("failed to create review", err)
	}

	log.Info("review created", zap.String("review_id", r.ID))
	metrics.IncrementReviewMutation("create", "success")
	return &ReviewResponse{Review: *r}, nil
}

// UpdateReview applies the present fields of the patch to a review owned by the caller.
func (uc *Usecase) UpdateReview(ctx context.Context, in UpdateReviewRequest) (*ReviewResponse, error) {
	log := logger.WithContext(ctx, uc.log).With(zap.String("review_id", in.ID))

	patch := in.Patch
	if patch.Comment.Set {
		patch.Comment.Value = strings.TrimSpace(patch.Comment.Value)
		if err := uc.validate.Var("comment", patch.Comment.Value, fmt.Sprintf("max=%d", MaxCommentLength)); err != nil {
			metrics.IncrementReviewMutation("update", "invalid")
			return nil, err
		}
	}
	if patch.Rating.Set {
		if err := validateRating(patch.Rating.Value); err != nil {
			metrics.IncrementReviewMutation("update", "invalid")
			return nil, err
		}
	}

	r, err := uc.loadOwned(ctx, in.ID, in.UserID, "update")
	if err != nil {
		metrics.IncrementReviewMutation("update", outcome(err))
		return nil, err
	}

	if patch.IsEmpty() {
		return &ReviewResponse{Review: *r}, nil
	}

	patch.Apply(r)
	if err := uc.reviews.Update(ctx, r); err != nil {
		if pkgerrors.IsNotFound(err) {
			metrics.IncrementReviewMutation("update", "not_found")
			return nil, pkgerrors.NewNotFoundError("review", msgReviewNotFound)
		}
		log.Error("failed to update review", zap.Error(err))
		metrics.IncrementReviewMutation("update", "error")
		return nil, pkgerrors.NewInternalError("failed to update review", err)
	}

	log.Info("review updated")
	metrics.IncrementReviewMutation("update", "success")
	return &ReviewResponse{Review: *r}, nil
}

// DeleteReview removes a review owned by the caller.
func (uc *Usecase) DeleteReview(ctx context.Context, in DeleteReviewRequest) error {
	log := logger.WithContext(ctx, uc.log).With(zap.String("review_id", in.ID))

	if _, err := uc.loadOwned(ctx, in.ID, in.UserID, "delete"); err != nil {
		metrics.IncrementReviewMutation("delete", outcome(err))
		return err
	}

	if err := uc.reviews.Delete(ctx, in.ID); err != nil {
		if pkgerrors.IsNotFound(err) {
			metrics.IncrementReviewMutation("delete", "not_found")
			return pkgerrors.NewNotFoundError("review", msgReviewNotFound)
		}
		log.Error("failed to delete review", zap.Error(err))
		metrics.IncrementReviewMutation("delete", "error")
		return pkgerrors.NewInternalError("failed to delete review", err)
	}

	log.Info("review deleted")
	metrics.IncrementReviewMutation("delete", "success")
	return nil
}

// ListBookReviews returns one page of a book's reviews, newest first.
func (uc *Usecase) ListBookReviews(ctx context.Context, in ListBookReviewsRequest) (*ListBookReviewsResponse, error) {
	log := logger.WithContext(ctx, uc.log).With(zap.String("book_id", in.BookID))

	page, limit, err := pagination.Resolve(in.Page, in.Limit, DefaultListLimit)
	if err != nil {
		return nil, err
	}

	total, err := uc.reviews.CountByBook(ctx, in.BookID)
	if err != nil {
		log.Error("failed to count reviews", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list reviews", err)
	}

	reviews := []domain.WithAuthor{}
	if total > 0 {
		reviews, err = uc.reviews.ListByBook(ctx, in.BookID, page, limit)
		if err != nil {
			log.Error("failed to list reviews", zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to list reviews", err)
		}
	}

	return &ListBookReviewsResponse{
		Reviews:    reviews,
		Pagination: pagination.New(total, page, limit),
	}, nil
}

// loadOwned fetches a review and checks that userID authored it.
func (uc *Usecase) loadOwned(ctx context.Context, id, userID, action string) (*domain.Review, error) {
	r, err := uc.reviews.GetByID(ctx, id)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to get review", zap.String("review_id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to "+action+" review", err)
	}
	if r == nil {
		return nil, pkgerrors.NewNotFoundError("review", msgReviewNotFound)
	}
	if err := authorize(r, userID, action); err != nil {
		logger.WithContext(ctx, uc.log).Warn("review ownership check failed",
			zap.String("review_id", id), zap.String("author_id", r.UserID), zap.String("caller_id", userID))
		return nil, err
	}
	return r, nil
}

func (uc *Usecase) validateFields(rating int, comment string) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	return uc.validate.Var("comment", comment, fmt.Sprintf("max=%d", MaxCommentLength))
}

func outcome(err error) string {
	he, ok := pkgerrors.AsHTTPError(err)
	if !ok {
		return "error"
	}
	switch he.(type) {
	case *pkgerrors.NotFoundError:
		return "not_found"
	case *pkgerrors.ForbiddenError:
		return "forbidden"
	default:
		return "error"
	}
}
