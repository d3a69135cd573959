package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "book-review-service/internal/domain/book"
	"book-review-service/internal/domain/pagination"
	"book-review-service/internal/domain/review"
	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/logger"
	"book-review-service/pkg/security"
	"book-review-service/pkg/validation"
)

const msgBookNotFound = "Book not found"

// Repository defines the interface for book data access operations.
type Repository interface {
	Create(ctx context.Context, b *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error) // nil when absent
	Update(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, id string) error // also deletes the book's reviews
	List(ctx context.Context, filter domain.Filter, page, limit int64) ([]domain.Book, int64, error)
}

// ReviewReader is the read side of review storage needed for book details.
type ReviewReader interface {
	CountByBook(ctx context.Context, bookID string) (int64, error)
	ListByBook(ctx context.Context, bookID string, page, limit int64) ([]review.WithAuthor, error)
	AverageRating(ctx context.Context, bookID string) (*float64, error)
}

// Usecase implements the book catalog operations.
type Usecase struct {
	books    Repository
	reviews  ReviewReader
	log      *zap.Logger
	validate *validation.Validator
}

// New creates a new book Usecase.
func New(books Repository, reviews ReviewReader, log *zap.Logger) *Usecase {
	return &Usecase{books: books, reviews: reviews, log: log, validate: validation.New()}
}

// CreateBook validates and stores a new book.
func (uc *Usecase) CreateBook(ctx context.Context, in CreateBookRequest) (*BookResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	in.Description = strings.TrimSpace(in.Description)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	b := &domain.Book{
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		Description: in.Description,
	}
	if err := uc.books.Create(ctx, b); err != nil {
		log.Error("failed to create book", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create book", err)
	}

	log.Info("book created", zap.String("book_id", b.ID))
	return &BookResponse{Book: *b}, nil
}

// ListBooks returns one page of books filtered by author and genre.
func (uc *Usecase) ListBooks(ctx context.Context, in ListBooksRequest) (*ListBooksResponse, error) {
	filter := domain.Filter{
		Author: strings.TrimSpace(in.Author),
		Genre:  strings.TrimSpace(in.Genre),
	}
	return uc.list(ctx, filter, in.Page, in.Limit)
}

// SearchBooks matches query against title or author.
func (uc *Usecase) SearchBooks(ctx context.Context, in SearchBooksRequest) (*ListBooksResponse, error) {
	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		if errors.Is(err, security.ErrSearchQueryTooLong) {
			return nil, pkgerrors.NewValidationError("query", fmt.Sprintf("Search query must be at most %d characters", security.MaxSearchQueryLength))
		}
		return nil, pkgerrors.NewValidationError("query", "Search query contains invalid characters")
	}
	if query == "" {
		return nil, pkgerrors.NewValidationError("query", "Search query is required")
	}

	return uc.list(ctx, domain.Filter{Query: query}, in.Page, in.Limit)
}

func (uc *Usecase) list(ctx context.Context, filter domain.Filter, page, limit int64) (*ListBooksResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	page, limit, err := pagination.Resolve(page, limit, DefaultListLimit)
	if err != nil {
		return nil, err
	}

	books, total, err := uc.books.List(ctx, filter, page, limit)
	if err != nil {
		log.Error("failed to list books", zap.Any("filter", filter), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list books", err)
	}

	return &ListBooksResponse{
		Books:      books,
		Pagination: pagination.New(total, page, limit),
	}, nil
}

// GetBook returns a book with its average rating and one page of reviews.
func (uc *Usecase) GetBook(ctx context.Context, in GetBookRequest) (*GetBookResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	page, limit, err := pagination.Resolve(in.Page, in.Limit, DefaultDetailReviewLimit)
	if err != nil {
		return nil, err
	}

	b, err := uc.books.GetByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get book", zap.String("book_id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get book", err)
	}
	if b == nil {
		return nil, pkgerrors.NewNotFoundError("book", msgBookNotFound)
	}

	var (
		total   int64
		reviews []review.WithAuthor
		average *float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = uc.reviews.CountByBook(gctx, b.ID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = uc.reviews.ListByBook(gctx, b.ID, page, limit)
		return err
	})
	g.Go(func() error {
		var err error
		average, err = uc.reviews.AverageRating(gctx, b.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load book reviews", zap.String("book_id", b.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get book", err)
	}

	return &GetBookResponse{
		Book:          *b,
		AverageRating: FormatAverage(average),
		Reviews:       reviews,
		Pagination:    pagination.New(total, page, limit),
	}, nil
}

// FormatAverage renders a mean rating with two decimals, or nil.
func FormatAverage(avg *float64) *string {
	if avg == nil {
		return nil
	}
	s := fmt.Sprintf("%.2f", *avg)
	return &s
}

// UpdateBook applies a partial update to a book.
func (uc *Usecase) UpdateBook(ctx context.Context, in UpdateBookRequest) (*BookResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if in.Patch.IsEmpty() {
		return nil, pkgerrors.NewValidationError("", "At least one field must be provided")
	}
	patch := trimPatch(in.Patch)
	if err := uc.validatePatch(patch); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	b, err := uc.books.GetByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get book", zap.String("book_id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update book", err)
	}
	if b == nil {
		return nil, pkgerrors.NewNotFoundError("book", msgBookNotFound)
	}

	patch.Apply(b)
	if err := uc.books.Update(ctx, b); err != nil {
		log.Error("failed to update book", zap.String("book_id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update book", err)
	}

	log.Info("book updated", zap.String("book_id", b.ID))
	return &BookResponse{Book: *b}, nil
}

func trimPatch(p domain.Patch) domain.Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return domain.Patch{
		Title:       trim(p.Title),
		Author:      trim(p.Author),
		Genre:       trim(p.Genre),
		Description: trim(p.Description),
	}
}

func (uc *Usecase) validatePatch(p domain.Patch) error {
	checks := []struct {
		field string
		value *string
		tag   string
	}{
		{"title", p.Title, "notblank,max=255"},
		{"author", p.Author, "notblank,max=255"},
		{"genre", p.Genre, "notblank,max=100"},
		{"description", p.Description, "max=5000"},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := uc.validate.Var(c.field, *c.value, c.tag); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBook removes a book and all of its reviews.
func (uc *Usecase) DeleteBook(ctx context.Context, in DeleteBookRequest) error {
	log := logger.WithContext(ctx, uc.log)

	b, err := uc.books.GetByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get book", zap.String("book_id", in.ID), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete book", err)
	}
	if b == nil {
		return pkgerrors.NewNotFoundError("book", msgBookNotFound)
	}

	if err := uc.books.Delete(ctx, in.ID); err != nil {
		log.Error("failed to delete book", zap.String("book_id", in.ID), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete book", err)
	}

	log.Info("book deleted", zap.String("book_id", in.ID))
	return nil
}
