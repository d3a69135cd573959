package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"book-review-service/internal/domain/pagination"
	"book-review-service/internal/domain/review"
	pkgerrors "book-review-service/pkg/errors"
)

// ReviewRepoPG implements review persistence using GORM.
type ReviewRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewReviewRepoPG creates a new instance of ReviewRepoPG.
func NewReviewRepoPG(db *gorm.DB, log *zap.Logger) *ReviewRepoPG {
	return &ReviewRepoPG{db: db, log: log}
}

// ReviewSchema represents the database schema for the reviews table.
// idx_reviews_book_user enforces one review per user per book.
type ReviewSchema struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	BookID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_book_user,priority:1"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_book_user,priority:2;index"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for the ReviewSchema model.
func (ReviewSchema) TableName() string {
	return "reviews"
}

func (m *ReviewSchema) toDomain() *review.Review {
	return &review.Review{
		ID:        m.ID,
		BookID:    m.BookID,
		UserID:    m.UserID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// reviewRow is a review joined with its author's name.
type reviewRow struct {
	ID        string
	BookID    string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
	UserName  string
}

// Create inserts a review. A second review for the same (book, user) pair
// yields a *errors.ConflictError from the unique index.
func (r *ReviewRepoPG) Create(ctx context.Context, rv *review.Review) error {
	if rv == nil {
		return errors.New("review cannot be nil")
	}

	model := ReviewSchema{
		ID:      uuid.NewString(),
		BookID:  rv.BookID,
		UserID:  rv.UserID,
		Rating:  rv.Rating,
		Comment: rv.Comment,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("duplicate review", zap.String("book_id", rv.BookID), zap.String("user_id", rv.UserID))
			return pkgerrors.NewConflictError("review", "You have already reviewed this book")
		}
		r.log.Error("failed to create review in db", zap.Error(err), zap.String("book_id", rv.BookID))
		return fmt.Errorf("failed to create review: %w", err)
	}

	*rv = *model.toDomain()
	r.log.Info("review created in db", zap.String("id", model.ID), zap.String("book_id", model.BookID))
	return nil
}

// GetByID retrieves a review by ID. It returns (nil, nil) when no review exists.
func (r *ReviewRepoPG) GetByID(ctx context.Context, id string) (*review.Review, error) {
	var model ReviewSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("review not found", zap.String("id", id))
			return nil, nil
		}
		r.log.Error("failed to get review from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return model.toDomain(), nil
}

// GetByBookAndUser returns the review userID wrote for bookID, or (nil, nil).
func (r *ReviewRepoPG) GetByBookAndUser(ctx context.Context, bookID, userID string) (*review.Review, error) {
	var model ReviewSchema
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to look up review by book and user", zap.Error(err), zap.String("book_id", bookID), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return model.toDomain(), nil
}

// Update persists rating and comment of rv and refreshes its UpdatedAt.
func (r *ReviewRepoPG) Update(ctx context.Context, rv *review.Review) error {
	if rv == nil {
		return errors.New("review cannot be nil")
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&ReviewSchema{}).Where("id = ?", rv.ID).Updates(map[string]any{
		"rating":     rv.Rating,
		"comment":    rv.Comment,
		"updated_at": now,
	})
	if res.Error != nil {
		r.log.Error("failed to update review in db", zap.Error(res.Error), zap.String("id", rv.ID))
		return fmt.Errorf("failed to update review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("review", "Review not found")
	}

	rv.UpdatedAt = now
	r.log.Info("review updated in db", zap.String("id", rv.ID))
	return nil
}

// Delete removes a review by ID.
func (r *ReviewRepoPG) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ReviewSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete review in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("review", "Review not found")
	}

	r.log.Info("review deleted in db", zap.String("id", id))
	return nil
}

// CountByBook returns the number of reviews of bookID.
func (r *ReviewRepoPG) CountByBook(ctx context.Context, bookID string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewSchema{}).Where("book_id = ?", bookID).Count(&total).Error; err != nil {
		r.log.Error("failed to count reviews", zap.Error(err), zap.String("book_id", bookID))
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return total, nil
}

// ListByBook returns one page of reviews of bookID, newest first, with the
// author's display name joined in.
func (r *ReviewRepoPG) ListByBook(ctx context.Context, bookID string, page, limit int64) ([]review.WithAuthor, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id, reviews.book_id, reviews.user_id, reviews.rating, reviews.comment, " +
			"reviews.created_at, reviews.updated_at, COALESCE(users.name, '') AS user_name").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.book_id = ?", bookID).
		Order("reviews.created_at DESC").
		Order("reviews.id DESC").
		Offset(pagination.Offset(page, limit)).
		Limit(int(limit)).
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to list reviews", zap.Error(err), zap.String("book_id", bookID), zap.Int64("page", page), zap.Int64("limit", limit))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]review.WithAuthor, len(rows))
	for i, row := range rows {
		reviews[i] = review.WithAuthor{
			Review: review.Review{
				ID:        row.ID,
				BookID:    row.BookID,
				UserID:    row.UserID,
				Rating:    row.Rating,
				Comment:   row.Comment,
				CreatedAt: row.CreatedAt,
				UpdatedAt: row.UpdatedAt,
			},
			UserName: row.UserName,
		}
	}

	return reviews, nil
}

// AverageRating returns the mean rating of bookID, or nil when it has no reviews.
func (r *ReviewRepoPG) AverageRating(ctx context.Context, bookID string) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Model(&ReviewSchema{}).
		Select("AVG(rating)").
		Where("book_id = ?", bookID).
		Row().
		Scan(&avg)
	if err != nil {
		r.log.Error("failed to compute average rating", zap.Error(err), zap.String("book_id", bookID))
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}

	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
