package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"book-review-service/internal/domain/book"
	"book-review-service/internal/domain/pagination"
	"book-review-service/pkg/security"
)

// likeClause matches a lower-cased column against an escaped pattern
const likeClause = "LOWER(%s) LIKE ? ESCAPE '\\'"

// BookRepoPG implements book persistence using GORM.
type BookRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBookRepoPG creates a new instance of BookRepoPG.
func NewBookRepoPG(db *gorm.DB, log *zap.Logger) *BookRepoPG {
	return &BookRepoPG{db: db, log: log}
}

// BookSchema represents the database schema for the books table.
type BookSchema struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Title       string    `gorm:"not null"`
	Author      string    `gorm:"not null;index"`
	Genre       string    `gorm:"not null;index"`
	Description string    `gorm:"not null;default:''"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for the BookSchema model.
func (BookSchema) TableName() string {
	return "books"
}

func (m *BookSchema) toDomain() *book.Book {
	return &book.Book{
		ID:          m.ID,
		Title:       m.Title,
		Author:      m.Author,
		Genre:       m.Genre,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Create inserts a new book and fills in its generated ID and timestamps.
func (r *BookRepoPG) Create(ctx context.Context, b *book.Book) error {
	if b == nil {
		return errors.New("book cannot be nil")
	}

	model := BookSchema{
		ID:          uuid.NewString(),
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create book in db", zap.Error(err), zap.String("title", b.Title))
		return fmt.Errorf("failed to create book: %w", err)
	}

	*b = *model.toDomain()
	r.log.Info("book created in db", zap.String("id", model.ID))
	return nil
}

// GetByID retrieves a book by ID. It returns (nil, nil) when no book exists.
func (r *BookRepoPG) GetByID(ctx context.Context, id string) (*book.Book, error) {
	var model BookSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("book not found", zap.String("id", id))
			return nil, nil
		}
		r.log.Error("failed to get book from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return model.toDomain(), nil
}

// Update writes every field of b and refreshes UpdatedAt.
func (r *BookRepoPG) Update(ctx context.Context, b *book.Book) error {
	if b == nil {
		return errors.New("book cannot be nil")
	}

	res := r.db.WithContext(ctx).Model(&BookSchema{}).Where("id = ?", b.ID).Updates(map[string]any{
		"title":       b.Title,
		"author":      b.Author,
		"genre":       b.Genre,
		"description": b.Description,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		r.log.Error("failed to update book in db", zap.Error(res.Error), zap.String("id", b.ID))
		return fmt.Errorf("failed to update book: %w", res.Error)
	}

	r.log.Info("book updated in db", zap.String("id", b.ID), zap.Int64("rows", res.RowsAffected))
	return nil
}

// Delete removes a book together with its reviews in one transaction.
func (r *BookRepoPG) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&ReviewSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews of book: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&BookSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to delete book in db", zap.Error(err), zap.String("id", id))
		return err
	}

	r.log.Info("book deleted in db", zap.String("id", id))
	return nil
}

// List returns one page of books matching filter, newest first, and the
// total number of matches.
func (r *BookRepoPG) List(ctx context.Context, filter book.Filter, page, limit int64) ([]book.Book, int64, error) {
	// Session makes the filtered chain reusable for both the count and the page
	query := r.applyFilter(r.db.WithContext(ctx).Model(&BookSchema{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.log.Error("failed to count books", zap.Error(err), zap.Any("filter", filter))
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	var models []BookSchema
	if total > 0 {
		err := query.
			Order("created_at DESC").
			Order("id DESC").
			Offset(pagination.Offset(page, limit)).
			Limit(int(limit)).
			Find(&models).Error
		if err != nil {
			r.log.Error("failed to list books", zap.Error(err), zap.Any("filter", filter), zap.Int64("page", page), zap.Int64("limit", limit))
			return nil, 0, fmt.Errorf("failed to list books: %w", err)
		}
	}

	books := make([]book.Book, len(models))
	for i := range models {
		books[i] = *models[i].toDomain()
	}

	return books, total, nil
}

func (r *BookRepoPG) applyFilter(q *gorm.DB, filter book.Filter) *gorm.DB {
	if filter.Author != "" {
		q = q.Where(fmt.Sprintf(likeClause, "author"), security.ContainsPattern(filter.Author))
	}
	if filter.Genre != "" {
		q = q.Where(fmt.Sprintf(likeClause, "genre"), security.ContainsPattern(filter.Genre))
	}
	if filter.Query != "" {
		pattern := security.ContainsPattern(filter.Query)
		q = q.Where(
			r.db.Where(fmt.Sprintf(likeClause, "title"), pattern).
				Or(fmt.Sprintf(likeClause, "author"), pattern),
		)
	}
	return q
}
