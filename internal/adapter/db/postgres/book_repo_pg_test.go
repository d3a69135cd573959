package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"book-review-service/internal/domain/book"
)

func seedBooks(t *testing.T, repo *BookRepoPG, books ...book.Book) []book.Book {
	out := make([]book.Book, 0, len(books))
	for _, b := range books {
		b := b
		require.NoError(t, repo.Create(context.Background(), &b))
		out = append(out, b)
		// distinct created_at values keep ordering deterministic
		time.Sleep(2 * time.Millisecond)
	}
	return out
}

func TestBookRepoPG_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookRepoPG(db, zaptest.NewLogger(t))

	created := seedBooks(t, repo, book.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Description: "Spice"})[0]
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Spice", got.Description)

	missing, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookRepoPG_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookRepoPG(db, zaptest.NewLogger(t))

	seedBooks(t, repo,
		book.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"},
		book.Book{Title: "Emma", Author: "Jane Austen", Genre: "Romance"},
		book.Book{Title: "Persuasion", Author: "Jane Austen", Genre: "Romance"},
		book.Book{Title: "100%_Done", Author: "Percy Under", Genre: "Self-Help"},
	)

	tests := []struct {
		name   string
		filter book.Filter
		titles []string
	}{
		{name: "no filter returns newest first", filter: book.Filter{}, titles: []string{"100%_Done", "Persuasion", "Emma", "Dune"}},
		{name: "author substring case-insensitive", filter: book.Filter{Author: "AUSTEN"}, titles: []string{"Persuasion", "Emma"}},
		{name: "genre substring", filter: book.Filter{Genre: "sci"}, titles: []string{"Dune"}},
		{name: "author and genre", filter: book.Filter{Author: "jane", Genre: "romance"}, titles: []string{"Persuasion", "Emma"}},
		{name: "query matches title", filter: book.Filter{Query: "emm"}, titles: []string{"Emma"}},
		{name: "query matches author", filter: book.Filter{Query: "herbert"}, titles: []string{"Dune"}},
		{name: "percent is literal", filter: book.Filter{Query: "100%"}, titles: []string{"100%_Done"}},
		{name: "underscore is literal", filter: book.Filter{Query: "_"}, titles: []string{"100%_Done"}},
		{name: "no match", filter: book.Filter{Author: "tolkien"}, titles: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, total, err := repo.List(context.Background(), tt.filter, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.titles)), total)

			titles := make([]string, len(books))
			for i, b := range books {
				titles[i] = b.Title
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestBookRepoPG_List_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookRepoPG(db, zaptest.NewLogger(t))

	for i := 0; i < 5; i++ {
		seedBooks(t, repo, book.Book{Title: "Book", Author: "A", Genre: "G"})
	}

	page1, total, err := repo.List(context.Background(), book.Filter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page1, 2)

	page3, total, err := repo.List(context.Background(), book.Filter{}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page3, 1)

	beyond, _, err := repo.List(context.Background(), book.Filter{}, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestBookRepoPG_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookRepoPG(db, zaptest.NewLogger(t))
	b := seedBooks(t, repo, book.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"})[0]

	b.Title = "Dune Messiah"
	require.NoError(t, repo.Update(context.Background(), &b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, "Frank Herbert", got.Author)
}

func TestBookRepoPG_Delete_RemovesReviews(t *testing.T) {
	db := setupTestDB(t)
	log := zaptest.NewLogger(t)
	books := NewBookRepoPG(db, log)
	users := NewUserRepoPG(db, log)
	reviews := NewReviewRepoPG(db, log)

	b := seedBooks(t, books, book.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"})[0]
	u := createTestUser(t, users, "Alice", "alice@example.com")
	createTestReview(t, reviews, b.ID, u.ID, 4)

	require.NoError(t, books.Delete(context.Background(), b.ID))

	got, err := books.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	count, err := reviews.CountByBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
