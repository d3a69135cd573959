package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"book-review-service/internal/domain/book"
	"book-review-service/internal/domain/review"
	pkgerrors "book-review-service/pkg/errors"
)

func createTestReview(t *testing.T, repo *ReviewRepoPG, bookID, userID string, rating int) *review.Review {
	rv := &review.Review{BookID: bookID, UserID: userID, Rating: rating, Comment: "comment"}
	require.NoError(t, repo.Create(context.Background(), rv))
	return rv
}

type reviewFixture struct {
	books   *BookRepoPG
	users   *UserRepoPG
	reviews *ReviewRepoPG
	bookID  string
}

func newReviewFixture(t *testing.T) *reviewFixture {
	db := setupTestDB(t)
	log := zaptest.NewLogger(t)
	f := &reviewFixture{
		books:   NewBookRepoPG(db, log),
		users:   NewUserRepoPG(db, log),
		reviews: NewReviewRepoPG(db, log),
	}
	f.bookID = seedBooks(t, f.books, book.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"})[0].ID
	return f
}

func TestReviewRepoPG_Create(t *testing.T) {
	f := newReviewFixture(t)
	u := createTestUser(t, f.users, "Alice", "alice@example.com")

	rv := createTestReview(t, f.reviews, f.bookID, u.ID, 5)
	assert.NotEmpty(t, rv.ID)
	assert.Equal(t, 5, rv.Rating)
	assert.False(t, rv.CreatedAt.IsZero())
}

func TestReviewRepoPG_Create_Duplicate(t *testing.T) {
	f := newReviewFixture(t)
	u := createTestUser(t, f.users, "Alice", "alice@example.com")
	createTestReview(t, f.reviews, f.bookID, u.ID, 5)

	err := f.reviews.Create(context.Background(), &review.Review{BookID: f.bookID, UserID: u.ID, Rating: 3})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, "You have already reviewed this book", err.Error())

	count, err := f.reviews.CountByBook(context.Background(), f.bookID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReviewRepoPG_GetByBookAndUser(t *testing.T) {
	f := newReviewFixture(t)
	alice := createTestUser(t, f.users, "Alice", "alice@example.com")
	bob := createTestUser(t, f.users, "Bob", "bob@example.com")
	rv := createTestReview(t, f.reviews, f.bookID, alice.ID, 4)

	got, err := f.reviews.GetByBookAndUser(context.Background(), f.bookID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rv.ID, got.ID)

	none, err := f.reviews.GetByBookAndUser(context.Background(), f.bookID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestReviewRepoPG_UpdateAndDelete(t *testing.T) {
	f := newReviewFixture(t)
	u := createTestUser(t, f.users, "Alice", "alice@example.com")
	rv := createTestReview(t, f.reviews, f.bookID, u.ID, 2)

	rv.Rating = 5
	rv.Comment = "changed my mind"
	require.NoError(t, f.reviews.Update(context.Background(), rv))

	got, err := f.reviews.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "changed my mind", got.Comment)

	require.NoError(t, f.reviews.Delete(context.Background(), rv.ID))

	gone, err := f.reviews.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	err = f.reviews.Delete(context.Background(), rv.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = f.reviews.Update(context.Background(), rv)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReviewRepoPG_ListByBook(t *testing.T) {
	f := newReviewFixture(t)
	alice := createTestUser(t, f.users, "Alice", "alice@example.com")
	bob := createTestUser(t, f.users, "Bob", "bob@example.com")

	createTestReview(t, f.reviews, f.bookID, alice.ID, 4)
	time.Sleep(2 * time.Millisecond)
	createTestReview(t, f.reviews, f.bookID, bob.ID, 2)

	reviews, err := f.reviews.ListByBook(context.Background(), f.bookID, 1, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Bob", reviews[0].UserName)
	assert.Equal(t, 2, reviews[0].Rating)
	assert.Equal(t, "Alice", reviews[1].UserName)

	second, err := f.reviews.ListByBook(context.Background(), f.bookID, 2, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, alice.ID, second[0].UserID)

	empty, err := f.reviews.ListByBook(context.Background(), "other-book", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReviewRepoPG_AverageRating(t *testing.T) {
	f := newReviewFixture(t)

	avg, err := f.reviews.AverageRating(context.Background(), f.bookID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	alice := createTestUser(t, f.users, "Alice", "alice@example.com")
	bob := createTestUser(t, f.users, "Bob", "bob@example.com")
	createTestReview(t, f.reviews, f.bookID, alice.ID, 4)
	createTestReview(t, f.reviews, f.bookID, bob.ID, 5)

	avg, err = f.reviews.AverageRating(context.Background(), f.bookID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 4.5, *avg, 0.0001)
}
