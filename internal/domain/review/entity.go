package review

import "time"

const (
	// MinRating is the lowest accepted rating
	MinRating = 1
	// MaxRating is the highest accepted rating
	MaxRating = 5
)

// Review is one user's rating of one book. At most one review exists per
// (UserID, BookID) pair and only UserID may mutate it.
type Review struct {
	ID        string
	BookID    string
	UserID    string // author
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithAuthor is a review joined with its author's display name.
type WithAuthor struct {
	Review
	UserName string
}

// ValidRating reports whether r lies in [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// IsAuthoredBy reports whether userID owns the review. Identities are
// compared as exact strings.
func (r *Review) IsAuthoredBy(userID string) bool {
	return userID != "" && r.UserID == userID
}
