package review

import (
	domain "book-review-service/internal/domain/review"
	pkgerrors "book-review-service/pkg/errors"
)

// authorize allows only the author of r to perform action on it.
func authorize(r *domain.Review, userID, action string) error {
	if !r.IsAuthoredBy(userID) {
		return pkgerrors.NewForbiddenError("Not authorized to " + action + " this review")
	}
	return nil
}

func validateRating(rating int) error {
	if !domain.ValidRating(rating) {
		return pkgerrors.NewValidationError("rating", "Rating must be between 1 and 5")
	}
	return nil
}
