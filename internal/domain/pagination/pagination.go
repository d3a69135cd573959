package pagination

import (
	"math"

	pkgerrors "book-review-service/pkg/errors"
)

const (
	// DefaultPage is used when the client sends no page
	DefaultPage int64 = 1
	// MaxLimit caps page sizes
	MaxLimit int64 = 100
)

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total int64 // Total number of records
	Page  int64 // Current page number (1-based)
	Limit int64 // Number of records per page
	Pages int64 // Total number of pages, ceil(Total/Limit)
}

// New creates a Pagination with the page count derived from total and limit.
// A zero total yields zero pages.
func New(total, page, limit int64) Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

// Offset returns the number of records to skip for page/limit. It saturates
// at math.MaxInt, so a page far past the end selects nothing.
func Offset(page, limit int64) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return int((page - 1) * limit)
}

// Normalize applies defaults for unset (zero) values and caps limit at MaxLimit.
func Normalize(page, limit, defaultLimit int64) (int64, int64) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Resolve rejects negative page/limit values and then applies Normalize.
// Zero means "not supplied".
func Resolve(page, limit, defaultLimit int64) (int64, int64, error) {
	if page < 0 {
		return 0, 0, pkgerrors.NewValidationError("page", "page must be a positive integer")
	}
	if limit < 0 {
		return 0, 0, pkgerrors.NewValidationError("limit", "limit must be a positive integer")
	}
	page, limit = Normalize(page, limit, defaultLimit)
	return page, limit, nil
}
