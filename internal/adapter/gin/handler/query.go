package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	pkgerrors "book-review-service/pkg/errors"
)

// parsePagination reads the optional page and limit query parameters.
// Absent values are returned as zero so the use case applies its defaults.
func parsePagination(c *gin.Context) (page, limit int64, err error) {
	if page, err = positiveQuery(c, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = positiveQuery(c, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func positiveQuery(c *gin.Context, name string) (int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, pkgerrors.NewValidationError(name, name+" must be a positive integer")
	}
	return v, nil
}
