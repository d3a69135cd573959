package security

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length (in characters) for search terms
	MaxSearchQueryLength = 100
)

var (
	// ErrSearchQueryTooLong is returned for terms above MaxSearchQueryLength characters
	ErrSearchQueryTooLong = errors.New("search query too long")
	// ErrSearchQueryInvalid is returned for terms with control characters or invalid UTF-8
	ErrSearchQueryInvalid = errors.New("search query contains invalid characters")
)

// ValidateSearchQuery trims a free-text search term and rejects terms that
// are too long or carry control characters. Titles legitimately contain SQL
// keywords and punctuation, so those are accepted and the term is only ever
// bound as a query parameter.
func ValidateSearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if !utf8.ValidString(query) {
		return "", ErrSearchQueryInvalid
	}

	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrSearchQueryTooLong
	}

	for _, char := range query {
		if unicode.IsControl(char) {
			return "", ErrSearchQueryInvalid
		}
	}

	return query, nil
}

// SanitizeSearchString escapes LIKE wildcards so the term matches literally.
// Callers must use ESCAPE '\' in the LIKE clause.
func SanitizeSearchString(query string) string {
	if query == "" {
		return ""
	}

	query = strings.ReplaceAll(query, `\`, `\\`)
	query = strings.ReplaceAll(query, "%", `\%`)
	query = strings.ReplaceAll(query, "_", `\_`)

	return query
}

// ContainsPattern builds a case-insensitive LIKE pattern matching term as a substring.
func ContainsPattern(term string) string {
	return "%" + SanitizeSearchString(strings.ToLower(term)) + "%"
}
