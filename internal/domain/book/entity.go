package book

import "time"

// Book represents a catalog entry.
type Book struct {
	ID          string
	Title       string
	Author      string
	Genre       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows book listings. Empty fields are ignored; all matches are
// case-insensitive substring matches.
type Filter struct {
	Author string
	Genre  string
	// Query matches title OR author
	Query string
}

// Patch is a partial update of a book. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Author      *string
	Genre       *string
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil && p.Description == nil
}

// Apply copies every present field of p onto b.
func (p Patch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
}
