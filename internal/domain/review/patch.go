package review

// Field is an optional patch value. Set distinguishes "absent" from the zero value.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// FromPtr returns a present Field when p is non-nil.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Field[T]{}
	}
	return Some(*p)
}

// Patch is a partial review update. Absent fields are left untouched, never cleared.
type Patch struct {
	Rating  Field[int]
	Comment Field[string]
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.Rating.Set && !p.Comment.Set
}

// Apply copies every present field onto r.
func (p Patch) Apply(r *Review) {
	if p.Rating.Set {
		r.Rating = p.Rating.Value
	}
	if p.Comment.Set {
		r.Comment = p.Comment.Value
	}
}
