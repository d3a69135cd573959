package book

import "context"

// UseCase defines the interface for book catalog operations.
type UseCase interface {
	CreateBook(ctx context.Context, in CreateBookRequest) (*BookResponse, error)
	ListBooks(ctx context.Context, in ListBooksRequest) (*ListBooksResponse, error)
	SearchBooks(ctx context.Context, in SearchBooksRequest) (*ListBooksResponse, error)
	GetBook(ctx context.Context, in GetBookRequest) (*GetBookResponse, error)
	UpdateBook(ctx context.Context, in UpdateBookRequest) (*BookResponse, error)
	DeleteBook(ctx context.Context, in DeleteBookRequest) error
}
