package auth

import (
	"context"

	"book-review-service/internal/domain/user"
)

// UseCase defines account and session operations.
type UseCase interface {
	Signup(ctx context.Context, in SignupRequest) (*Session, error)
	Login(ctx context.Context, in LoginRequest) (*Session, error)
	Authenticate(ctx context.Context, token string) (*user.Identity, error)
}
