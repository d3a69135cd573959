package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"book-review-service/internal/domain/user"
	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/logger"
	"book-review-service/pkg/metrics"
	"book-review-service/pkg/security"
	"book-review-service/pkg/validation"
)

const (
	msgNoToken            = "No token provided, unauthorized"
	msgInvalidToken       = "Invalid token, unauthorized"
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "User with this email already exists"
)

// UserRepository is the credential store used by the auth use case.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// Usecase implements signup, login and token authentication.
type Usecase struct {
	users    UserRepository
	tokens   TokenService
	log      *zap.Logger
	validate *validation.Validator
}

// New creates a new auth Usecase.
func New(users UserRepository, tokens TokenService, log *zap.Logger) *Usecase {
	return &Usecase{users: users, tokens: tokens, log: log, validate: validation.New()}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers an account and opens a session for it.
func (uc *Usecase) Signup(ctx context.Context, in SignupRequest) (*Session, error) {
	log := logger.WithContext(ctx, uc.log)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	log.Info("signing up user", zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("signup validation failed", zap.Error(err))
		metrics.IncrementAuthAttempt("signup", "invalid")
		return nil, err
	}
	// validator counts runes; bcrypt's limit is in bytes
	if len(in.Password) > security.MaxPasswordLength {
		metrics.IncrementAuthAttempt("signup", "invalid")
		return nil, pkgerrors.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", security.MaxPasswordLength))
	}

	existing, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		metrics.IncrementAuthAttempt("signup", "error")
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		log.Warn("email already exists", zap.String("email", in.Email))
		metrics.IncrementAuthAttempt("signup", "conflict")
		return nil, pkgerrors.NewConflictError("user", msgEmailTaken)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		metrics.IncrementAuthAttempt("signup", "error")
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	u := &user.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := uc.users.Create(ctx, u); err != nil {
		if pkgerrors.IsConflict(err) {
			metrics.IncrementAuthAttempt("signup", "conflict")
			return nil, pkgerrors.NewConflictError("user", msgEmailTaken)
		}
		log.Error("failed to create user", zap.Error(err))
		metrics.IncrementAuthAttempt("signup", "error")
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	session, err := uc.openSession(u)
	if err != nil {
		log.Error("failed to issue token", zap.String("user_id", u.ID), zap.Error(err))
		metrics.IncrementAuthAttempt("signup", "error")
		return nil, err
	}

	log.Info("user signed up", zap.String("user_id", u.ID))
	metrics.IncrementAuthAttempt("signup", "success")
	return session, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (uc *Usecase) Login(ctx context.Context, in LoginRequest) (*Session, error) {
	log := logger.WithContext(ctx, uc.log)

	in.Email = normalizeEmail(in.Email)
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("login validation failed", zap.Error(err))
		metrics.IncrementAuthAttempt("login", "invalid")
		return nil, err
	}

	u, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to look up user", zap.String("email", in.Email), zap.Error(err))
		metrics.IncrementAuthAttempt("login", "error")
		return nil, pkgerrors.NewInternalError("failed to log in", err)
	}

	if u == nil {
		security.BurnPasswordCheck(in.Password)
		log.Warn("login for unknown email", zap.String("email", in.Email))
		metrics.IncrementAuthAttempt("login", "failure")
		return nil, pkgerrors.NewUnauthenticatedError(msgInvalidCredentials)
	}
	if !security.CheckPassword(in.Password, u.PasswordHash) {
		log.Warn("login with wrong password", zap.String("user_id", u.ID))
		metrics.IncrementAuthAttempt("login", "failure")
		return nil, pkgerrors.NewUnauthenticatedError(msgInvalidCredentials)
	}

	session, err := uc.openSession(u)
	if err != nil {
		log.Error("failed to issue token", zap.String("user_id", u.ID), zap.Error(err))
		metrics.IncrementAuthAttempt("login", "error")
		return nil, err
	}

	log.Info("user logged in", zap.String("user_id", u.ID))
	metrics.IncrementAuthAttempt("login", "success")
	return session, nil
}

// Authenticate resolves a session token to the identity of a live user.
func (uc *Usecase) Authenticate(ctx context.Context, token string) (*user.Identity, error) {
	log := logger.WithContext(ctx, uc.log)

	if token == "" {
		metrics.IncrementAuthAttempt("token", "missing")
		return nil, pkgerrors.NewUnauthenticatedError(msgNoToken)
	}

	userID, err := uc.tokens.Verify(token)
	if err != nil {
		log.Debug("token verification failed", zap.Error(err))
		metrics.IncrementAuthAttempt("token", "failure")
		return nil, pkgerrors.NewUnauthenticatedError(msgInvalidToken)
	}

	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		log.Error("failed to load token subject", zap.String("user_id", userID), zap.Error(err))
		metrics.IncrementAuthAttempt("token", "error")
		return nil, pkgerrors.NewInternalError("failed to authenticate", err)
	}
	if u == nil {
		log.Warn("token subject no longer exists", zap.String("user_id", userID))
		metrics.IncrementAuthAttempt("token", "failure")
		return nil, pkgerrors.NewUnauthenticatedError(msgInvalidToken)
	}

	metrics.IncrementAuthAttempt("token", "success")
	identity := u.Identity()
	return &identity, nil
}

func (uc *Usecase) openSession(u *user.User) (*Session, error) {
	token, expiresAt, err := uc.tokens.Issue(u.ID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue token", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u.Identity()}, nil
}
