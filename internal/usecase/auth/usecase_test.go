package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"book-review-service/internal/domain/user"
	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/security"
)

var _ UseCase = (*Usecase)(nil)

func TestMain(m *testing.M) {
	security.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(userID string) (string, time.Time, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func setupTestUsecase(t *testing.T) (*Usecase, *MockUserRepository, *MockTokenService) {
	users := new(MockUserRepository)
	tokens := new(MockTokenService)
	return New(users, tokens, zaptest.NewLogger(t)), users, tokens
}

func hashed(t *testing.T, password string) string {
	h, err := security.HashPassword(password)
	require.NoError(t, err)
	return h
}

// ==================== SIGNUP ====================

func TestSignup_Success(t *testing.T) {
	uc, users, tokens := setupTestUsecase(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	users.On("GetByEmail", ctx, "alice@example.com").Return(nil, nil)
	users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
		return u.Name == "Alice" &&
			u.Email == "alice@example.com" &&
			u.PasswordHash != "secret1" &&
			security.CheckPassword("secret1", u.PasswordHash)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*user.User).ID = "u-1"
	}).Return(nil)
	tokens.On("Issue", "u-1").Return("tok", expires, nil)

	session, err := uc.Signup(ctx, SignupRequest{Name: " Alice ", Email: "  Alice@Example.COM ", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, expires, session.ExpiresAt)
	assert.Equal(t, user.Identity{ID: "u-1", Name: "Alice", Email: "alice@example.com"}, session.User)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestSignup_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     SignupRequest
		message string
	}{
		{name: "missing name", req: SignupRequest{Email: "a@b.co", Password: "secret1"}, message: "name is required"},
		{name: "blank name", req: SignupRequest{Name: "   ", Email: "a@b.co", Password: "secret1"}, message: "name is required"},
		{name: "short name", req: SignupRequest{Name: "A", Email: "a@b.co", Password: "secret1"}, message: "name must be at least 2 characters"},
		{name: "bad email", req: SignupRequest{Name: "Alice", Email: "nope", Password: "secret1"}, message: "email must be a valid email"},
		{name: "short password", req: SignupRequest{Name: "Alice", Email: "a@b.co", Password: "12345"}, message: "password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, users, _ := setupTestUsecase(t)

			session, err := uc.Signup(context.Background(), tt.req)

			assert.Nil(t, session)
			var ve *pkgerrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Message, tt.message)
			users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_PasswordTooManyBytes(t *testing.T) {
	uc, _, _ := setupTestUsecase(t)

	// 30 three-byte runes pass the rune check but exceed bcrypt's byte limit
	pw := ""
	for i := 0; i < 30; i++ {
		pw += "€"
	}

	_, err := uc.Signup(context.Background(), SignupRequest{Name: "Alice", Email: "a@b.co", Password: pw})
	var ve *pkgerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	uc, users, _ := setupTestUsecase(t)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "alice@example.com").Return(&user.User{ID: "u-1", Email: "alice@example.com"}, nil)

	session, err := uc.Signup(ctx, SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"})

	assert.Nil(t, session)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, "User with this email already exists", err.Error())
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_DuplicateEmailRace(t *testing.T) {
	uc, users, _ := setupTestUsecase(t)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "alice@example.com").Return(nil, nil)
	users.On("Create", ctx, mock.Anything).Return(pkgerrors.NewConflictError("user", "dup"))

	_, err := uc.Signup(ctx, SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"})

	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, "User with this email already exists", err.Error())
}

func TestSignup_RepositoryError(t *testing.T) {
	uc, users, _ := setupTestUsecase(t)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "alice@example.com").Return(nil, errors.New("connection refused"))

	_, err := uc.Signup(ctx, SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"})

	var ie *pkgerrors.InternalError
	assert.ErrorAs(t, err, &ie)
}

// ==================== LOGIN ====================

func TestLogin_Success(t *testing.T) {
	uc, users, tokens := setupTestUsecase(t)
	ctx := context.Background()
	stored := &user.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", PasswordHash: hashed(t, "secret1")}

	users.On("GetByEmail", ctx, "alice@example.com").Return(stored, nil)
	tokens.On("Issue", "u-1").Return("tok", time.Now(), nil)

	session, err := uc.Login(ctx, LoginRequest{Email: "ALICE@example.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "u-1", session.User.ID)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	uc, users, tokens := setupTestUsecase(t)
	ctx := context.Background()
	stored := &user.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", PasswordHash: hashed(t, "secret1")}

	users.On("GetByEmail", ctx, "alice@example.com").Return(stored, nil)
	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

	_, wrongPassword := uc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	_, unknownEmail := uc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "secret1"})

	for _, err := range []error{wrongPassword, unknownEmail} {
		var ue *pkgerrors.UnauthenticatedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "Invalid email or password", ue.Message)
	}
	tokens.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestLogin_ValidationError(t *testing.T) {
	uc, users, _ := setupTestUsecase(t)

	_, err := uc.Login(context.Background(), LoginRequest{Email: "alice@example.com"})

	var ve *pkgerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password is required", ve.Message)
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

// ==================== AUTHENTICATE ====================

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		uc, _, tokens := setupTestUsecase(t)

		_, err := uc.Authenticate(ctx, "")

		var ue *pkgerrors.UnauthenticatedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "No token provided, unauthorized", ue.Message)
		tokens.AssertNotCalled(t, "Verify", mock.Anything)
	})

	t.Run("invalid token", func(t *testing.T) {
		uc, users, tokens := setupTestUsecase(t)
		tokens.On("Verify", "bad").Return("", errors.New("signature is invalid"))

		_, err := uc.Authenticate(ctx, "bad")

		var ue *pkgerrors.UnauthenticatedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "Invalid token, unauthorized", ue.Message)
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("subject deleted fails closed", func(t *testing.T) {
		uc, users, tokens := setupTestUsecase(t)
		tokens.On("Verify", "tok").Return("u-9", nil)
		users.On("GetByID", ctx, "u-9").Return(nil, nil)

		identity, err := uc.Authenticate(ctx, "tok")

		assert.Nil(t, identity)
		var ue *pkgerrors.UnauthenticatedError
		assert.ErrorAs(t, err, &ue)
	})

	t.Run("valid token", func(t *testing.T) {
		uc, users, tokens := setupTestUsecase(t)
		tokens.On("Verify", "tok").Return("u-1", nil)
		users.On("GetByID", ctx, "u-1").Return(&user.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}, nil)

		identity, err := uc.Authenticate(ctx, "tok")

		require.NoError(t, err)
		assert.Equal(t, &user.Identity{ID: "u-1", Name: "Alice", Email: "alice@example.com"}, identity)
	})
}
