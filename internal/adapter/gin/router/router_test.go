package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"book-review-service/internal/adapter/db/postgres"
	"book-review-service/internal/adapter/gin/handler"
	"book-review-service/internal/adapter/gin/middleware"
	"book-review-service/internal/testutil"
	"book-review-service/internal/usecase/auth"
	"book-review-service/internal/usecase/book"
	"book-review-service/internal/usecase/review"
	"book-review-service/pkg/security"
	"book-review-service/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, health HealthCheck) *testServer {
	t.Helper()
	return newTestServerWithOptions(t, Options{Health: health})
}

// newTestServerWithOptions wires real repositories on SQLite. RequireAuth is
// filled in with the real auth gate.
func newTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	orig := security.HashCost
	security.HashCost = bcrypt.MinCost
	t.Cleanup(func() { security.HashCost = orig })

	log := zaptest.NewLogger(t)
	db := testutil.NewSQLiteDB(t)

	users := postgres.NewUserRepoPG(db, log)
	books := postgres.NewBookRepoPG(db, log)
	reviews := postgres.NewReviewRepoPG(db, log)

	tokens, err := token.NewService("router-test-secret-at-least-32-bytes")
	require.NoError(t, err)

	authUC := auth.New(users, tokens, log)
	bookUC := book.New(books, reviews, log)
	reviewUC := review.New(reviews, books, log)

	opts.ServiceName = "book-review-service"
	opts.RequireAuth = middleware.Auth(authUC, "token", log)

	r := SetupRouter(Handlers{
		Auth:    handler.NewAuthHandler(authUC, handler.CookieConfig{Name: "token"}, log),
		Books:   handler.NewBookHandler(bookUC, log),
		Reviews: handler.NewReviewHandler(reviewUC, log),
	}, opts, log)

	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(name, email string) (id, tok string) {
	s.t.Helper()

	w := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID, sessionCookie(s.t, w)
}

// sessionCookie returns the session token set by signup or login.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			require.NotEmpty(t, c.Value)
			return c.Value
		}
	}
	t.Fatalf("no session cookie in response")
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRouter_ReviewLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	aliceID, _ := s.signup("Alice", "alice@example.com")

	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ALICE@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode(t, w)
	assert.Equal(t, "Successfully logged in", login["message"])
	assert.Equal(t, aliceID, login["id"])
	assert.NotContains(t, login, "token")
	aliceToken := sessionCookie(t, w)

	w = s.do(http.MethodPost, "/books", aliceToken, map[string]string{
		"title": "Dune", "author": "Frank Herbert", "genre": "Science Fiction",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookID := decode(t, w)["id"].(string)

	// browsers send the session cookie instead of a bearer header
	req := httptest.NewRequest(http.MethodPut, "/books/"+bookID, strings.NewReader(`{"genre":"Sci-Fi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "token", Value: aliceToken})
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sci-Fi", decode(t, w)["genre"])

	w = s.do(http.MethodPost, "/books/"+bookID+"/reviews", aliceToken, map[string]any{
		"rating": 4, "comment": "Great world building",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	reviewID := created["id"].(string)
	assert.Equal(t, aliceID, created["userId"])
	assert.Equal(t, bookID, created["bookId"])

	w = s.do(http.MethodGet, "/books/"+bookID, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decode(t, w)
	assert.Equal(t, "4.00", detail["averageRating"])
	reviews := detail["reviews"].(map[string]any)
	assert.EqualValues(t, 1, reviews["total"])
	data := reviews["data"].([]any)
	require.Len(t, data, 1)
	author := data[0].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Alice", author["name"])

	t.Run("second review by same user is rejected", func(t *testing.T) {
		w := s.do(http.MethodPost, "/books/"+bookID+"/reviews", aliceToken, map[string]any{"rating": 2})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "You have already reviewed this book", decode(t, w)["message"])
	})

	t.Run("another user cannot modify the review", func(t *testing.T) {
		_, carolToken := s.signup("Carol", "carol@example.com")

		w := s.do(http.MethodPut, "/reviews/"+reviewID, carolToken, map[string]any{"rating": 1})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Not authorized to update this review", decode(t, w)["message"])

		w = s.do(http.MethodDelete, "/reviews/"+reviewID, carolToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("author updates and deletes the review", func(t *testing.T) {
		w := s.do(http.MethodPut, "/reviews/"+reviewID, aliceToken, map[string]any{"rating": 5})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode(t, w)
		assert.EqualValues(t, 5, updated["rating"])
		assert.Equal(t, "Great world building", updated["comment"])

		w = s.do(http.MethodDelete, "/reviews/"+reviewID, aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Review deleted successfully", decode(t, w)["message"])

		w = s.do(http.MethodGet, "/books/"+bookID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decode(t, w)["averageRating"])
	})
}

func TestRouter_SearchAndList(t *testing.T) {
	s := newTestServer(t, nil)
	_, tok := s.signup("Alice", "alice@example.com")

	for _, b := range []map[string]string{
		{"title": "Dune", "author": "Frank Herbert", "genre": "Science Fiction"},
		{"title": "Emma", "author": "Jane Austen", "genre": "Romance"},
		{"title": "Persuasion", "author": "Jane Austen", "genre": "Romance"},
	} {
		w := s.do(http.MethodPost, "/books", tok, b)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/books?author=jane%20austen&limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 2, list["total"])
	assert.EqualValues(t, 2, list["pages"])
	assert.Len(t, list["books"], 1)

	w = s.do(http.MethodGet, "/books/search?query=herb", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode(t, w)
	assert.EqualValues(t, 1, found["total"])

	w = s.do(http.MethodGet, "/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/books?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/books?page=92233720368547760&limit=100", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	farPage := decode(t, w)
	assert.EqualValues(t, 3, farPage["total"])
	assert.Empty(t, farPage["books"])
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
		token  string
		want   string
	}{
		{http.MethodPost, "/books", "", "No token provided, unauthorized"},
		{http.MethodPut, "/books/abc", "", "No token provided, unauthorized"},
		{http.MethodDelete, "/books/abc", "garbage", "Invalid token, unauthorized"},
		{http.MethodPost, "/books/abc/reviews", "", "No token provided, unauthorized"},
		{http.MethodPut, "/reviews/abc", "garbage", "Invalid token, unauthorized"},
		{http.MethodDelete, "/reviews/abc", "", "No token provided, unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, map[string]any{})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["message"])
		})
	}
}

func TestRouter_Operational(t *testing.T) {
	t.Run("health ok", func(t *testing.T) {
		s := newTestServer(t, func(context.Context) error { return nil })
		w := s.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decode(t, w)["status"])
	})

	t.Run("health reports unreachable database", func(t *testing.T) {
		s := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
		w := s.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", decode(t, w)["status"])
	})

	s := newTestServer(t, nil)

	t.Run("unknown route", func(t *testing.T) {
		w := s.do(http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decode(t, w)["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/auth/login", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("openapi document", func(t *testing.T) {
		w := s.do(http.MethodGet, "/swagger/bookreview.swagger.json", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2.0", decode(t, w)["swagger"])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	})
}

func TestRouter_CORS(t *testing.T) {
	const origin = "https://books.example.com"

	preflight := func(s *testServer, from string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/books", nil)
		req.Header.Set("Origin", from)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	t.Run("preflight from allowed origin", func(t *testing.T) {
		s := newTestServerWithOptions(t, Options{CORS: middleware.CORSConfig{
			AllowedOrigins: []string{origin},
			MaxAge:         10 * time.Minute,
		}})

		w := preflight(s, origin)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "authorization")
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from unknown origin is refused", func(t *testing.T) {
		s := newTestServerWithOptions(t, Options{CORS: middleware.CORSConfig{AllowedOrigins: []string{origin}}})

		w := preflight(s, "https://elsewhere.example.com")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request exposes request id", func(t *testing.T) {
		s := newTestServerWithOptions(t, Options{CORS: middleware.CORSConfig{AllowedOrigins: []string{origin}}})

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		s := newTestServerWithOptions(t, Options{CORS: middleware.CORSConfig{AllowedOrigins: []string{"*"}}})

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("no origins configured adds no headers", func(t *testing.T) {
		s := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
