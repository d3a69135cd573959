package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"book-review-service/internal/usecase/auth"
	"book-review-service/pkg/logger"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles signup and login
type AuthHandler struct {
	uc     auth.UseCase
	cookie CookieConfig
	log    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc auth.UseCase, cookie CookieConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, cookie: cookie, log: log}
}

// SignupRequest represents the HTTP request body for creating an account
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the HTTP request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by signup and login. The token travels only
// in the httpOnly session cookie, never in the body.
type SessionResponse struct {
	Message string `json:"message,omitempty"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	session, err := h.uc.Signup(c.Request.Context(), auth.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, SessionResponse{
		ID:    session.User.ID,
		Name:  session.User.Name,
		Email: session.User.Email,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	session, err := h.uc.Login(c.Request.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	logger.WithContext(c.Request.Context(), h.log).Debug("session opened", zap.String("user_id", session.User.ID))
	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, SessionResponse{
		Message: "Successfully logged in",
		ID:      session.User.ID,
		Name:    session.User.Name,
		Email:   session.User.Email,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *auth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, session.Token, maxAge, "/", "", h.cookie.Secure, true)
}
