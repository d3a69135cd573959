package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"book-review-service/cmd/api/di"
	"book-review-service/cmd/api/infrastructure"
	"book-review-service/internal/adapter/gin/middleware"
	"book-review-service/internal/adapter/gin/router"
)

// SetupGinServer creates the HTTP server serving the REST API
func SetupGinServer(c *di.Container, addr string, l *zap.Logger) *http.Server {
	corsCfg := middleware.CORSConfig{
		AllowedOrigins: c.Config.CORS.AllowedOrigins,
		MaxAge:         time.Duration(c.Config.CORS.MaxAgeSeconds) * time.Second,
	}

	r := router.SetupRouter(c.Handlers, router.Options{
		ServiceName: c.Config.Logger.ServiceName,
		RequireAuth: middleware.Auth(c.AuthUC, c.Config.Auth.CookieName, l),
		RateLimiter: c.RateLimiter,
		CORS:        corsCfg,
		Health:      func(ctx context.Context) error { return infrastructure.PingDatabase(ctx, c.DB) },
	}, l)

	l.Info("Gin REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
