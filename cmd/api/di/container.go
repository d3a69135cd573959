package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"book-review-service/cmd/api/infrastructure"
	"book-review-service/internal/adapter/db/postgres"
	"book-review-service/internal/adapter/gin/handler"
	"book-review-service/internal/adapter/gin/middleware"
	"book-review-service/internal/adapter/gin/router"
	"book-review-service/internal/config"
	"book-review-service/internal/usecase/auth"
	"book-review-service/internal/usecase/book"
	"book-review-service/internal/usecase/review"
	redisclient "book-review-service/pkg/redis"
	"book-review-service/pkg/token"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	AuthUC      auth.UseCase
	BookUC      book.UseCase
	ReviewUC    review.UseCase
	RateLimiter *middleware.RateLimiter
	Handlers    router.Handlers
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := &Container{Config: cfg, Logger: l, DB: db}

	// Redis is only needed for throttling
	if cfg.RateLimit.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = infrastructure.CloseDatabase(db)
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		c.RateLimiter = middleware.NewRateLimiter(rdb.Client, middleware.RateLimiterConfig{
			Enabled:           true,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
		}, l)
	}

	tokens, err := token.NewService(cfg.Auth.JWTSecret)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Repositories
	users := postgres.NewUserRepoPG(db, l)
	books := postgres.NewBookRepoPG(db, l)
	reviews := postgres.NewReviewRepoPG(db, l)

	// Use cases
	c.AuthUC = auth.New(users, tokens, l)
	c.BookUC = book.New(books, reviews, l)
	c.ReviewUC = review.New(reviews, books, l)

	c.Handlers = router.Handlers{
		Auth: handler.NewAuthHandler(c.AuthUC, handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.IsProduction(),
		}, l),
		Books:   handler.NewBookHandler(c.BookUC, l),
		Reviews: handler.NewReviewHandler(c.ReviewUC, l),
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
