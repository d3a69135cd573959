package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"book-review-service/api/swagger"
	"book-review-service/internal/adapter/gin/handler"
	"book-review-service/internal/adapter/gin/middleware"
	"book-review-service/internal/adapter/gin/response"
)

// healthCheckTimeout bounds the dependency ping done by /health
const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Auth    *handler.AuthHandler
	Books   *handler.BookHandler
	Reviews *handler.ReviewHandler
}

// Options configures cross-cutting behaviour of the router.
type Options struct {
	ServiceName string
	// RequireAuth is the auth gate applied to mutating routes
	RequireAuth gin.HandlerFunc
	// RateLimiter may be nil to disable throttling
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	Health      HealthCheck
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(opts.CORS))
	// promhttp compresses on its own
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	router.NoRoute(func(c *gin.Context) {
		response.Abort(c, http.StatusNotFound, "not_found", "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		response.Abort(c, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	// Operational endpoints
	router.GET("/health", healthHandler(opts.ServiceName, opts.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", swaggerHandler())

	api := router.Group("/")
	api.Use(opts.RateLimiter.Middleware())

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", h.Auth.Signup)
		authRoutes.POST("/login", h.Auth.Login)
	}

	books := api.Group("/books")
	{
		books.GET("", h.Books.ListBooks)
		books.GET("/search", h.Books.SearchBooks)
		books.GET("/:id", h.Books.GetBook)
		books.GET("/:id/reviews", h.Reviews.ListBookReviews)

		books.POST("", opts.RequireAuth, h.Books.CreateBook)
		books.PUT("/:id", opts.RequireAuth, h.Books.UpdateBook)
		books.DELETE("/:id", opts.RequireAuth, h.Books.DeleteBook)
		books.POST("/:id/reviews", opts.RequireAuth, h.Reviews.CreateReview)
	}

	reviews := api.Group("/reviews", opts.RequireAuth)
	{
		reviews.PUT("/:id", h.Reviews.UpdateReview)
		reviews.DELETE("/:id", h.Reviews.DeleteReview)
	}

	return router
}

func healthHandler(service string, check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": service,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": service,
		})
	}
}

// swaggerHandler serves the embedded OpenAPI document and the Swagger UI over it.
func swaggerHandler() gin.HandlerFunc {
	ui := httpSwagger.Handler(httpSwagger.URL("/swagger/" + swagger.FileName))
	return func(c *gin.Context) {
		if c.Param("any") == "/"+swagger.FileName {
			c.Data(http.StatusOK, "application/json", swagger.Spec)
			return
		}
		ui.ServeHTTP(c.Writer, c.Request)
	}
}
