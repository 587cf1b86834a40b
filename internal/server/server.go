// Package server contains the HTTP handlers and wiring for the blog API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"blogsys/internal/auth"
	"blogsys/internal/bootstrap"
	"blogsys/internal/cache"
	"blogsys/internal/config"
	"blogsys/internal/database"
	"blogsys/internal/featureflags"
	"blogsys/internal/middleware"
	"blogsys/internal/repository"
	"blogsys/internal/service"
	"blogsys/models"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	serviceName    = "blog-api"
	serviceVersion = "1.0.0"
	defaultOrigin  = "http://localhost:4321"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter
	featureFlags   *featureflags.Manager
	userRepo       repository.UserRepository
	commentRepo    repository.CommentRepository
	authService    *service.AuthService
	commentService *service.CommentService
}

// NewServer connects the database and Redis described by cfg and builds a
// server around them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, token revocation and per-route rate limits
// are then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database handle")
	}

	userRepo := repository.NewUserRepository(db, redisClient, cfg.BcryptCost)
	commentRepo := repository.NewCommentRepository(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
		commentRepo:    commentRepo,
		authService:    service.NewAuthService(userRepo, tokens, cache.NewTokenBlacklist(redisClient)),
		commentService: service.NewCommentService(commentRepo),
	}
	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Blog API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape handlers in the standard JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeValidation
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = models.CodeNotFound
		case fe.Code >= fiber.StatusInternalServerError:
			code = models.CodeInternal
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled fiber error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected API calls still carry CORS headers.
	app.Use("/api", cors.New(s.corsConfig()))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: 1 * time.Minute,
			// Never rate-limit preflight requests; they should be handled by CORS.
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests, please try again later",
					Code:  models.CodeRateLimited,
				})
			},
		}))
	}

	if s.config.ContentDir != "" {
		app.Use(middleware.ContentImages(s.config.ContentDir))
	}
}

func (s *Server) corsConfig() cors.Config {
	origins := s.config.Origins()
	if len(origins) == 0 {
		origins = []string{defaultOrigin}
	}

	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: !wildcard,
		MaxAge:           86400, // 24 hours
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api.Get("/features", s.GetFeatureFlags)

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.limiter.Handler(
		"register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	authRoutes.Post("/login", s.limiter.Handler(
		"login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	authRoutes.Post("/logout", s.Logout)
	authRoutes.Get("/check-username", s.CheckUsername)
	authRoutes.Get("/me", s.AuthRequired(), s.GetMe)

	// Account routes
	users := api.Group("/users", s.AuthRequired())
	users.Put("/me", s.UpdateMe)
	users.Delete("/me", s.DeleteMe)

	// Comment routes
	comments := api.Group("/comments")
	comments.Get("/", s.GetComments)
	comments.Post("/", s.CreateComment)
	comments.Put("/", s.LikeComment)
}

// HealthCheck is an alias for ReadinessCheck under /api.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports whether the database (and Redis, when configured)
// answer within five seconds.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": serviceName,
		"version": serviceVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// AuthRequired returns middleware that accepts the session cookie or a Bearer
// token, rejects revoked tokens and stores userID and claims in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.authService.Authenticate(c.UserContext(), tokenFromRequest(c))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	database.Close(s.db)

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
