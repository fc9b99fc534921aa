// Package server contains the HTTP handlers for the community feed API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fitstream/internal/auth"
	"fitstream/internal/cache"
	"fitstream/internal/config"
	"fitstream/internal/database"
	"fitstream/internal/featureflags"
	"fitstream/internal/middleware"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"
	"fitstream/internal/service"

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

// Authenticator is the part of the identity service the HTTP layer talks to.
type Authenticator interface {
	middleware.TokenVerifier
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	Revoke(ctx context.Context, session *auth.Session) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	featureFlags    *featureflags.Manager
	auth            Authenticator
	profiles        *service.ProfileResolver
	postService     *service.PostService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	userService     *service.UserService
	catalogService  *service.CatalogService
}

// NewServer connects to the database and Redis and builds a server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, revocation and rate limiting are then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	profileRepo := repository.NewProfileRepository(db, time.Duration(cfg.ProfileCacheTTLMinutes)*time.Minute)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	authService := auth.NewService(userRepo, redisClient, auth.Config{
		Secret:     cfg.JWTSecret,
		SessionTTL: sessionTTL,
	})

	// Handlers never fall back to the process-level session.
	sessions := auth.ContextSessions{}
	profiles := service.NewProfileResolver(profileRepo, sessions, service.ProfileDefaults{
		DisplayName: cfg.ProfileDefaultName,
		AvatarURL:   cfg.ProfileDefaultAvatarURL,
		Unit:        cfg.ProfileDefaultUnit,
	})
	flags := featureflags.NewManager(cfg.FeatureFlags)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("fitstream-api"),
		featureFlags:   flags,
		auth:           authService,
		profiles:       profiles,
	}
	server.postService = service.NewPostService(postRepo, sessions, profiles, flags)
	server.commentService = service.NewCommentService(
		repository.NewCommentRepository(db), postRepo, sessions, profiles)
	server.reactionService = service.NewReactionService(
		repository.NewReactionRepository(db), postRepo, sessions)
	server.userService = service.NewUserService(userRepo, profileRepo, sessions, profiles, authService)
	server.catalogService = service.NewCatalogService(
		repository.NewVideoRepository(db),
		repository.NewFavoriteRepository(db),
		repository.NewProgressRepository(db),
		sessions,
	)

	return server, nil
}

// NewApp builds the Fiber app with the server's middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "FitStream API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Request ID, trace ID and user ID travel on the user context from here on.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.RateLimitDisabled || c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", s.requestScope())
	optional := middleware.OptionalAuth(s.auth)
	required := middleware.AuthRequired(s.auth)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.limit("signup", 3, 10*time.Minute), s.Signup)
	authGroup.Post("/login", s.limit("login", 10, 5*time.Minute), s.Login)
	authGroup.Post("/logout", required, s.Logout)
	authGroup.Get("/session", required, s.GetSession)

	// Feed reads are public; likes are reported for signed-in viewers.
	publicPosts := api.Group("/posts", optional)
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	api.Get("/feature-flags", optional, s.GetFeatureFlags)

	// Public catalog routes
	videos := api.Group("/videos")
	videos.Get("/", s.GetVideos)
	videos.Get("/search", s.limit("search", 30, time.Minute), s.SearchVideos)
	videos.Get("/:id", s.GetVideo)
	videos.Post("/:id/view", s.RecordView)

	profiles := api.Group("/profiles")
	profiles.Get("/:id", s.GetProfile)

	protected := api.Group("", required)

	posts := protected.Group("/posts")
	posts.Post("/", s.limit("create_post", 10, 5*time.Minute), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/comments", s.limit("create_comment", 10, time.Minute), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Delete("/:id", s.DeletePost)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	favorites := protected.Group("/favorites")
	favorites.Get("/", s.GetFavorites)
	favorites.Get("/:videoId", s.GetFavoriteStatus)
	favorites.Post("/:videoId", s.AddFavorite)
	favorites.Delete("/:videoId", s.RemoveFavorite)

	progress := protected.Group("/progress")
	progress.Get("/continue", s.GetContinueWatching)
	progress.Get("/completed", s.GetCompletedVideos)
	progress.Get("/:videoId", s.GetProgress)
	progress.Put("/:videoId", s.UpdateProgress)
}

// requestScope gives every API request its own profile memo.
func (s *Server) requestScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(service.WithResolver(c.UserContext(), s.profiles.Fork()))
		return c.Next()
	}
}

func (s *Server) limit(name string, max int, window time.Duration) fiber.Handler {
	if s.redis == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Name:     name,
		Limit:    max,
		Window:   window,
		Policy:   middleware.FailOpen,
		Disabled: s.config.RateLimitDisabled,
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: the feed works without it, only slower.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}
