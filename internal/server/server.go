// Package server contains the HTTP handlers, routing and middleware wiring of the blog API.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "github.com/rmeditanala/blogml/docs" // swagger docs
	"github.com/rmeditanala/blogml/internal/bootstrap"
	"github.com/rmeditanala/blogml/internal/cache"
	"github.com/rmeditanala/blogml/internal/config"
	"github.com/rmeditanala/blogml/internal/featureflags"
	"github.com/rmeditanala/blogml/internal/middleware"
	"github.com/rmeditanala/blogml/internal/ml"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"
	"github.com/rmeditanala/blogml/internal/search"
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
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
	searchIndex    search.Index
	userRepo       repository.UserRepository

	userService        *service.UserService
	postService        *service.PostService
	commentService     *service.CommentService
	interactionService *service.InteractionService
	moderationService  *service.ModerationService
	tagService         *service.TagService
	aiService          *service.AIService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	flags := featureflags.NewManager(cfg.FeatureFlags)

	var index search.Index = search.Disabled{}
	if flags.EnabledGlobally(featureflags.SearchIndex) && cfg.MeiliURL != "" {
		index = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
	}

	mlService := ml.New(ml.Options{
		BaseURL: cfg.MLServiceURL,
		Timeout: cfg.MLServiceTimeout(),
		Enabled: flags.EnabledGlobally(featureflags.MLService),
	})

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	resolveActor := service.NewActorResolver(userRepo)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blogml-api"),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   flags,
		searchIndex:    index,
		userRepo:       userRepo,
	}
	server.userService = service.NewUserService(userRepo)
	server.postService = service.NewPostService(postRepo, tagRepo, index, resolveActor)
	server.commentService = service.NewCommentService(commentRepo, postRepo, mlService, resolveActor)
	server.interactionService = service.NewInteractionService(postRepo, interactionRepo, resolveActor)
	server.moderationService = service.NewModerationService(postRepo, commentRepo, index, resolveActor)
	server.tagService = service.NewTagService(tagRepo, postRepo, resolveActor)
	server.aiService = service.NewAIService(mlService, flags)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so browser clients still receive CORS headers on 429s.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
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

	api := app.Group("/api/v1")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Handler("register", 3, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/login", s.limiter.Handler("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/user", s.AuthRequired(), s.CurrentUser)

	// Public routes. Specific /posts paths are registered before /:slug.
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/search", s.limiter.Handler("search", 30, time.Minute, middleware.FailOpen), s.SearchPosts)
	api.Get("/posts/:slug/comments", s.GetPostComments)
	api.Get("/posts/:slug", s.GetPost)
	api.Get("/comments/:id", s.GetComment)
	api.Get("/tags", s.GetTags)
	api.Get("/tags/:slug", s.GetTag)

	protected := api.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Post("/:slug/like", s.LikePost)
	posts.Delete("/:slug/like", s.UnlikePost)
	posts.Post("/:slug/view", s.ViewPost)
	posts.Post("/:slug/bookmark", s.BookmarkPost)
	posts.Post("/:slug/share", s.SharePost)
	posts.Post("/:slug/comments", s.limiter.Handler("create_comment", 10, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Put("/:slug", s.UpdatePost)
	posts.Delete("/:slug", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	user := protected.Group("/user")
	user.Get("/posts", s.GetUserPosts)
	user.Get("/comments", s.GetUserComments)
	user.Get("/interactions", s.GetUserInteractions)

	ai := protected.Group("/ai", s.limiter.Handler("ai", 10, time.Minute, middleware.FailClosed))
	ai.Post("/generate-outline", s.GenerateOutline)
	ai.Post("/generate-post", s.GeneratePost)
	ai.Post("/classify-image", s.ClassifyImage)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/posts", s.AdminPosts)
	admin.Put("/posts/:slug/status", s.UpdatePostStatus)
	admin.Get("/comments", s.AdminComments)
	admin.Put("/comments/:id/status", s.ModerateComment)
	admin.Post("/tags", s.CreateTag)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The database is required;
// Redis and the search index only degrade the report.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	searchStatus := "disabled"
	if m, ok := s.searchIndex.(*search.Meili); ok {
		searchStatus = "healthy"
		if !m.Healthy() {
			searchStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" || searchStatus == "degraded" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"search":   searchStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("User not found"))
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := middleware.BearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		revoked, err := cache.IsRevoked(c.UserContext(), s.redis, claims.JTI)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation check failed",
				slog.String("error", err.Error()))
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// optionalUserID extracts the caller from a valid bearer token without enforcing one.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	raw := middleware.BearerToken(c)
	if raw == "" {
		return 0
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, raw)
	if err != nil {
		return 0
	}
	if revoked, _ := cache.IsRevoked(c.UserContext(), s.redis, claims.JTI); revoked {
		return 0
	}
	return claims.UserID
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "BlogML API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code == fiber.StatusNotFound {
				return models.RespondWithError(c, fiber.StatusNotFound, models.NewHiddenError("Route"))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
