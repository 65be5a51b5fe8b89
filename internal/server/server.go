// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/cache"
	"creatorpulse/internal/config"
	"creatorpulse/internal/database"
	"creatorpulse/internal/groq"
	"creatorpulse/internal/middleware"
	"creatorpulse/internal/models"
	"creatorpulse/internal/repository"
	"creatorpulse/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	tiktokService   *service.TikTokService
	igService       *service.InstagramService
	recommendations *service.RecommendationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	// Initialize the scraping provider client
	provider, err := apify.NewClient(apify.Config{
		Token:        cfg.ApifyToken,
		PollInterval: cfg.ApifyPollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("apify client setup failed: %w", err)
	}

	// Recommendations are optional; without a key the endpoint reports 503.
	var llm service.Recommender
	if cfg.GroqAPIKey != "" {
		client, err := groq.NewClient(groq.Config{
			APIKey: cfg.GroqAPIKey,
			Model:  cfg.GroqModel,
		})
		if err != nil {
			return nil, fmt.Errorf("groq client setup failed: %w", err)
		}
		llm = client
	}

	return NewServerWithDeps(cfg, db, redisClient, provider, llm)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and the
// provider clients itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, provider service.ScrapeProvider, llm service.Recommender) (*Server, error) {
	// Initialize middleware with config (API key auth)
	middleware.InitMiddleware(cfg)

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	tiktokProfiles := repository.NewTikTokProfileRepository(db)
	igProfiles := repository.NewInstagramProfileRepository(db)
	igPosts := repository.NewInstagramPostRepository(db)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("creatorpulse-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
	}
	server.tiktokService = service.NewTikTokService(provider, videoRepo, tiktokProfiles, cfg.TikTokResultsPerPage, cfg.ApifyPollTimeout)
	server.igService = service.NewInstagramService(provider, igProfiles, igPosts, cfg.InstagramResultsLimit, cfg.ApifyPollTimeout)
	server.recommendations = service.NewRecommendationService(videoRepo, llm)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate request and trace IDs
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Distributed tracing spans per request
	app.Use(middleware.TracingMiddleware())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware runs before middlewares that can short-circuit so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
		MaxAge:       86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// TikTok routes. Scrapes hit the paid provider, so they carry tight
	// per-IP rate limits on top of the API key check.
	tiktok := app.Group("/tiktok", middleware.APIKeyRequired)
	tiktok.Post("/scrape-posts", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "tiktok_scrape"), s.ScrapeTikTokContent)
	tiktok.Post("/scrape-profile", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "tiktok_scrape_profile"), s.ScrapeTikTokProfile)
	tiktok.Post("/recommendations", middleware.RateLimit(
		s.redis, 10, time.Minute, "tiktok_recommendations"), s.GetTikTokRecommendations)
	tiktok.Get("/profile/:username", s.GetTikTokProfile)
	tiktok.Get("/videos/:username", s.GetTikTokVideos)

	// Instagram routes
	instagram := app.Group("/instagram", middleware.APIKeyRequired)
	instagram.Post("/scrape-posts", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "instagram_scrape"), s.ScrapeInstagramContent)
	instagram.Get("/profile/:username", s.GetInstagramProfile)
	instagram.Get("/posts/:username", s.GetInstagramPosts)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The database is required;
// Redis only degrades caching, so its state is reported without failing the
// probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "CreatorPulse API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
