package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/court-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/court-booking/internal/database"   // MySQL connector
	"github.com/iliyamo/court-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/court-booking/internal/middleware" // Rate limiting and caching
	"github.com/iliyamo/court-booking/internal/queue"      // Booking event consumer
	"github.com/iliyamo/court-booking/internal/repository" // Data access layer
	"github.com/iliyamo/court-booking/internal/router"     // Route registration
	"github.com/iliyamo/court-booking/internal/service"    // Booking service
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	sessionRepo := repository.NewSessionRepo(db)

	// Booking service with best-effort event publishing
	bookings := service.NewBooking(sessionRepo, service.NewAMQPPublisher(), cfg.DefaultLocation, cfg.AttendOnCreate)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	bookingHandler := handler.NewBookingHandler(bookings, userRepo)
	userHandler := handler.NewUserHandler(userRepo)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching; both degrade to
	// pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterBooking(e, bookingHandler, userHandler, cfg.JWTSecret)

	// Background consumer writing the booking audit log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
