package main // Entry point package

import (
	"context" // context for startup calls with deadlines
	"log"     // Logging library
	"time"    // timeouts for bootstrap operations

	"github.com/joho/godotenv"    // loads variables from a local .env file
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/car-rental/internal/cart"       // Redis-backed session carts
	"github.com/iliyamo/car-rental/internal/config"     // Internal config loader
	"github.com/iliyamo/car-rental/internal/database"   // MySQL connection pool
	"github.com/iliyamo/car-rental/internal/handler"    // HTTP handlers
	"github.com/iliyamo/car-rental/internal/jobs"       // cron maintenance jobs
	"github.com/iliyamo/car-rental/internal/middleware" // rate limiting middleware
	"github.com/iliyamo/car-rental/internal/queue"      // rental.approved consumer
	"github.com/iliyamo/car-rental/internal/repository" // data access layer
	"github.com/iliyamo/car-rental/internal/router"     // Internal router setup
	queue_publisher "github.com/iliyamo/car-rental/internal/service"
)

func main() {
	// Load variables from .env when present; real deployments set them in
	// the environment directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool.  Every repository shares this handle.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs both the session carts and the rate limiter.  Carts cannot
	// work without it, so a failed connection is fatal.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; carts require a reachable Redis instance")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	carRepo := repository.NewCarRepo(db)
	rentalRepo := repository.NewRentalRepo(db)

	// Make sure the configured admin account exists before serving traffic.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userRepo.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("admin bootstrap: %v", err)
	}
	cancel()

	cartStore := cart.NewStore(rdb, cfg.CartTTL)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	catalogHandler := handler.NewCatalogHandler(carRepo)
	bookingHandler := handler.NewBookingHandler(carRepo, rentalRepo, cartStore)
	adminHandler := handler.NewAdminHandler(carRepo, rentalRepo, queue_publisher.PublishRentalApproved)

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogHandler)
	router.RegisterCustomer(e, bookingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Consume rental.approved events in the background.  The consumer keeps
	// its own reconnect loop and never brings the server down.
	go func() {
		if err := queue.StartRentalConsumer(); err != nil {
			log.Printf("rental consumer stopped: %v", err)
		}
	}()

	// Nightly cleanup of pending requests whose start date has passed.
	runner := jobs.NewRunner(rentalRepo)
	runner.Start()
	defer runner.Stop()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
