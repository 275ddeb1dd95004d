package main

import (
	"log"
	"time"

	"ipotrack/config"
	"ipotrack/database"
	"ipotrack/handlers"
	"ipotrack/jobs"
	"ipotrack/services"
	"ipotrack/shared"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	cfg.ApplyLogLevel()

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	// Connect to the KV snapshot store. A broken Redis is not fatal;
	// the listing path falls back to the database.
	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOptions)
	defer rdb.Close()

	// Snapshot policy from config
	snapshotConfig := shared.NewDefaultSnapshotConfig()
	snapshotConfig.Key = cfg.SnapshotKey
	snapshotConfig.TTL = cfg.GetSnapshotTTL()
	httpConfig := shared.NewDefaultHTTPConfig()

	// Initialize services
	normalizer := services.NewNormalizerService()
	sorter := services.NewSorter(normalizer)
	snapshotService := services.NewSnapshotService(rdb, sorter, snapshotConfig)
	ipoService := services.NewIPOService(database.DB, normalizer, sorter, snapshotService)
	watchlistService := services.NewWatchlistService(database.DB)
	logoService := services.NewLogoService(httpConfig)

	logrus.WithFields(logrus.Fields{
		"snapshot_key": snapshotConfig.Key,
		"snapshot_ttl": snapshotConfig.TTL,
		"max_rows":     snapshotConfig.MaxRows,
	}).Info("IPO tracking services initialized")

	// Initialize jobs
	kvSyncJob := jobs.NewKVSyncJob(ipoService, snapshotService)
	dateRefreshJob := jobs.NewEstimatedDateRefreshJob(ipoService, cfg.NasdaqCalendarURL, httpConfig)
	logoBackfillJob := jobs.NewLogoBackfillJob(ipoService, logoService)

	// Initialize handlers
	auth := handlers.NewAuthMiddleware(cfg.JWTSecret)
	ipoHandler := handlers.NewIPOHandler(ipoService, watchlistService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, ipoService)

	// Start background jobs: an immediate snapshot push, then steady
	// tickers. The date refresh runs ahead of each snapshot rebuild so
	// upgraded dates reach the KV copy in the same cycle.
	go func() {
		go kvSyncJob.Run()

		syncTicker := time.NewTicker(1 * time.Hour)
		dateTicker := time.NewTicker(8 * time.Hour)
		logoTicker := time.NewTicker(12 * time.Hour)
		metricsTicker := time.NewTicker(6 * time.Hour)

		for {
			select {
			case <-syncTicker.C:
				kvSyncJob.Run()
			case <-dateTicker.C:
				dateRefreshJob.Run()
				kvSyncJob.Run()
			case <-logoTicker.C:
				logoBackfillJob.Run()
			case <-metricsTicker.C:
				ipoService.LogMetricsSummary()
				watchlistService.LogMetricsSummary()
			}
		}
	}()

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")

	// Public IPO routes; starred flags appear when a session is present
	api.Get("/ipos", auth.Optional(), ipoHandler.GetIPOs)
	api.Get("/ipos/:cik", auth.Optional(), ipoHandler.GetIPOByCIK)

	// Watchlist routes
	watchlist := api.Group("/watchlist", auth.Required())
	watchlist.Get("/", watchlistHandler.GetWatchlist)
	watchlist.Post("/", watchlistHandler.AddStar)
	watchlist.Delete("/:cik", watchlistHandler.RemoveStar)
	watchlist.Post("/:cik/toggle", watchlistHandler.ToggleStar)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
