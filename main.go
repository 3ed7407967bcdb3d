package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"auctionbook/internal/config"
	"auctionbook/internal/database"
	"auctionbook/internal/handlers"
	"auctionbook/internal/logger"
	"auctionbook/internal/metrics"
	"auctionbook/internal/middleware"
	"auctionbook/internal/repositories"
	"auctionbook/internal/services"
	"auctionbook/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the collaborators NewApp wires together.
type Dependencies struct {
	APIPrefix string
	Repo      repositories.AuctionRepository
	Publisher services.EventPublisher
	Registry  *prometheus.Registry
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(deps Dependencies) *fiber.App {
	m := metrics.New(deps.Registry)
	auctionService := services.NewAuctionService(deps.Repo, deps.Publisher)

	auctionHandler := handlers.NewAuctionHandler(auctionService, m)
	healthHandler := handlers.NewHealthHandler(auctionService)

	app := fiber.New(fiber.Config{
		AppName:      "auctionbook",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.RequestMetrics(m))

	app.Get("/metrics", m.Handler())

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := app.Group(prefix)
	healthHandler.RegisterRoutes(api)
	auctionHandler.RegisterRoutes(api)

	return app
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	logger.Configure(cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Persistence ---
	var (
		db   *gorm.DB
		repo repositories.AuctionRepository
	)
	if cfg.DB.Driver == config.DriverMemory {
		logger.Warn("using in-memory auction store, data is lost on restart", nil)
		repo = repositories.NewMemoryAuctionRepository()
	} else {
		db, err = database.Open(cfg.DB)
		if err != nil {
			logger.Fatal("failed to open database", map[string]any{"driver": cfg.DB.Driver, "error": err.Error()})
		}
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
				logger.Fatal("failed to migrate database", map[string]any{"error": err.Error()})
			}
		}
		repo = repositories.NewGORMAuctionRepository(db)
	}

	// --- Messaging ---
	var (
		mqClient  *rabbitmq.Client
		publisher services.EventPublisher
	)
	if cfg.RabbitMQ.Enabled() {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			logger.Warn("RabbitMQ unavailable, auction events disabled", map[string]any{"error": err.Error()})
		} else {
			publisher = mqClient
		}
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := NewApp(Dependencies{
		APIPrefix: cfg.App.APIPrefix,
		Repo:      repo,
		Publisher: publisher,
		Registry:  registry,
	})

	go func() {
		logger.Info("starting server", map[string]any{"port": cfg.App.Port, "api_prefix": cfg.App.APIPrefix})
		if err := app.Listen(cfg.App.Port); err != nil {
			logger.Error("server stopped with error", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server", nil)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("error during fiber shutdown", map[string]any{"error": err.Error()})
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			logger.Error("error closing RabbitMQ client", map[string]any{"error": err.Error()})
		}
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			logger.Error("error closing database", map[string]any{"error": err.Error()})
		}
	}

	logger.Info("server gracefully stopped", nil)
	os.Exit(0)
}
