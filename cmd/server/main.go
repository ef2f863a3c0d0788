package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/watchlist-service/internal/client"
	"github.com/yourorg/watchlist-service/internal/config"
	"github.com/yourorg/watchlist-service/internal/event"
	"github.com/yourorg/watchlist-service/internal/handler"
	"github.com/yourorg/watchlist-service/internal/middleware"
	"github.com/yourorg/watchlist-service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize the market data source client
	marketDataClient := client.NewMarketDataClient(
		cfg.MarketData.URL,
		cfg.MarketData.ServiceKey,
		cfg.MarketData.Timeout,
		logger,
	)

	// Invalidation bus, plus Kafka forwarding when brokers are configured
	bus := event.NewBus(logger)

	var producer *event.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = event.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		defer producer.Close()
	}

	// Initialize services
	chartService := service.NewChartService(
		marketDataClient,
		cfg.Chart.Windows,
		cfg.Chart.DefaultDays,
		logger,
	)
	screenerService := service.NewScreenerService(
		marketDataClient,
		bus,
		cfg.Screener.Band,
		cfg.Screener.PageLimit,
		cfg.Screener.SessionTTL,
		logger,
	)
	defer screenerService.Close()

	var publisher service.InvalidationPublisher
	if producer != nil {
		publisher = producer
	}
	crawlService := service.NewCrawlService(marketDataClient, bus, publisher, logger)

	// Initialize handlers
	chartHandler := handler.NewChartHandler(chartService, logger)
	screenerHandler := handler.NewScreenerHandler(screenerService, logger)
	crawlHandler := handler.NewCrawlHandler(crawlService, logger)

	// Set up HTTP server with Gin
	router := setupRouter(chartHandler, screenerHandler, crawlHandler, logger, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func setupRouter(
	chartHandler *handler.ChartHandler,
	screenerHandler *handler.ScreenerHandler,
	crawlHandler *handler.CrawlHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/stocks/:id/chart", chartHandler.GetChart)

		sessions := v1.Group("/screener/sessions")
		{
			sessions.POST("", screenerHandler.CreateSession)
			sessions.GET("/:id", screenerHandler.GetSession)
			sessions.POST("/:id/next", screenerHandler.FetchNext)
			sessions.POST("/:id/reset", screenerHandler.Reset)
			sessions.DELETE("/:id", screenerHandler.DeleteSession)
		}

		// Crawl triggers mutate the data source, so they are key protected
		crawl := v1.Group("/crawl")
		crawl.Use(middleware.ServiceAuthMiddleware(cfg.MarketData.ServiceKey, logger))
		crawl.POST("", crawlHandler.TriggerCrawl)
	}

	return router
}
