package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-idea-tracker/internal/dashboard/config"
	delivery "golang-idea-tracker/internal/dashboard/delivery/http"
	_ "golang-idea-tracker/internal/dashboard/docs"
	"golang-idea-tracker/internal/dashboard/repository"
	"golang-idea-tracker/internal/dashboard/service"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/postgres"
	"golang-idea-tracker/pkg/redis"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the dashboard service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Dashboard Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	ideaRepo := repository.NewIdeaRepository(db.DB)
	positionRepo := repository.NewStockPositionRepository(db.DB)
	disclosureRepo := repository.NewDisclosureRepository(db.DB)
	syncRunRepo := repository.NewSyncRunRepository(db.DB)
	priceRepo := repository.NewPriceRepository(cfg.PriceAPI, appLogger)
	mentionRepo := repository.NewMentionRepository(cfg.MentionAPI, appLogger)

	// Initialize the live valuation pipeline
	marketClock := market.NewCalendar(cfg.Market, appLogger)
	overlay := service.NewPriceOverlay()
	poller := service.NewPricePoller(cfg.Polling, marketClock, priceRepo, overlay, redisClient.Client, appLogger)

	// Initialize services
	ideaSvc := service.NewIdeaService(ideaRepo, positionRepo, overlay, poller, appLogger)
	dashboardSvc := service.NewDashboardService(ideaRepo, disclosureRepo, mentionRepo, syncRunRepo, overlay, poller, redisClient.Client, appLogger)

	if cfg.Polling.AutoStart {
		if _, err := dashboardSvc.SetPolling(ctx, true); err != nil {
			appLogger.Warn("Failed to auto-start price polling", logger.ErrorField(err))
		}
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Initialize handlers and routes
	ideaHandler := delivery.NewIdeaHandler(ideaSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	ideasGroup := apiV1.Group("/ideas")
	ideaHandler.RegisterRoutes(ideasGroup)

	positionsGroup := apiV1.Group("/positions")
	ideaHandler.RegisterPositionRoutes(positionsGroup)

	dashboardHandler := delivery.NewDashboardHandler(dashboardSvc, appLogger)
	dashboardHandler.RegisterRoutes(apiV1)

	e.GET("/swagger/*", swagger.WrapHandler)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Stop polling before the server so no fetch result lands mid-shutdown
	poller.Disable()

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Idea Tracker Dashboard API
// @version 1.0
// @description Personal investment idea tracking dashboard with live portfolio valuation.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "dashboard-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-dashboard.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing dashboard-service CLI: %s\n", err)
		os.Exit(1)
	}
}
