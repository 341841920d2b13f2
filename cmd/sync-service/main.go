package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-idea-tracker/internal/syncer/config"
	"golang-idea-tracker/internal/syncer/delivery/consumer"
	"golang-idea-tracker/internal/syncer/repository"
	"golang-idea-tracker/internal/syncer/service"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/postgres"
	"golang-idea-tracker/pkg/redis"
	"golang-idea-tracker/pkg/telegram"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the sync service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	appLogger.Info("Starting Sync Service", logger.Field("name", cfg.App.Name))

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

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamSyncRequest, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	syncRunRepo := repository.NewSyncRunRepository(db.DB)
	positionRepo := repository.NewStockPositionRepository(db.DB)
	disclosureRepo := repository.NewDisclosureRepository(db.DB)
	priceRepo := repository.NewPriceRepository(cfg.PriceAPI, appLogger)

	// Initialize the Telegram notifier. Without a token the service still runs,
	// it just drops the alerts and summaries.
	var telegramNotifier telegram.Notifier = telegram.NewNoopNotifier()
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	} else {
		appLogger.Warn("Telegram bot token not configured, notifications disabled")
	}

	// Initialize sync jobs
	syncJobs := []service.SyncJob{
		service.NewSnapshotSyncJob(positionRepo, priceRepo, redisClient.Client, appLogger),
		service.NewDisclosureSyncJob(positionRepo, disclosureRepo, telegramNotifier, cfg.Syncer.DisclosureFeeds, cfg.Syncer.DisclosureAlertTTL, appLogger),
		service.NewPortfolioSummaryJob(positionRepo, telegramNotifier, appLogger),
	}

	// Initialize executor service
	executorSvc := service.NewSyncExecutorService(redisClient.Client, syncRunRepo, telegramNotifier, appLogger, syncJobs)

	// Start the cron schedules
	syncScheduler, err := service.NewSyncScheduler(cfg, executorSvc, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize sync scheduler", logger.ErrorField(err))
	}
	syncScheduler.Start()

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, executorSvc, appLogger)
	redisConsumer.Start(ctx)

	appLogger.Info("Sync service started. Waiting for sync requests...")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down sync service...")
	cancel()
	redisConsumer.Stop()
	<-syncScheduler.Stop().Done()
	appLogger.Info("Sync service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "sync-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-syncer.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing sync-service CLI: %s\n", err)
		os.Exit(1)
	}
}
