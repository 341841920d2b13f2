package consumer

import (
	"context"
	"sync"
	"time"

	"golang-idea-tracker/internal/syncer/config"
	"golang-idea-tracker/internal/syncer/service"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const defaultSyncRequestTimeout = 5 * time.Minute

// RedisConsumer manages the consumption of sync requests from a Redis stream.
type RedisConsumer struct {
	cfg          *config.Config
	redisClient  *redis.Client
	syncExecutor service.SyncExecutorService
	logger       *logger.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	syncExecutor service.SyncExecutorService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:          cfg,
		redisClient:  redisClient,
		syncExecutor: syncExecutor,
		logger:       log,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the consumer's sync request processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")

	timeout := c.cfg.Syncer.RedisStreamSyncRequestTimeout
	if timeout <= 0 {
		timeout = defaultSyncRequestTimeout
	}
	c.RegisterStreamHandler(ctx, c.syncExecutor.ProcessSyncRequest, common.RedisStreamSyncRequest, timeout)
}

func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
