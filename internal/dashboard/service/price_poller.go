package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	dashboardconfig "golang-idea-tracker/internal/dashboard/config"
	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/repository"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const (
	PollerStateIdle      = "idle"
	PollerStateScheduled = "scheduled"
	PollerStateStopped   = "stopped"

	defaultPollingInterval = 30 * time.Second
	defaultFetchTimeout    = 8 * time.Second
)

// PricePoller periodically fetches live quotes for the open-position stock
// codes and routes them into the overlay. Ticks only do work while the
// market is open; at most one fetch is in flight at a time, and a tick that
// lands during an in-flight fetch is skipped. Fetch errors are swallowed by
// policy: the overlay keeps its last state and the failure only shows up in
// the status counters.
type PricePoller struct {
	log     *logger.Logger
	clock   market.Clock
	prices  repository.PriceRepository
	overlay *PriceOverlay
	// redisClient mirrors applied quotes for other processes; nil disables
	// the mirror.
	redisClient *redis.Client

	defaultInterval time.Duration
	fetchTimeout    time.Duration

	mu       sync.Mutex
	state    string
	codes    []string
	interval time.Duration
	cancel   context.CancelFunc

	inFlight     atomic.Bool
	fetchCount   atomic.Int64
	skipCount    atomic.Int64
	failureCount atomic.Int64

	statsMu     sync.Mutex
	lastFetchAt *time.Time
	lastError   string
	lastErrorAt *time.Time
}

// NewPricePoller creates a poller in the idle state.
func NewPricePoller(
	cfg dashboardconfig.Polling,
	clock market.Clock,
	prices repository.PriceRepository,
	overlay *PriceOverlay,
	redisClient *redis.Client,
	log *logger.Logger,
) *PricePoller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollingInterval
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	return &PricePoller{
		log:             log,
		clock:           clock,
		prices:          prices,
		overlay:         overlay,
		redisClient:     redisClient,
		defaultInterval: interval,
		fetchTimeout:    fetchTimeout,
		state:           PollerStateIdle,
	}
}

// Enable starts polling the given stock codes. An immediate market-gated
// fetch fires before the first tick so the overlay fills promptly. Calling
// Enable while already running restarts the loop with the new codes; an
// empty code set stops the poller instead.
func (p *PricePoller) Enable(stockCodes []string, interval time.Duration) {
	if len(stockCodes) == 0 {
		p.Disable()
		return
	}
	if interval <= 0 {
		interval = p.defaultInterval
	}

	codes := append([]string(nil), stockCodes...)
	sort.Strings(codes)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = PollerStateScheduled
	p.codes = codes
	p.interval = interval
	p.mu.Unlock()

	p.log.Info("Price poller starting",
		logger.Field("stock_codes", codes),
		logger.Field("interval", interval.String()))

	utils.GoSafe(func() {
		p.run(ctx, codes, interval)
	})
}

// Disable stops the polling loop. It is safe to call from any state and any
// number of times. An in-flight fetch is not cancelled; its result is still
// applied to the overlay.
func (p *PricePoller) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.state == PollerStateScheduled {
		p.state = PollerStateStopped
		p.log.Info("Price poller stopped")
	}
}

// UpdateStockCodes reconciles the poller with a freshly derived open-position
// code set. An unchanged set is a no-op, an empty set stops the poller, and
// anything else restarts it with the new codes.
func (p *PricePoller) UpdateStockCodes(stockCodes []string) {
	codes := append([]string(nil), stockCodes...)
	sort.Strings(codes)

	p.mu.Lock()
	running := p.state == PollerStateScheduled
	current := p.codes
	interval := p.interval
	p.mu.Unlock()

	if running && equalCodes(current, codes) {
		return
	}
	if len(codes) == 0 {
		p.Disable()
		return
	}
	if interval <= 0 {
		interval = p.defaultInterval
	}
	p.Enable(codes, interval)
}

// Status returns a point-in-time view of the poller for the API.
func (p *PricePoller) Status() dto.PollerStatus {
	p.mu.Lock()
	status := dto.PollerStatus{
		State:      p.state,
		StockCodes: append([]string(nil), p.codes...),
	}
	if p.interval > 0 {
		status.Interval = p.interval.String()
	}
	p.mu.Unlock()

	status.MarketOpen = p.clock.IsOpen()
	status.FetchCount = p.fetchCount.Load()
	status.SkipCount = p.skipCount.Load()
	status.FailureCount = p.failureCount.Load()

	p.statsMu.Lock()
	status.LastFetchAt = p.lastFetchAt
	status.LastError = p.lastError
	status.LastErrorAt = p.lastErrorAt
	p.statsMu.Unlock()

	return status
}

func (p *PricePoller) run(ctx context.Context, codes []string, interval time.Duration) {
	p.tick(ctx, codes)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, codes)
		}
	}
}

func (p *PricePoller) tick(ctx context.Context, codes []string) {
	if ctx.Err() != nil || len(codes) == 0 {
		return
	}

	if !p.clock.IsOpen() {
		p.skipCount.Add(1)
		p.log.Debug("Market closed, skipping price fetch")
		return
	}

	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipCount.Add(1)
		p.log.Debug("Previous fetch still in flight, skipping tick")
		return
	}

	utils.GoSafe(func() {
		defer p.inFlight.Store(false)
		p.fetch(codes)
	})
}

// fetch runs on its own context so stopping the poller never cancels a fetch
// that is already underway.
func (p *PricePoller) fetch(codes []string) {
	p.fetchCount.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	defer cancel()

	quotes, err := p.prices.GetQuotes(ctx, codes)
	if err != nil {
		p.failureCount.Add(1)
		now := utils.TimeNowKST()
		p.statsMu.Lock()
		p.lastError = err.Error()
		p.lastErrorAt = &now
		p.statsMu.Unlock()
		p.log.Error("Live price fetch failed, keeping previous overlay", logger.ErrorField(err))
		return
	}

	now := utils.TimeNowKST()
	p.statsMu.Lock()
	p.lastFetchAt = &now
	p.statsMu.Unlock()

	if len(quotes) == 0 {
		return
	}

	p.overlay.Apply(quotes)
	p.mirrorToRedis(ctx, quotes)
}

// mirrorToRedis publishes applied quotes so the sync service can reuse fresh
// prices instead of refetching. Best effort only.
func (p *PricePoller) mirrorToRedis(ctx context.Context, quotes map[string]market.PriceSnapshot) {
	if p.redisClient == nil {
		return
	}

	pipe := p.redisClient.Pipeline()
	for stockCode, snapshot := range quotes {
		key := fmt.Sprintf(common.RedisKeyLastPrice, stockCode)
		pipe.HSet(ctx, key, map[string]interface{}{
			"price":       snapshot.Price,
			"change_rate": snapshot.ChangeRate,
			"fetched_at":  snapshot.FetchedAt.Unix(),
		})
		pipe.Expire(ctx, key, common.RedisKeyLastPriceTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Warn("Failed to mirror quotes to redis", logger.ErrorField(err))
	}
}

func equalCodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
