package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/internal/syncer/repository"
	"golang-idea-tracker/internal/valuation"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// PositionSyncResult records the outcome for one position within a snapshot run.
type PositionSyncResult struct {
	StockCode string `json:"stock_code"`
	Status    string `json:"status"`
	Errors    string `json:"errors,omitempty"`
}

// quoteMapView adapts a fetched quote map to the valuation price view.
type quoteMapView map[string]market.PriceSnapshot

func (v quoteMapView) Quote(stockCode string) (market.PriceSnapshot, bool) {
	snap, ok := v[stockCode]
	return snap, ok
}

// NewSnapshotSyncJob creates the job that refreshes persisted position
// snapshots from current prices.
func NewSnapshotSyncJob(
	stockPositionRepo repository.StockPositionRepository,
	priceRepo repository.PriceRepository,
	redisClient *redis.Client,
	log *logger.Logger,
) SyncJob {
	return &snapshotSyncJob{
		stockPositionRepo: stockPositionRepo,
		priceRepo:         priceRepo,
		redisClient:       redisClient,
		logger:            log,
	}
}

type snapshotSyncJob struct {
	stockPositionRepo repository.StockPositionRepository
	priceRepo         repository.PriceRepository
	redisClient       *redis.Client
	logger            *logger.Logger
}

// GetKind returns the sync kind this job handles.
func (j *snapshotSyncJob) GetKind() string {
	return common.SyncKindSnapshot
}

// Execute recomputes the valuation snapshot of every open position. Positions
// without any resolvable price keep their previous snapshot.
func (j *snapshotSyncJob) Execute(ctx context.Context) (string, error) {
	positions, err := j.stockPositionRepo.FindOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load open positions: %w", err)
	}

	quotes := j.collectQuotes(ctx, positions)
	view := quoteMapView(quotes)

	results := make([]PositionSyncResult, 0, len(positions))
	syncedAt := utils.TimeNowKST()

	for i := range positions {
		position := &positions[i]
		result := PositionSyncResult{StockCode: position.StockCode}

		snap, ok := quotes[position.StockCode]
		if !ok {
			result.Status = SKIPPED
			result.Errors = "no price available"
			results = append(results, result)
			continue
		}

		pv := valuation.Valuate(*position, view)
		position.CurrentPrice = utils.ToPointer(snap.Price)
		position.UnrealizedProfit = utils.ToPointer(pv.Profit.InexactFloat64())
		position.UnrealizedReturnPct = utils.ToPointer(pv.ReturnPct.InexactFloat64())
		position.LastSyncedAt = utils.ToPointer(syncedAt)

		if err := j.stockPositionRepo.UpdateSnapshot(ctx, position); err != nil {
			j.logger.Error("Failed to update position snapshot",
				logger.ErrorField(err), logger.StringField("stock_code", position.StockCode))
			result.Status = FAILED
			result.Errors = err.Error()
			results = append(results, result)
			continue
		}

		result.Status = SUCCESS
		results = append(results, result)
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	return string(resultJSON), nil
}

// collectQuotes prefers the poller's Redis last-price mirror and falls back to
// one batched price API call for whatever the mirror missed.
func (j *snapshotSyncJob) collectQuotes(ctx context.Context, positions []entity.StockPosition) map[string]market.PriceSnapshot {
	quotes := make(map[string]market.PriceSnapshot)

	seen := make(map[string]struct{})
	var missing []string
	for _, position := range positions {
		if _, ok := seen[position.StockCode]; ok {
			continue
		}
		seen[position.StockCode] = struct{}{}

		if snap, ok := j.lastPriceFromMirror(ctx, position.StockCode); ok {
			quotes[position.StockCode] = snap
		} else {
			missing = append(missing, position.StockCode)
		}
	}

	if len(missing) == 0 {
		return quotes
	}

	fetched, err := j.priceRepo.GetQuotes(ctx, missing)
	if err != nil {
		j.logger.Error("Failed to fetch quotes for snapshot sync",
			logger.ErrorField(err), logger.IntField("missing_codes", len(missing)))
		return quotes
	}
	for stockCode, snap := range fetched {
		quotes[stockCode] = snap
	}

	return quotes
}

// lastPriceFromMirror reads the mirrored quote for one code.
func (j *snapshotSyncJob) lastPriceFromMirror(ctx context.Context, stockCode string) (market.PriceSnapshot, bool) {
	if j.redisClient == nil {
		return market.PriceSnapshot{}, false
	}

	values, err := j.redisClient.HGetAll(ctx, fmt.Sprintf(common.RedisKeyLastPrice, stockCode)).Result()
	if err != nil || len(values) == 0 {
		return market.PriceSnapshot{}, false
	}

	price, err := strconv.ParseFloat(values["price"], 64)
	if err != nil || price <= 0 {
		return market.PriceSnapshot{}, false
	}

	snap := market.PriceSnapshot{
		StockCode: stockCode,
		Price:     price,
	}
	if changeRate, err := strconv.ParseFloat(values["change_rate"], 64); err == nil {
		snap.ChangeRate = changeRate
	}
	if fetchedAtUnix, err := strconv.ParseInt(values["fetched_at"], 10, 64); err == nil {
		snap.FetchedAt = time.Unix(fetchedAtUnix, 0)
	}

	return snap, true
}
