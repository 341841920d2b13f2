package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/repository"
	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/internal/valuation"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDisclosureLimit = 20
	syncStreamMaxLen       = 1000
)

var validSyncKinds = []string{
	common.SyncKindSnapshot,
	common.SyncKindDisclosure,
	common.SyncKindSummary,
}

// PollingController is the poller surface the dashboard drives.
type PollingController interface {
	Enable(stockCodes []string, interval time.Duration)
	Disable()
	Status() dto.PollerStatus
}

// DashboardService assembles the dashboard snapshot and owns the polling and
// sync controls around it.
type DashboardService interface {
	GetDashboard(ctx context.Context) (*dto.DashboardResponse, error)
	GetLivePrices(ctx context.Context, stockCodes []string) (*dto.LivePricesResponse, error)
	SetPolling(ctx context.Context, enabled bool) (*dto.PollerStatus, error)
	GetPollingStatus(ctx context.Context) (*dto.PollerStatus, error)
	RequestSync(ctx context.Context, kind string) (*dto.SyncRunResponse, error)
	GetSyncRuns(ctx context.Context, limit int) ([]dto.SyncRunResponse, error)
	GetDisclosures(ctx context.Context, stockCodes []string, limit int) ([]dto.DisclosureResponse, error)
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	ideaRepo repository.IdeaRepository,
	disclosureRepo repository.DisclosureRepository,
	mentionRepo repository.MentionRepository,
	syncRunRepo repository.SyncRunRepository,
	overlay *PriceOverlay,
	poller PollingController,
	redisClient *redis.Client,
	log *logger.Logger,
) DashboardService {
	return &dashboardService{
		ideaRepo:       ideaRepo,
		disclosureRepo: disclosureRepo,
		mentionRepo:    mentionRepo,
		syncRunRepo:    syncRunRepo,
		overlay:        overlay,
		poller:         poller,
		redisClient:    redisClient,
		logger:         log,
	}
}

type dashboardService struct {
	ideaRepo       repository.IdeaRepository
	disclosureRepo repository.DisclosureRepository
	mentionRepo    repository.MentionRepository
	syncRunRepo    repository.SyncRunRepository
	overlay        *PriceOverlay
	poller         PollingController
	redisClient    *redis.Client
	logger         *logger.Logger
}

// GetDashboard builds the full dashboard snapshot. The valuation core always
// renders; the disclosure and mention panels degrade to empty on failure.
func (s *dashboardService) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	ideas, err := s.ideaRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load ideas for dashboard", logger.ErrorField(err))
		return nil, err
	}

	summary := valuation.Aggregate(ideas, s.overlay)
	stockCodes := valuation.OpenStockCodes(ideas)

	resp := &dto.DashboardResponse{
		Ideas:      make([]dto.IdeaResponse, 0, len(ideas)),
		Aggregate:  mapToAggregateValuation(summary),
		LivePrices: s.collectLivePrices(nil),
		Polling:    s.poller.Status(),
		AsOf:       utils.TimeNowKST(),
	}
	for i := range ideas {
		resp.Ideas = append(resp.Ideas, *mapToIdeaResponse(&ideas[i], s.overlay))
	}

	disclosures, err := s.disclosureRepo.ListRecent(ctx, stockCodes, defaultDisclosureLimit)
	if err != nil {
		s.logger.Warn("Failed to load disclosures for dashboard", logger.ErrorField(err))
	} else {
		resp.Disclosures = mapToDisclosureResponses(disclosures)
	}

	mentions, err := s.mentionRepo.GetMentions(ctx, stockCodes)
	if err != nil {
		s.logger.Warn("Failed to load mention signals for dashboard", logger.ErrorField(err))
	} else {
		resp.Mentions = mentions
	}

	return resp, nil
}

// GetLivePrices returns the current overlay, optionally filtered to the
// requested stock codes.
func (s *dashboardService) GetLivePrices(_ context.Context, stockCodes []string) (*dto.LivePricesResponse, error) {
	return &dto.LivePricesResponse{Prices: s.collectLivePrices(stockCodes)}, nil
}

// SetPolling enables or disables the live price poller. Enabling derives the
// tracked codes from the open positions; with none, the poller stops.
func (s *dashboardService) SetPolling(ctx context.Context, enabled bool) (*dto.PollerStatus, error) {
	if !enabled {
		s.poller.Disable()
		status := s.poller.Status()
		return &status, nil
	}

	ideas, err := s.ideaRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to derive stock codes for polling", logger.ErrorField(err))
		return nil, err
	}

	s.poller.Enable(valuation.OpenStockCodes(ideas), 0)
	status := s.poller.Status()
	return &status, nil
}

// GetPollingStatus reports the poller state and counters.
func (s *dashboardService) GetPollingStatus(_ context.Context) (*dto.PollerStatus, error) {
	status := s.poller.Status()
	return &status, nil
}

// RequestSync records a pending sync run and enqueues it for the sync
// service. The run row doubles as the stream payload, so the worker can
// update the same record when it picks the request up.
func (s *dashboardService) RequestSync(ctx context.Context, kind string) (*dto.SyncRunResponse, error) {
	if kind == "" {
		kind = common.SyncKindSnapshot
	}
	if !utils.ContainsString(validSyncKinds, kind) {
		return nil, fmt.Errorf("%w: invalid sync kind %q", ErrInvalidRequest, kind)
	}
	if s.redisClient == nil {
		return nil, fmt.Errorf("sync requests are unavailable: redis is not configured")
	}

	run := &entity.SyncRun{
		Kind:      kind,
		Status:    entity.SyncRunStatusPending,
		StartedAt: utils.TimeNowKST(),
	}
	if err := s.syncRunRepo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record sync run", logger.ErrorField(err))
		return nil, err
	}

	payload, err := json.Marshal(run)
	if err != nil {
		s.logger.Error("Failed to marshal sync request payload", logger.ErrorField(err), logger.Field("sync_run_id", run.ID))
		return nil, err
	}

	if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamSyncRequest,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: syncStreamMaxLen,
	}).Err(); err != nil {
		s.logger.Error("Failed to enqueue sync request", logger.ErrorField(err), logger.Field("sync_run_id", run.ID))
		return nil, err
	}

	s.logger.Info("Sync requested", logger.StringField("kind", kind), logger.Field("sync_run_id", run.ID))
	return mapToSyncRunResponse(run), nil
}

// GetSyncRuns lists recent sync executions, newest first.
func (s *dashboardService) GetSyncRuns(ctx context.Context, limit int) ([]dto.SyncRunResponse, error) {
	runs, err := s.syncRunRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SyncRunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, *mapToSyncRunResponse(&runs[i]))
	}
	return responses, nil
}

// GetDisclosures lists recent disclosures for the given stock codes.
func (s *dashboardService) GetDisclosures(ctx context.Context, stockCodes []string, limit int) ([]dto.DisclosureResponse, error) {
	disclosures, err := s.disclosureRepo.ListRecent(ctx, stockCodes, limit)
	if err != nil {
		return nil, err
	}
	return mapToDisclosureResponses(disclosures), nil
}

func (s *dashboardService) collectLivePrices(stockCodes []string) map[string]dto.LivePrice {
	snapshot := s.overlay.Snapshot()
	prices := make(map[string]dto.LivePrice, len(snapshot))

	if len(stockCodes) == 0 {
		for stockCode, snap := range snapshot {
			prices[stockCode] = mapToLivePrice(snap)
		}
		return prices
	}

	for _, stockCode := range stockCodes {
		if snap, ok := snapshot[stockCode]; ok {
			prices[stockCode] = mapToLivePrice(snap)
		}
	}
	return prices
}

func mapToAggregateValuation(summary valuation.Summary) dto.AggregateValuation {
	return dto.AggregateValuation{
		TotalUnrealizedProfit: summary.TotalUnrealized.InexactFloat64(),
		TotalReturnPct:        summary.TotalReturnPct().InexactFloat64(),
		IsLive:                summary.Live,
		LivePositions:         summary.LiveCount,
		CachedPositions:       summary.CachedCount,
		MissingPositions:      summary.NoneCount,
	}
}

func mapToLivePrice(snapshot market.PriceSnapshot) dto.LivePrice {
	return dto.LivePrice{
		StockCode:    snapshot.StockCode,
		CurrentPrice: snapshot.Price,
		ChangeRate:   snapshot.ChangeRate,
		FetchedAt:    snapshot.FetchedAt,
	}
}

func mapToDisclosureResponses(disclosures []entity.Disclosure) []dto.DisclosureResponse {
	responses := make([]dto.DisclosureResponse, 0, len(disclosures))
	for _, disclosure := range disclosures {
		responses = append(responses, dto.DisclosureResponse{
			ID:          disclosure.ID,
			StockCode:   disclosure.StockCode,
			Title:       disclosure.Title,
			Source:      disclosure.Source,
			URL:         disclosure.URL,
			PublishedAt: disclosure.PublishedAt,
		})
	}
	return responses
}

func mapToSyncRunResponse(run *entity.SyncRun) *dto.SyncRunResponse {
	resp := &dto.SyncRunResponse{
		ID:        run.ID,
		Kind:      run.Kind,
		Status:    run.Status,
		StartedAt: run.StartedAt,
		Result:    json.RawMessage(run.Result),
	}
	if run.CompletedAt.Valid {
		completedAt := run.CompletedAt.Time
		resp.CompletedAt = &completedAt
	}
	if run.ErrorMessage.Valid {
		resp.ErrorMessage = run.ErrorMessage.String
	}
	return resp
}
