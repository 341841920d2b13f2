package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/syncer/repository"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/telegram"
	"golang-idea-tracker/pkg/utils"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

const defaultDisclosureAlertTTL = 6 * time.Hour

// FeedSyncResult records the outcome for one disclosure feed within a run.
type FeedSyncResult struct {
	FeedURL string   `json:"feed_url"`
	Status  string   `json:"status"`
	Matched int      `json:"matched"`
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

// NewDisclosureSyncJob creates the job that pulls disclosure feeds and alerts
// on entries matching tracked stock codes.
func NewDisclosureSyncJob(
	stockPositionRepo repository.StockPositionRepository,
	disclosureRepo repository.DisclosureRepository,
	telegramNotifier telegram.Notifier,
	feedURLs []string,
	alertTTL time.Duration,
	log *logger.Logger,
) SyncJob {
	if alertTTL <= 0 {
		alertTTL = defaultDisclosureAlertTTL
	}

	return &disclosureSyncJob{
		stockPositionRepo: stockPositionRepo,
		disclosureRepo:    disclosureRepo,
		telegramNotifier:  telegramNotifier,
		feedParser:        gofeed.NewParser(),
		feedURLs:          feedURLs,
		alertTTL:          alertTTL,
		alertCache:        cache.New(alertTTL, 2*alertTTL),
		logger:            log,
	}
}

type disclosureSyncJob struct {
	stockPositionRepo repository.StockPositionRepository
	disclosureRepo    repository.DisclosureRepository
	telegramNotifier  telegram.Notifier
	feedParser        *gofeed.Parser
	feedURLs          []string
	alertTTL          time.Duration
	alertCache        *cache.Cache
	logger            *logger.Logger
}

// GetKind returns the sync kind this job handles.
func (j *disclosureSyncJob) GetKind() string {
	return common.SyncKindDisclosure
}

// Execute pulls every configured feed and stores entries that mention a
// tracked stock code.
func (j *disclosureSyncJob) Execute(ctx context.Context) (string, error) {
	stockCodes, err := j.stockPositionRepo.FindOpenStockCodes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tracked stock codes: %w", err)
	}

	results := make([]FeedSyncResult, 0, len(j.feedURLs))
	if len(stockCodes) == 0 {
		j.logger.Info("No tracked stock codes, skipping disclosure feeds")
		resultJSON, err := json.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("failed to marshal results: %w", err)
		}
		return string(resultJSON), nil
	}

	for _, feedURL := range j.feedURLs {
		if !utils.ShouldContinue(ctx, j.logger) {
			break
		}
		results = append(results, j.syncFeed(ctx, feedURL, stockCodes))
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	return string(resultJSON), nil
}

func (j *disclosureSyncJob) syncFeed(ctx context.Context, feedURL string, stockCodes []string) FeedSyncResult {
	result := FeedSyncResult{
		FeedURL: feedURL,
		Errors:  []string{},
	}

	j.logger.Info("Processing disclosure feed", logger.StringField("url", feedURL))
	feed, err := j.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		j.logger.Error("Failed to parse disclosure feed", logger.ErrorField(err), logger.StringField("url", feedURL))
		result.Status = FAILED
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, item := range feed.Items {
		stockCode := matchStockCode(item, stockCodes)
		if stockCode == "" {
			continue
		}
		result.Matched++

		disclosure := &entity.Disclosure{
			StockCode:   stockCode,
			Title:       item.Title,
			Source:      feed.Title,
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
		}

		created, err := j.disclosureRepo.CreateIgnoreConflict(ctx, disclosure)
		if err != nil {
			j.logger.Error("Failed to store disclosure",
				logger.ErrorField(err), logger.StringField("url", item.Link))
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if created {
			result.Created++
		}

		// A recent entry that already exists may still owe an alert when an
		// earlier send failed; the cache keeps that path from repeating.
		if created || j.isRecent(disclosure) {
			j.sendAlert(disclosure)
		}
	}

	if len(result.Errors) > 0 {
		result.Status = FAILED
	} else {
		result.Status = SUCCESS
	}
	return result
}

func (j *disclosureSyncJob) isRecent(disclosure *entity.Disclosure) bool {
	if disclosure.PublishedAt == nil {
		return false
	}
	return time.Since(*disclosure.PublishedAt) <= j.alertTTL
}

func (j *disclosureSyncJob) sendAlert(disclosure *entity.Disclosure) {
	if _, found := j.alertCache.Get(disclosure.URL); found {
		return
	}

	message := telegram.FormatDisclosureAlertMessage(disclosure)
	if err := j.telegramNotifier.SendMessage(message); err != nil {
		j.logger.Error("Failed to send disclosure alert",
			logger.ErrorField(err), logger.StringField("stock_code", disclosure.StockCode))
		return
	}

	j.alertCache.Set(disclosure.URL, struct{}{}, cache.DefaultExpiration)
	j.logger.Debug("Sent disclosure alert",
		logger.StringField("stock_code", disclosure.StockCode), logger.StringField("url", disclosure.URL))
}

func matchStockCode(item *gofeed.Item, stockCodes []string) string {
	for _, stockCode := range stockCodes {
		if strings.Contains(item.Title, stockCode) || strings.Contains(item.Description, stockCode) {
			return stockCode
		}
	}
	return ""
}
