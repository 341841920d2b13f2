package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	dashboardconfig "golang-idea-tracker/internal/dashboard/config"
	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/pkg/logger"

	cache "github.com/patrickmn/go-cache"
)

const defaultMentionCacheTTL = 5 * time.Minute

// MentionRepository reads per-ticker mention signals from the upstream
// analytics API. Responses are cached in-process so dashboard refreshes do
// not hammer the upstream.
type MentionRepository interface {
	GetMentions(ctx context.Context, stockCodes []string) ([]dto.MentionSignal, error)
}

type mentionRepository struct {
	cfg         dashboardconfig.MentionAPI
	log         *logger.Logger
	httpClient  *http.Client
	memoryCache *cache.Cache
}

// NewMentionRepository creates a mention API client with a TTL response cache.
func NewMentionRepository(cfg dashboardconfig.MentionAPI, log *logger.Logger) MentionRepository {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultMentionCacheTTL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &mentionRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		memoryCache: cache.New(ttl, 2*ttl),
	}
}

func (r *mentionRepository) GetMentions(ctx context.Context, stockCodes []string) ([]dto.MentionSignal, error) {
	if len(stockCodes) == 0 || r.cfg.BaseURL == "" {
		return nil, nil
	}

	cacheKey := strings.Join(stockCodes, ",")
	if cached, found := r.memoryCache.Get(cacheKey); found {
		return cached.([]dto.MentionSignal), nil
	}

	reqURL := fmt.Sprintf("%s/api/v1/mentions?codes=%s", r.cfg.BaseURL, url.QueryEscape(cacheKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to fetch mention signals", logger.ErrorField(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Received non-OK response from mention API",
			logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("mention API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response dto.GetMentionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode mention API response: %w", err)
	}

	r.memoryCache.Set(cacheKey, response.Data, cache.DefaultExpiration)
	return response.Data, nil
}
