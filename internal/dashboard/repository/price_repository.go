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

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/config"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultPriceAPITimeout = 10 * time.Second

// PriceRepository fetches live quotes from the upstream price API.
type PriceRepository interface {
	// GetQuotes returns a snapshot per resolved stock code. Codes unknown to
	// the upstream are absent from the result. An empty input returns an
	// empty map without touching the network.
	GetQuotes(ctx context.Context, stockCodes []string) (map[string]market.PriceSnapshot, error)
}

type priceRepository struct {
	cfg            config.PriceAPI
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewPriceRepository creates a rate-limited HTTP client for the price API.
func NewPriceRepository(cfg config.PriceAPI, log *logger.Logger) PriceRepository {
	maxPerMinute := cfg.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	secondsPerRequest := time.Minute / time.Duration(maxPerMinute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPriceAPITimeout
	}

	return &priceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *priceRepository) GetQuotes(ctx context.Context, stockCodes []string) (map[string]market.PriceSnapshot, error) {
	quotes := make(map[string]market.PriceSnapshot)
	if len(stockCodes) == 0 {
		return quotes, nil
	}

	reqURL := fmt.Sprintf("%s/api/v1/quotes?codes=%s",
		r.cfg.BaseURL, url.QueryEscape(strings.Join(stockCodes, ",")))

	body, err := r.sendRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var response dto.GetQuotesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode price API response: %w", err)
	}

	fetchedAt := utils.TimeNowKST()
	for _, quote := range response.Data {
		if quote.StockCode == "" {
			continue
		}
		quotes[quote.StockCode] = market.PriceSnapshot{
			StockCode:  quote.StockCode,
			Price:      quote.CurrentPrice,
			ChangeRate: quote.ChangeRate,
			FetchedAt:  fetchedAt,
		}
	}

	r.log.DebugContext(ctx, "Fetched live quotes",
		logger.IntField("requested", len(stockCodes)),
		logger.IntField("resolved", len(quotes)))

	return quotes, nil
}

func (r *priceRepository) sendRequest(ctx context.Context, reqURL string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", reqURL),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to price API", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.ErrorContext(ctx, "Received non-OK response from price API", fields...)
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from price API", fields...)
		return nil, err
	}

	return body, nil
}
