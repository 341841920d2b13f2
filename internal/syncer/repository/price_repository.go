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

	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/config"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"
)

const defaultPriceAPITimeout = 10 * time.Second

// PriceRepository fetches quotes for codes the Redis mirror could not cover.
// Sync runs issue at most one batched request, so unlike the dashboard poller
// this client carries no rate limiter.
type PriceRepository interface {
	GetQuotes(ctx context.Context, stockCodes []string) (map[string]market.PriceSnapshot, error)
}

type priceRepository struct {
	cfg        config.PriceAPI
	log        *logger.Logger
	httpClient *http.Client
}

// NewPriceRepository creates an HTTP client for the price API.
func NewPriceRepository(cfg config.PriceAPI, log *logger.Logger) PriceRepository {
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
	}
}

type getQuotesResponse struct {
	Data []struct {
		StockCode    string  `json:"stock_code"`
		CurrentPrice float64 `json:"current_price"`
		ChangeRate   float64 `json:"change_rate"`
	} `json:"data"`
}

func (r *priceRepository) GetQuotes(ctx context.Context, stockCodes []string) (map[string]market.PriceSnapshot, error) {
	quotes := make(map[string]market.PriceSnapshot)
	if len(stockCodes) == 0 {
		return quotes, nil
	}

	reqURL := fmt.Sprintf("%s/api/v1/quotes?codes=%s",
		r.cfg.BaseURL, url.QueryEscape(strings.Join(stockCodes, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to price API", logger.ErrorField(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Received non-OK response from price API",
			logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response getQuotesResponse
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

	return quotes, nil
}
