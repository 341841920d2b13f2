package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboardService struct {
	dashboard   *dto.DashboardResponse
	prices      *dto.LivePricesResponse
	status      *dto.PollerStatus
	run         *dto.SyncRunResponse
	runs        []dto.SyncRunResponse
	disclosures []dto.DisclosureResponse
	err         error

	gotCodes   []string
	gotEnabled bool
	gotKind    string
	gotLimit   int
}

func (s *stubDashboardService) GetDashboard(_ context.Context) (*dto.DashboardResponse, error) {
	return s.dashboard, s.err
}

func (s *stubDashboardService) GetLivePrices(_ context.Context, stockCodes []string) (*dto.LivePricesResponse, error) {
	s.gotCodes = stockCodes
	return s.prices, s.err
}

func (s *stubDashboardService) SetPolling(_ context.Context, enabled bool) (*dto.PollerStatus, error) {
	s.gotEnabled = enabled
	return s.status, s.err
}

func (s *stubDashboardService) GetPollingStatus(_ context.Context) (*dto.PollerStatus, error) {
	return s.status, s.err
}

func (s *stubDashboardService) RequestSync(_ context.Context, kind string) (*dto.SyncRunResponse, error) {
	s.gotKind = kind
	return s.run, s.err
}

func (s *stubDashboardService) GetSyncRuns(_ context.Context, limit int) ([]dto.SyncRunResponse, error) {
	s.gotLimit = limit
	return s.runs, s.err
}

func (s *stubDashboardService) GetDisclosures(_ context.Context, stockCodes []string, limit int) ([]dto.DisclosureResponse, error) {
	s.gotCodes = stockCodes
	s.gotLimit = limit
	return s.disclosures, s.err
}

func TestGetDashboardHandler(t *testing.T) {
	stub := &stubDashboardService{dashboard: &dto.DashboardResponse{
		Aggregate: dto.AggregateValuation{TotalUnrealizedProfit: 25000, IsLive: true, LivePositions: 1, CachedPositions: 1},
		Polling:   dto.PollerStatus{State: "scheduled"},
		AsOf:      time.Now(),
	}}
	h := NewDashboardHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodGet, "/api/v1/dashboard", "")
	require.NoError(t, h.GetDashboard(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got dto.DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 25000.0, got.Aggregate.TotalUnrealizedProfit)
	assert.True(t, got.Aggregate.IsLive)
	assert.Equal(t, "scheduled", got.Polling.State)
}

func TestGetLivePricesHandlerParsesCodes(t *testing.T) {
	stub := &stubDashboardService{prices: &dto.LivePricesResponse{Prices: map[string]dto.LivePrice{}}}
	h := NewDashboardHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodGet, "/api/v1/prices/live?codes=005930,%20000660,", "")
	require.NoError(t, h.GetLivePrices(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"005930", "000660"}, stub.gotCodes)
}

func TestSetPollingHandler(t *testing.T) {
	stub := &stubDashboardService{status: &dto.PollerStatus{State: "scheduled", StockCodes: []string{"005930"}}}
	h := NewDashboardHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodPost, "/api/v1/polling", `{"enabled":true}`)
	require.NoError(t, h.SetPolling(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stub.gotEnabled)

	var got dto.PollerStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "scheduled", got.State)
}

func TestRequestSyncHandler(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		stub := &stubDashboardService{run: &dto.SyncRunResponse{ID: 1, Kind: "snapshot", Status: "pending"}}
		h := NewDashboardHandler(stub, newHandlerTestLogger(t))

		c, rec := newEchoContext(http.MethodPost, "/api/v1/sync", `{"kind":"snapshot"}`)
		require.NoError(t, h.RequestSync(c))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "snapshot", stub.gotKind)

		var got dto.SyncRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "pending", got.Status)
	})

	t.Run("invalid kind", func(t *testing.T) {
		stub := &stubDashboardService{err: fmt.Errorf("%w: invalid sync kind %q", service.ErrInvalidRequest, "defrag")}
		h := NewDashboardHandler(stub, newHandlerTestLogger(t))

		c, rec := newEchoContext(http.MethodPost, "/api/v1/sync", `{"kind":"defrag"}`)
		require.NoError(t, h.RequestSync(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSyncRunsHandler(t *testing.T) {
	stub := &stubDashboardService{runs: []dto.SyncRunResponse{{ID: 2, Kind: "disclosure", Status: "success"}}}
	h := NewDashboardHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodGet, "/api/v1/syncs?limit=5", "")
	require.NoError(t, h.GetSyncRuns(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, stub.gotLimit)
}

func TestGetDisclosuresHandlerPassesFilters(t *testing.T) {
	stub := &stubDashboardService{disclosures: []dto.DisclosureResponse{}}
	h := NewDashboardHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodGet, "/api/v1/disclosures?codes=005930&limit=3", "")
	require.NoError(t, h.GetDisclosures(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"005930"}, stub.gotCodes)
	assert.Equal(t, 3, stub.gotLimit)
}

func TestParseStockCodes(t *testing.T) {
	assert.Nil(t, parseStockCodes(""))
	assert.Equal(t, []string{"005930"}, parseStockCodes("005930"))
	assert.Equal(t, []string{"005930", "000660"}, parseStockCodes(" 005930 , 000660 ,"))
}
