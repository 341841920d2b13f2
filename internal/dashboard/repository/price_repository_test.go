package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-idea-tracker/pkg/config"
	"golang-idea-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func newPriceTestServer(t *testing.T, calls *int, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newPriceRepo(t *testing.T, baseURL string) PriceRepository {
	t.Helper()
	return NewPriceRepository(config.PriceAPI{
		BaseURL:             baseURL,
		Timeout:             2 * time.Second,
		MaxRequestPerMinute: 6000,
	}, newTestLogger(t))
}

func TestGetQuotes(t *testing.T) {
	var calls int
	server := newPriceTestServer(t, &calls, http.StatusOK,
		`{"data":[
			{"stock_code":"005930","current_price":72000,"change_rate":1.25},
			{"stock_code":"035720","current_price":48500,"change_rate":-0.8},
			{"stock_code":"","current_price":1}
		]}`)
	defer server.Close()

	repo := newPriceRepo(t, server.URL)
	quotes, err := repo.GetQuotes(context.Background(), []string{"005930", "035720", "UNKNOWN"})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, quotes, 2)
	assert.Equal(t, 72000.0, quotes["005930"].Price)
	assert.Equal(t, 1.25, quotes["005930"].ChangeRate)
	assert.Equal(t, 48500.0, quotes["035720"].Price)
	assert.False(t, quotes["005930"].FetchedAt.IsZero())
}

func TestGetQuotesEmptyInputSkipsNetwork(t *testing.T) {
	var calls int
	server := newPriceTestServer(t, &calls, http.StatusOK, `{"data":[]}`)
	defer server.Close()

	repo := newPriceRepo(t, server.URL)
	quotes, err := repo.GetQuotes(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, 0, calls)
}

func TestGetQuotesSendsJoinedCodes(t *testing.T) {
	var gotCodes string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCodes = r.URL.Query().Get("codes")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	repo := newPriceRepo(t, server.URL)
	quotes, err := repo.GetQuotes(context.Background(), []string{"005930", "035720"})

	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, "005930,035720", gotCodes)
}

func TestGetQuotesUpstreamFailure(t *testing.T) {
	var calls int
	server := newPriceTestServer(t, &calls, http.StatusInternalServerError, `boom`)
	defer server.Close()

	repo := newPriceRepo(t, server.URL)
	quotes, err := repo.GetQuotes(context.Background(), []string{"005930"})

	assert.Error(t, err)
	assert.Nil(t, quotes)
}

func TestGetQuotesMalformedBody(t *testing.T) {
	var calls int
	server := newPriceTestServer(t, &calls, http.StatusOK, `{"data": not-json`)
	defer server.Close()

	repo := newPriceRepo(t, server.URL)
	_, err := repo.GetQuotes(context.Background(), []string{"005930"})

	assert.Error(t, err)
}
