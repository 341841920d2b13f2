package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dashboardconfig "golang-idea-tracker/internal/dashboard/config"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu   sync.Mutex
	open bool
}

func (c *fakeClock) SetOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = open
}

func (c *fakeClock) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// scriptedFetcher returns the scripted quotes for every requested code it
// knows. A non-nil release channel blocks each call until the channel closes.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	quotes  map[string]market.PriceSnapshot
	err     error
	release chan struct{}
}

func (f *scriptedFetcher) GetQuotes(_ context.Context, stockCodes []string) (map[string]market.PriceSnapshot, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	err := f.err
	result := make(map[string]market.PriceSnapshot)
	for _, code := range stockCodes {
		if snap, ok := f.quotes[code]; ok {
			result[code] = snap
		}
	}
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newPollerTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func newTestPoller(t *testing.T, clock market.Clock, fetcher *scriptedFetcher) (*PricePoller, *PriceOverlay) {
	t.Helper()
	overlay := NewPriceOverlay()
	poller := NewPricePoller(dashboardconfig.Polling{
		Interval:     50 * time.Millisecond,
		FetchTimeout: time.Second,
	}, clock, fetcher, overlay, nil, newPollerTestLogger(t))
	t.Cleanup(poller.Disable)
	return poller, overlay
}

func TestPollerImmediateFetchOnEnable(t *testing.T) {
	clock := &fakeClock{open: true}
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"005930": {StockCode: "005930", Price: 72000},
		},
	}
	poller, overlay := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"005930"}, time.Hour)

	require.Eventually(t, func() bool {
		return fetcher.Calls() == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		snap, ok := overlay.Quote("005930")
		return ok && snap.Price == 72000
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, PollerStateScheduled, poller.Status().State)
}

func TestPollerNoFetchWhileMarketClosed(t *testing.T) {
	clock := &fakeClock{open: false}
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"A": {StockCode: "A", Price: 1},
		},
	}
	poller, _ := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"A", "B"}, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 0, fetcher.Calls())
	assert.GreaterOrEqual(t, poller.Status().SkipCount, int64(2))
}

func TestPollerSingleFlight(t *testing.T) {
	clock := &fakeClock{open: true}
	release := make(chan struct{})
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"A": {StockCode: "A", Price: 1},
		},
		release: release,
	}
	poller, _ := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"A"}, 20*time.Millisecond)

	// The immediate fetch blocks; later ticks must skip, not stack up.
	require.Eventually(t, func() bool {
		return poller.Status().SkipCount >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, fetcher.Calls())

	close(release)

	require.Eventually(t, func() bool {
		return fetcher.Calls() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPollerDisableStopsFetching(t *testing.T) {
	clock := &fakeClock{open: true}
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"A": {StockCode: "A", Price: 1},
		},
	}
	poller, _ := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"A"}, 15*time.Millisecond)
	require.Eventually(t, func() bool {
		return fetcher.Calls() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	poller.Disable()
	// Give a possible in-flight fetch time to finish before sampling.
	time.Sleep(30 * time.Millisecond)
	stopped := fetcher.Calls()

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, stopped, fetcher.Calls())
	assert.Equal(t, PollerStateStopped, poller.Status().State)

	// Disable is idempotent from any state.
	poller.Disable()
	poller.Disable()
}

func TestPollerDisableOnIdleIsSafe(t *testing.T) {
	clock := &fakeClock{open: true}
	poller, _ := newTestPoller(t, clock, &scriptedFetcher{})

	poller.Disable()
	assert.Equal(t, PollerStateIdle, poller.Status().State)
}

func TestPollerInFlightFetchCompletesAfterDisable(t *testing.T) {
	clock := &fakeClock{open: true}
	release := make(chan struct{})
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"005930": {StockCode: "005930", Price: 71500},
		},
		release: release,
	}
	poller, overlay := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"005930"}, time.Hour)
	require.Eventually(t, func() bool {
		return fetcher.Calls() == 1
	}, 2*time.Second, 5*time.Millisecond)

	poller.Disable()
	close(release)

	// The fetch that was underway still lands in the overlay.
	require.Eventually(t, func() bool {
		snap, ok := overlay.Quote("005930")
		return ok && snap.Price == 71500
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestPollerEnableWithEmptyCodesStops(t *testing.T) {
	clock := &fakeClock{open: true}
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"A": {StockCode: "A", Price: 1},
		},
	}
	poller, _ := newTestPoller(t, clock, fetcher)

	poller.Enable(nil, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, fetcher.Calls())

	poller.Enable([]string{"A"}, 15*time.Millisecond)
	require.Eventually(t, func() bool {
		return fetcher.Calls() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	// The tracked set draining away behaves like teardown.
	poller.UpdateStockCodes(nil)
	assert.Equal(t, PollerStateStopped, poller.Status().State)
	stopped := fetcher.Calls()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, stopped, fetcher.Calls())
}

func TestPollerUpdateStockCodes(t *testing.T) {
	clock := &fakeClock{open: true}
	fetcher := &scriptedFetcher{
		quotes: map[string]market.PriceSnapshot{
			"A": {StockCode: "A", Price: 1},
			"B": {StockCode: "B", Price: 2},
		},
	}
	poller, _ := newTestPoller(t, clock, fetcher)

	poller.Enable([]string{"A"}, time.Hour)
	require.Eventually(t, func() bool {
		return fetcher.Calls() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Same set, possibly reordered: no restart, no extra immediate fetch.
	poller.UpdateStockCodes([]string{"A"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.Calls())

	// A new set restarts the loop and fetches promptly.
	poller.UpdateStockCodes([]string{"B", "A"})
	require.Eventually(t, func() bool {
		return fetcher.Calls() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A", "B"}, poller.Status().StockCodes)
}

func TestPollerFetchFailureKeepsOverlayAndCounts(t *testing.T) {
	clock := &fakeClock{open: true}
	fetcher := &scriptedFetcher{err: errors.New("upstream down")}
	poller, overlay := newTestPoller(t, clock, fetcher)

	overlay.Apply(map[string]market.PriceSnapshot{
		"005930": {StockCode: "005930", Price: 70500},
	})

	poller.Enable([]string{"005930"}, 15*time.Millisecond)
	require.Eventually(t, func() bool {
		return poller.Status().FailureCount >= 2
	}, 2*time.Second, 5*time.Millisecond)

	snap, ok := overlay.Quote("005930")
	require.True(t, ok)
	assert.Equal(t, 70500.0, snap.Price)

	status := poller.Status()
	assert.Equal(t, "upstream down", status.LastError)
	assert.NotNil(t, status.LastErrorAt)
	assert.Nil(t, status.LastFetchAt)
}
