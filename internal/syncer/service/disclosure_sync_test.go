package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-idea-tracker/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisclosureSyncRepo struct {
	existing map[string]bool
	upserts  []entity.Disclosure
	err      error
}

func (f *fakeDisclosureSyncRepo) CreateIgnoreConflict(_ context.Context, disclosure *entity.Disclosure) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.upserts = append(f.upserts, *disclosure)
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	if f.existing[disclosure.URL] {
		return false, nil
	}
	f.existing[disclosure.URL] = true
	return true, nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) SendMessage(text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func disclosureFeedServer(t *testing.T, pubDate time.Time) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>KIND Disclosures</title>
<item>
<title>삼성전자(005930) Report on major shareholder change</title>
<link>https://kind.example.com/disclosures/1</link>
<pubDate>%s</pubDate>
</item>
<item>
<title>Unrelated company announcement</title>
<link>https://kind.example.com/disclosures/2</link>
<pubDate>%s</pubDate>
</item>
</channel>
</rss>`, pubDate.Format(time.RFC1123Z), pubDate.Format(time.RFC1123Z))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDisclosureSyncStoresAndAlertsOnMatches(t *testing.T) {
	server := disclosureFeedServer(t, time.Now())
	positionRepo := &fakePositionSyncRepo{stockCodes: []string{"005930"}}
	disclosureRepo := &fakeDisclosureSyncRepo{}
	notifier := &fakeNotifier{}

	job := NewDisclosureSyncJob(positionRepo, disclosureRepo, notifier,
		[]string{server.URL}, time.Hour, newSyncTestLogger(t))

	output, err := job.Execute(context.Background())
	require.NoError(t, err)

	var results []FeedSyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, SUCCESS, results[0].Status)
	assert.Equal(t, 1, results[0].Matched)
	assert.Equal(t, 1, results[0].Created)

	require.Len(t, disclosureRepo.upserts, 1)
	stored := disclosureRepo.upserts[0]
	assert.Equal(t, "005930", stored.StockCode)
	assert.Equal(t, "KIND Disclosures", stored.Source)
	assert.NotNil(t, stored.PublishedAt)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "005930")
	assert.Contains(t, notifier.messages[0], "major shareholder change")
}

func TestDisclosureSyncDoesNotRepeatAlerts(t *testing.T) {
	server := disclosureFeedServer(t, time.Now())
	positionRepo := &fakePositionSyncRepo{stockCodes: []string{"005930"}}
	disclosureRepo := &fakeDisclosureSyncRepo{}
	notifier := &fakeNotifier{}

	job := NewDisclosureSyncJob(positionRepo, disclosureRepo, notifier,
		[]string{server.URL}, time.Hour, newSyncTestLogger(t))

	_, err := job.Execute(context.Background())
	require.NoError(t, err)

	// Second pass sees the same recent entry already stored. The alert cache
	// keeps it from being sent again.
	output, err := job.Execute(context.Background())
	require.NoError(t, err)

	var results []FeedSyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Created)
	assert.Equal(t, 1, results[0].Matched)

	assert.Len(t, notifier.messages, 1)
}

func TestDisclosureSyncSkipsFeedsWithoutTrackedCodes(t *testing.T) {
	positionRepo := &fakePositionSyncRepo{}
	disclosureRepo := &fakeDisclosureSyncRepo{}
	notifier := &fakeNotifier{}

	job := NewDisclosureSyncJob(positionRepo, disclosureRepo, notifier,
		[]string{"http://127.0.0.1:1/feed"}, time.Hour, newSyncTestLogger(t))

	output, err := job.Execute(context.Background())
	require.NoError(t, err)

	var results []FeedSyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	assert.Empty(t, results)
	assert.Empty(t, notifier.messages)
}

func TestDisclosureSyncReportsFeedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	positionRepo := &fakePositionSyncRepo{stockCodes: []string{"005930"}}
	job := NewDisclosureSyncJob(positionRepo, &fakeDisclosureSyncRepo{}, &fakeNotifier{},
		[]string{server.URL}, time.Hour, newSyncTestLogger(t))

	output, err := job.Execute(context.Background())
	require.NoError(t, err)

	var results []FeedSyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, FAILED, results[0].Status)
	assert.NotEmpty(t, results[0].Errors)
}

func TestDisclosureSyncRecordsStoreFailure(t *testing.T) {
	server := disclosureFeedServer(t, time.Now())
	positionRepo := &fakePositionSyncRepo{stockCodes: []string{"005930"}}
	disclosureRepo := &fakeDisclosureSyncRepo{err: errors.New("constraint violated")}
	notifier := &fakeNotifier{}

	job := NewDisclosureSyncJob(positionRepo, disclosureRepo, notifier,
		[]string{server.URL}, time.Hour, newSyncTestLogger(t))

	output, err := job.Execute(context.Background())
	require.NoError(t, err)

	var results []FeedSyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, FAILED, results[0].Status)
	assert.Contains(t, results[0].Errors[0], "constraint violated")
	assert.Empty(t, notifier.messages)
}
