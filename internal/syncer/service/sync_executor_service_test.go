package service

import (
	"context"
	"errors"
	"testing"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncRunRepo struct {
	seq     uint
	created []entity.SyncRun
	updated []entity.SyncRun
}

func (f *fakeSyncRunRepo) Create(_ context.Context, run *entity.SyncRun) error {
	f.seq++
	run.ID = f.seq
	f.created = append(f.created, *run)
	return nil
}

func (f *fakeSyncRunRepo) Update(_ context.Context, run *entity.SyncRun) error {
	f.updated = append(f.updated, *run)
	return nil
}

type fakeSyncJob struct {
	kind   string
	output string
	err    error
	calls  int
}

func (f *fakeSyncJob) Execute(_ context.Context) (string, error) {
	f.calls++
	return f.output, f.err
}

func (f *fakeSyncJob) GetKind() string {
	return f.kind
}

func TestTriggerRecordsSuccessfulRun(t *testing.T) {
	runs := &fakeSyncRunRepo{}
	job := &fakeSyncJob{kind: common.SyncKindSnapshot, output: `[{"stock_code":"005930","status":"SUCCESS"}]`}
	executor := NewSyncExecutorService(nil, runs, &fakeNotifier{}, newSyncTestLogger(t), []SyncJob{job})

	executor.Trigger(context.Background(), common.SyncKindSnapshot)

	assert.Equal(t, 1, job.calls)
	require.Len(t, runs.created, 1)
	assert.Equal(t, entity.SyncRunStatusRunning, runs.created[0].Status)

	require.Len(t, runs.updated, 1)
	final := runs.updated[0]
	assert.Equal(t, entity.SyncRunStatusSuccess, final.Status)
	assert.True(t, final.CompletedAt.Valid)
	assert.JSONEq(t, job.output, string(final.Result))
}

func TestTriggerRecordsFailureAndNotifies(t *testing.T) {
	runs := &fakeSyncRunRepo{}
	notifier := &fakeNotifier{}
	job := &fakeSyncJob{kind: common.SyncKindDisclosure, err: errors.New("feed unreachable")}
	executor := NewSyncExecutorService(nil, runs, notifier, newSyncTestLogger(t), []SyncJob{job})

	executor.Trigger(context.Background(), common.SyncKindDisclosure)

	require.Len(t, runs.updated, 1)
	final := runs.updated[0]
	assert.Equal(t, entity.SyncRunStatusFailed, final.Status)
	assert.True(t, final.ErrorMessage.Valid)
	assert.Contains(t, final.ErrorMessage.String, "feed unreachable")
	assert.True(t, final.CompletedAt.Valid)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], common.SyncKindDisclosure)
	assert.Contains(t, notifier.messages[0], "feed unreachable")
}

func TestTriggerUnknownKindFails(t *testing.T) {
	runs := &fakeSyncRunRepo{}
	executor := NewSyncExecutorService(nil, runs, &fakeNotifier{}, newSyncTestLogger(t), nil)

	executor.Trigger(context.Background(), "defrag")

	require.Len(t, runs.updated, 1)
	final := runs.updated[0]
	assert.Equal(t, entity.SyncRunStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage.String, "no sync job found")
}
