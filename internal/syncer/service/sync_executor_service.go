package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/syncer/repository"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/telegram"
	"golang-idea-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

const (
	SUCCESS = "SUCCESS"
	FAILED  = "FAILED"
	SKIPPED = "SKIPPED"
)

// SyncJob is implemented by each sync kind the worker can execute. Execute
// returns a JSON result document persisted on the sync run.
type SyncJob interface {
	Execute(ctx context.Context) (string, error)
	GetKind() string
}

// SyncExecutorService manages the execution of sync runs.
type SyncExecutorService interface {
	ProcessSyncRequest(ctx context.Context)
	Trigger(ctx context.Context, kind string)
}

// NewSyncExecutorService creates a new SyncExecutorService.
func NewSyncExecutorService(
	redisClient *redis.Client,
	syncRunRepo repository.SyncRunRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
	jobs []SyncJob,
) SyncExecutorService {
	jobMap := make(map[string]SyncJob)
	for _, j := range jobs {
		jobMap[j.GetKind()] = j
	}

	return &syncExecutorService{
		redisClient: redisClient,
		syncRunRepo: syncRunRepo,
		notifier:    notifier,
		logger:      log,
		syncJobs:    jobMap,
	}
}

type syncExecutorService struct {
	redisClient *redis.Client
	syncRunRepo repository.SyncRunRepository
	notifier    telegram.Notifier
	logger      *logger.Logger
	syncJobs    map[string]SyncJob
}

// ProcessSyncRequest dequeues and executes a single on-demand sync request.
func (s *syncExecutorService) ProcessSyncRequest(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamSyncRequest, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
		NoAck:    true,
	}).Result()

	if err != nil {
		// Ignore context cancellation and timeout errors, as they are expected during shutdown or idle periods.
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]

	// The run data is expected to be a JSON string in the 'payload' field.
	runData, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var run entity.SyncRun
	if err := json.Unmarshal([]byte(runData), &run); err != nil {
		s.logger.Error("Failed to unmarshal sync run data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		// Acknowledge the message to prevent reprocessing of a malformed message.
		if err := s.redisClient.XAck(ctx, common.RedisStreamSyncRequest, common.RedisStreamGroup, message.ID).Err(); err != nil {
			s.logger.Error("Failed to acknowledge malformed message", logger.ErrorField(err), logger.Field("message_id", message.ID))
		}
		return
	}

	s.logger.Info("Processing sync request", logger.Field("run_id", run.ID), logger.StringField("kind", run.Kind))

	s.executeAndUpdate(ctx, &run)
}

// Trigger creates a sync run for the given kind and executes it immediately.
// The cron schedules go through here.
func (s *syncExecutorService) Trigger(ctx context.Context, kind string) {
	run := &entity.SyncRun{
		Kind:      kind,
		Status:    entity.SyncRunStatusRunning,
		StartedAt: utils.TimeNowKST(),
	}

	if err := s.syncRunRepo.Create(ctx, run); err != nil {
		s.logger.Error("Failed to create sync run", logger.ErrorField(err), logger.StringField("kind", kind))
		return
	}

	s.executeAndUpdate(ctx, run)
}

func (s *syncExecutorService) executeAndUpdate(ctx context.Context, run *entity.SyncRun) {
	job, ok := s.syncJobs[run.Kind]
	if !ok {
		err := fmt.Errorf("no sync job found for kind: %s", run.Kind)
		s.logger.Error("Sync run failed", logger.ErrorField(err), logger.Field("run_id", run.ID))
		run.Status = entity.SyncRunStatusFailed
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		if run.Status != entity.SyncRunStatusRunning {
			run.Status = entity.SyncRunStatusRunning
			if err := s.syncRunRepo.Update(ctx, run); err != nil {
				s.logger.Error("Failed to mark sync run running", logger.ErrorField(err), logger.Field("run_id", run.ID))
			}
		}

		output, err := job.Execute(ctx)
		if err != nil {
			s.logger.Error("Sync run failed", logger.ErrorField(err), logger.Field("run_id", run.ID), logger.StringField("kind", run.Kind))
			run.Status = entity.SyncRunStatusFailed
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
			s.notifyFailure(run.Kind, err)
		} else {
			s.logger.Info("Sync run executed successfully", logger.Field("run_id", run.ID), logger.StringField("kind", run.Kind))
			run.Status = entity.SyncRunStatusSuccess
		}
		if output != "" {
			run.Result = datatypes.JSON(output)
		}
	}

	run.CompletedAt.Time = utils.TimeNowKST()
	run.CompletedAt.Valid = true

	if err := s.syncRunRepo.Update(ctx, run); err != nil {
		s.logger.Error("Failed to update sync run", logger.ErrorField(err), logger.Field("run_id", run.ID))
	}
	s.logger.Info("Sync run completed", logger.Field("run_id", run.ID), logger.StringField("status", run.Status))
}

func (s *syncExecutorService) notifyFailure(kind string, err error) {
	if s.notifier == nil {
		return
	}
	message := telegram.FormatSyncErrorMessage(utils.TimeNowKST(), kind, err.Error())
	if errSend := s.notifier.SendMessage(message); errSend != nil {
		s.logger.Error("Failed to send sync failure alert", logger.ErrorField(errSend), logger.StringField("kind", kind))
	}
}
