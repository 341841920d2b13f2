package service

import (
	"context"
	"fmt"

	"golang-idea-tracker/internal/syncer/config"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SyncScheduler runs the recurring sync jobs on their configured cron specs.
type SyncScheduler interface {
	Start()
	Stop() context.Context
}

// NewSyncScheduler wires the configured cron expressions to the sync executor.
// Kinds with an empty spec are simply not scheduled.
func NewSyncScheduler(cfg *config.Config, executor SyncExecutorService, log *logger.Logger) (SyncScheduler, error) {
	s := &syncScheduler{
		cron:     cron.New(cron.WithLocation(utils.GetKSTTimeLocation())),
		executor: executor,
		logger:   log,
	}

	schedules := []struct {
		spec string
		kind string
	}{
		{cfg.Syncer.SnapshotCron, common.SyncKindSnapshot},
		{cfg.Syncer.DisclosureCron, common.SyncKindDisclosure},
		{cfg.Syncer.SummaryCron, common.SyncKindSummary},
	}

	for _, schedule := range schedules {
		if schedule.spec == "" {
			continue
		}
		kind := schedule.kind
		if _, err := s.cron.AddFunc(schedule.spec, func() {
			s.executor.Trigger(context.Background(), kind)
		}); err != nil {
			return nil, fmt.Errorf("invalid cron spec %q for %s: %w", schedule.spec, kind, err)
		}
		log.Info("Registered sync schedule",
			logger.StringField("kind", kind), logger.StringField("cron", schedule.spec))
	}

	return s, nil
}

type syncScheduler struct {
	cron     *cron.Cron
	executor SyncExecutorService
	logger   *logger.Logger
}

// Start begins dispatching scheduled sync runs.
func (s *syncScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Sync scheduler started")
}

// Stop stops the scheduler. The returned context is done once any running
// job finishes.
func (s *syncScheduler) Stop() context.Context {
	s.logger.Info("Sync scheduler stopping")
	return s.cron.Stop()
}
