package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-idea-tracker/internal/syncer/repository"
	"golang-idea-tracker/pkg/common"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/telegram"
	"golang-idea-tracker/pkg/utils"
)

// SummarySyncResult records the outcome of one portfolio summary run.
type SummarySyncResult struct {
	Positions int `json:"positions"`
	Messages  int `json:"messages"`
}

// NewPortfolioSummaryJob creates the job that sends the post-close portfolio
// summary over Telegram. It reads the snapshot fields the snapshot sync wrote,
// so schedules should run it after that job.
func NewPortfolioSummaryJob(
	stockPositionRepo repository.StockPositionRepository,
	telegramNotifier telegram.Notifier,
	log *logger.Logger,
) SyncJob {
	return &portfolioSummaryJob{
		stockPositionRepo: stockPositionRepo,
		telegramNotifier:  telegramNotifier,
		logger:            log,
	}
}

type portfolioSummaryJob struct {
	stockPositionRepo repository.StockPositionRepository
	telegramNotifier  telegram.Notifier
	logger            *logger.Logger
}

// GetKind returns the sync kind this job handles.
func (j *portfolioSummaryJob) GetKind() string {
	return common.SyncKindSummary
}

// Execute sends the current open positions as a Telegram summary.
func (j *portfolioSummaryJob) Execute(ctx context.Context) (string, error) {
	positions, err := j.stockPositionRepo.FindOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load open positions: %w", err)
	}

	messages := telegram.FormatPortfolioSummaryMessage(positions, utils.TimeNowKST())
	for _, message := range messages {
		if err := j.telegramNotifier.SendMessage(message); err != nil {
			return "", fmt.Errorf("failed to send portfolio summary: %w", err)
		}
	}

	j.logger.Info("Sent portfolio summary",
		logger.IntField("positions", len(positions)), logger.IntField("messages", len(messages)))

	resultJSON, err := json.Marshal(SummarySyncResult{
		Positions: len(positions),
		Messages:  len(messages),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	return string(resultJSON), nil
}
