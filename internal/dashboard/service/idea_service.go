package service

import (
	"context"
	"errors"
	"fmt"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/repository"
	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/valuation"
	"golang-idea-tracker/pkg/logger"
	"golang-idea-tracker/pkg/utils"
)

// ErrInvalidRequest marks failures caused by the request itself, as opposed
// to infrastructure errors.
var ErrInvalidRequest = errors.New("invalid request")

var validIdeaStatuses = []string{
	entity.IdeaStatusActive,
	entity.IdeaStatusExited,
	entity.IdeaStatusWatching,
}

// StockCodeWatcher receives the distinct open stock codes whenever a position
// change may have altered the tracked set.
type StockCodeWatcher interface {
	UpdateStockCodes(stockCodes []string)
}

// IdeaService defines the interface for managing investment ideas and the
// stock positions attached to them.
type IdeaService interface {
	CreateIdea(ctx context.Context, req *dto.CreateIdeaRequest) (*dto.IdeaResponse, error)
	GetIdeaByID(ctx context.Context, id uint) (*dto.IdeaResponse, error)
	GetAllIdeas(ctx context.Context) ([]*dto.IdeaResponse, error)
	UpdateIdea(ctx context.Context, id uint, req *dto.UpdateIdeaRequest) (*dto.IdeaResponse, error)
	DeleteIdea(ctx context.Context, id uint) error
	AddPosition(ctx context.Context, ideaID uint, req *dto.CreatePositionRequest) (*dto.PositionResponse, error)
	UpdatePosition(ctx context.Context, id uint, req *dto.UpdatePositionRequest) (*dto.PositionResponse, error)
	ClosePosition(ctx context.Context, id uint, req *dto.ClosePositionRequest) (*dto.PositionResponse, error)
}

// NewIdeaService creates a new idea service.
func NewIdeaService(
	ideaRepo repository.IdeaRepository,
	positionRepo repository.StockPositionRepository,
	prices *PriceOverlay,
	watcher StockCodeWatcher,
	log *logger.Logger,
) IdeaService {
	return &ideaService{
		ideaRepo:     ideaRepo,
		positionRepo: positionRepo,
		prices:       prices,
		watcher:      watcher,
		logger:       log,
	}
}

type ideaService struct {
	ideaRepo     repository.IdeaRepository
	positionRepo repository.StockPositionRepository
	prices       *PriceOverlay
	watcher      StockCodeWatcher
	logger       *logger.Logger
}

// CreateIdea handles the business logic for recording a new idea.
func (s *ideaService) CreateIdea(ctx context.Context, req *dto.CreateIdeaRequest) (*dto.IdeaResponse, error) {
	status := req.Status
	if status == "" {
		status = entity.IdeaStatusActive
	}
	if !utils.ContainsString(validIdeaStatuses, status) {
		return nil, fmt.Errorf("%w: invalid idea status %q", ErrInvalidRequest, status)
	}

	idea := &entity.Idea{
		Title:   req.Title,
		Thesis:  req.Thesis,
		Status:  status,
		Tickers: req.Tickers,
		Tags:    req.Tags,
	}

	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		s.logger.Error("Failed to create idea", logger.ErrorField(err))
		return nil, err
	}

	s.logger.Info("Idea created", logger.Field("idea_id", idea.ID), logger.StringField("title", idea.Title))
	return mapToIdeaResponse(idea, s.prices), nil
}

// GetIdeaByID retrieves an idea with its positions.
func (s *ideaService) GetIdeaByID(ctx context.Context, id uint) (*dto.IdeaResponse, error) {
	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToIdeaResponse(idea, s.prices), nil
}

// GetAllIdeas retrieves every idea with its positions.
func (s *ideaService) GetAllIdeas(ctx context.Context) ([]*dto.IdeaResponse, error) {
	ideas, err := s.ideaRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var responses []*dto.IdeaResponse
	for i := range ideas {
		responses = append(responses, mapToIdeaResponse(&ideas[i], s.prices))
	}
	return responses, nil
}

// UpdateIdea handles the business logic for updating an existing idea.
func (s *ideaService) UpdateIdea(ctx context.Context, id uint, req *dto.UpdateIdeaRequest) (*dto.IdeaResponse, error) {
	idea, err := s.ideaRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find idea for update", logger.ErrorField(err), logger.Field("idea_id", id))
		return nil, err
	}

	if req.Status != "" && !utils.ContainsString(validIdeaStatuses, req.Status) {
		return nil, fmt.Errorf("%w: invalid idea status %q", ErrInvalidRequest, req.Status)
	}

	idea.Title = req.Title
	idea.Thesis = req.Thesis
	if req.Status != "" {
		idea.Status = req.Status
	}
	idea.Tickers = req.Tickers
	idea.Tags = req.Tags

	if err := s.ideaRepo.Update(ctx, idea); err != nil {
		s.logger.Error("Failed to update idea", logger.ErrorField(err), logger.Field("idea_id", id))
		return nil, err
	}

	return mapToIdeaResponse(idea, s.prices), nil
}

// DeleteIdea removes an idea together with its positions.
func (s *ideaService) DeleteIdea(ctx context.Context, id uint) error {
	if err := s.ideaRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete idea", logger.ErrorField(err), logger.Field("idea_id", id))
		return err
	}

	s.logger.Info("Idea deleted", logger.Field("idea_id", id))
	s.refreshTrackedCodes(ctx)
	return nil
}

// AddPosition attaches a new open position to an idea.
func (s *ideaService) AddPosition(ctx context.Context, ideaID uint, req *dto.CreatePositionRequest) (*dto.PositionResponse, error) {
	if req.StockCode == "" {
		return nil, fmt.Errorf("%w: stock code is required", ErrInvalidRequest)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	if _, err := s.ideaRepo.FindByID(ctx, ideaID); err != nil {
		return nil, err
	}

	buyDate := req.BuyDate
	if buyDate.IsZero() {
		buyDate = utils.TimeNowKST()
	}

	position := &entity.StockPosition{
		IdeaID:     ideaID,
		StockCode:  req.StockCode,
		EntryPrice: req.EntryPrice,
		Quantity:   req.Quantity,
		IsOpen:     true,
		BuyDate:    buyDate,
	}

	if err := s.positionRepo.Create(ctx, position); err != nil {
		s.logger.Error("Failed to create stock position",
			logger.ErrorField(err),
			logger.Field("idea_id", ideaID),
			logger.StringField("stock_code", req.StockCode))
		return nil, err
	}

	s.logger.Info("Stock position opened",
		logger.Field("position_id", position.ID),
		logger.StringField("stock_code", position.StockCode))
	s.refreshTrackedCodes(ctx)

	resp := mapToPositionResponse(position, s.prices)
	return &resp, nil
}

// UpdatePosition adjusts the entry price or quantity of a position.
func (s *ideaService) UpdatePosition(ctx context.Context, id uint, req *dto.UpdatePositionRequest) (*dto.PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.EntryPrice > 0 {
		position.EntryPrice = req.EntryPrice
	}
	if req.Quantity > 0 {
		position.Quantity = req.Quantity
	}

	if err := s.positionRepo.Update(ctx, position); err != nil {
		s.logger.Error("Failed to update stock position", logger.ErrorField(err), logger.Field("position_id", id))
		return nil, err
	}

	resp := mapToPositionResponse(position, s.prices)
	return &resp, nil
}

// ClosePosition marks a position as exited. Closed positions stop
// contributing to the aggregate valuation and to the polled code set.
func (s *ideaService) ClosePosition(ctx context.Context, id uint, req *dto.ClosePositionRequest) (*dto.PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen {
		return nil, fmt.Errorf("%w: stock position %d is already closed", ErrInvalidRequest, id)
	}

	exitDate := utils.TimeNowKST()
	if req.ExitDate != nil {
		exitDate = *req.ExitDate
	}

	if err := s.positionRepo.Close(ctx, id, req.ExitPrice, exitDate); err != nil {
		s.logger.Error("Failed to close stock position", logger.ErrorField(err), logger.Field("position_id", id))
		return nil, err
	}

	position, err = s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock position closed",
		logger.Field("position_id", id),
		logger.StringField("stock_code", position.StockCode))
	s.refreshTrackedCodes(ctx)

	resp := mapToPositionResponse(position, s.prices)
	return &resp, nil
}

// refreshTrackedCodes re-derives the open-position code set and hands it to
// the poller. Failures only log; the poller keeps its previous set.
func (s *ideaService) refreshTrackedCodes(ctx context.Context) {
	if s.watcher == nil {
		return
	}

	ideas, err := s.ideaRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh tracked stock codes", logger.ErrorField(err))
		return
	}
	s.watcher.UpdateStockCodes(valuation.OpenStockCodes(ideas))
}

// mapToIdeaResponse maps an entity.Idea to a dto.IdeaResponse.
func mapToIdeaResponse(idea *entity.Idea, view valuation.PriceView) *dto.IdeaResponse {
	positions := make([]dto.PositionResponse, 0, len(idea.Positions))
	for i := range idea.Positions {
		positions = append(positions, mapToPositionResponse(&idea.Positions[i], view))
	}

	return &dto.IdeaResponse{
		ID:        idea.ID,
		Title:     idea.Title,
		Thesis:    idea.Thesis,
		Status:    idea.Status,
		Tickers:   idea.Tickers,
		Tags:      idea.Tags,
		Positions: positions,
		CreatedAt: idea.CreatedAt,
		UpdatedAt: idea.UpdatedAt,
	}
}

// mapToPositionResponse maps a position together with its resolved valuation.
// Closed positions are valued from their persisted snapshot only, never from
// the live overlay.
func mapToPositionResponse(position *entity.StockPosition, view valuation.PriceView) dto.PositionResponse {
	if !position.IsOpen {
		view = nil
	}
	val := valuation.Valuate(*position, view)

	resp := dto.PositionResponse{
		ID:                  position.ID,
		IdeaID:              position.IdeaID,
		StockCode:           position.StockCode,
		EntryPrice:          position.EntryPrice,
		Quantity:            position.Quantity,
		IsOpen:              position.IsOpen,
		BuyDate:             position.BuyDate,
		ExitPrice:           position.ExitPrice,
		ExitDate:            position.ExitDate,
		ValuationBasis:      string(val.Basis),
		UnrealizedProfit:    val.Profit.InexactFloat64(),
		UnrealizedReturnPct: val.ReturnPct.InexactFloat64(),
		LastSyncedAt:        position.LastSyncedAt,
	}
	if val.Basis != valuation.BasisNone {
		resp.CurrentPrice = utils.ToPointer(val.Price)
	}
	return resp
}
