package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/service"
	"golang-idea-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// IdeaHandler handles HTTP requests for ideas and their positions.
type IdeaHandler struct {
	ideaService service.IdeaService
	logger      *logger.Logger
}

// NewIdeaHandler creates a new IdeaHandler.
func NewIdeaHandler(ideaService service.IdeaService, logger *logger.Logger) *IdeaHandler {
	return &IdeaHandler{ideaService: ideaService, logger: logger}
}

// RegisterRoutes registers the idea routes to the Echo group.
func (h *IdeaHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateIdea)
	g.GET("", h.GetAllIdeas)
	g.GET("/:id", h.GetIdeaByID)
	g.PUT("/:id", h.UpdateIdea)
	g.DELETE("/:id", h.DeleteIdea)
	g.POST("/:id/positions", h.AddPosition)
}

// RegisterPositionRoutes registers the position routes to the Echo group.
func (h *IdeaHandler) RegisterPositionRoutes(g *echo.Group) {
	g.PUT("/:id", h.UpdatePosition)
	g.POST("/:id/close", h.ClosePosition)
}

// CreateIdea godoc
// @Summary Create a new idea
// @Description Record a new investment idea
// @Tags ideas
// @Accept  json
// @Produce  json
// @Param   idea  body    dto.CreateIdeaRequest   true    "Idea to create"
// @Success 201 {object} dto.IdeaResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ideas [post]
func (h *IdeaHandler) CreateIdea(c echo.Context) error {
	var req dto.CreateIdeaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	idea, err := h.ideaService.CreateIdea(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, idea)
}

// GetAllIdeas godoc
// @Summary Get all ideas
// @Description Get every idea with its positions and their valuations
// @Tags ideas
// @Produce  json
// @Success 200 {array} dto.IdeaResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ideas [get]
func (h *IdeaHandler) GetAllIdeas(c echo.Context) error {
	ideas, err := h.ideaService.GetAllIdeas(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get all ideas", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get ideas"})
	}
	return c.JSON(http.StatusOK, ideas)
}

// GetIdeaByID godoc
// @Summary Get an idea by ID
// @Description Get a single idea by its ID
// @Tags ideas
// @Produce  json
// @Param   id  path    int true    "Idea ID"
// @Success 200 {object} dto.IdeaResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /ideas/{id} [get]
func (h *IdeaHandler) GetIdeaByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid idea ID"})
	}

	idea, err := h.ideaService.GetIdeaByID(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, idea)
}

// UpdateIdea godoc
// @Summary Update an existing idea
// @Description Update an existing idea with the given details
// @Tags ideas
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Idea ID"
// @Param   idea  body    dto.UpdateIdeaRequest   true    "Idea to update"
// @Success 200 {object} dto.IdeaResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /ideas/{id} [put]
func (h *IdeaHandler) UpdateIdea(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid idea ID"})
	}

	var req dto.UpdateIdeaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	idea, err := h.ideaService.UpdateIdea(c.Request().Context(), uint(id), &req)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, idea)
}

// DeleteIdea godoc
// @Summary Delete an idea
// @Description Delete an idea and its positions
// @Tags ideas
// @Produce  json
// @Param   id  path    int true    "Idea ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ideas/{id} [delete]
func (h *IdeaHandler) DeleteIdea(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid idea ID"})
	}

	if err := h.ideaService.DeleteIdea(c.Request().Context(), uint(id)); err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": "Failed to delete idea"})
	}

	return c.NoContent(http.StatusNoContent)
}

// AddPosition godoc
// @Summary Attach a position to an idea
// @Description Open a new stock position under an idea
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Idea ID"
// @Param   position  body    dto.CreatePositionRequest   true    "Position to open"
// @Success 201 {object} dto.PositionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /ideas/{id}/positions [post]
func (h *IdeaHandler) AddPosition(c echo.Context) error {
	ideaID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid idea ID"})
	}

	var req dto.CreatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	position, err := h.ideaService.AddPosition(c.Request().Context(), uint(ideaID), &req)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, position)
}

// UpdatePosition godoc
// @Summary Update a position
// @Description Adjust the entry price or quantity of a position
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Position ID"
// @Param   position  body    dto.UpdatePositionRequest   true    "Fields to update"
// @Success 200 {object} dto.PositionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{id} [put]
func (h *IdeaHandler) UpdatePosition(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	var req dto.UpdatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	position, err := h.ideaService.UpdatePosition(c.Request().Context(), uint(id), &req)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, position)
}

// ClosePosition godoc
// @Summary Close a position
// @Description Mark a position as exited at the given price
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Position ID"
// @Param   close  body    dto.ClosePositionRequest   true    "Exit details"
// @Success 200 {object} dto.PositionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{id}/close [post]
func (h *IdeaHandler) ClosePosition(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	var req dto.ClosePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	position, err := h.ideaService.ClosePosition(c.Request().Context(), uint(id), &req)
	if err != nil {
		return c.JSON(statusForError(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, position)
}

// statusForError maps service failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
