package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang-idea-tracker/internal/dashboard/dto"
	"golang-idea-tracker/internal/dashboard/service"
	"golang-idea-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubIdeaService struct {
	idea     *dto.IdeaResponse
	ideas    []*dto.IdeaResponse
	position *dto.PositionResponse
	err      error

	gotIdeaID     uint
	gotPositionID uint
	deletedID     uint
}

func (s *stubIdeaService) CreateIdea(_ context.Context, _ *dto.CreateIdeaRequest) (*dto.IdeaResponse, error) {
	return s.idea, s.err
}

func (s *stubIdeaService) GetIdeaByID(_ context.Context, id uint) (*dto.IdeaResponse, error) {
	s.gotIdeaID = id
	return s.idea, s.err
}

func (s *stubIdeaService) GetAllIdeas(_ context.Context) ([]*dto.IdeaResponse, error) {
	return s.ideas, s.err
}

func (s *stubIdeaService) UpdateIdea(_ context.Context, id uint, _ *dto.UpdateIdeaRequest) (*dto.IdeaResponse, error) {
	s.gotIdeaID = id
	return s.idea, s.err
}

func (s *stubIdeaService) DeleteIdea(_ context.Context, id uint) error {
	s.deletedID = id
	return s.err
}

func (s *stubIdeaService) AddPosition(_ context.Context, ideaID uint, _ *dto.CreatePositionRequest) (*dto.PositionResponse, error) {
	s.gotIdeaID = ideaID
	return s.position, s.err
}

func (s *stubIdeaService) UpdatePosition(_ context.Context, id uint, _ *dto.UpdatePositionRequest) (*dto.PositionResponse, error) {
	s.gotPositionID = id
	return s.position, s.err
}

func (s *stubIdeaService) ClosePosition(_ context.Context, id uint, _ *dto.ClosePositionRequest) (*dto.PositionResponse, error) {
	s.gotPositionID = id
	return s.position, s.err
}

func newHandlerTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func newEchoContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateIdeaHandler(t *testing.T) {
	stub := &stubIdeaService{idea: &dto.IdeaResponse{ID: 1, Title: "Memory upcycle", Status: "active"}}
	h := NewIdeaHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodPost, "/api/v1/ideas", `{"title":"Memory upcycle"}`)
	require.NoError(t, h.CreateIdea(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got dto.IdeaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Memory upcycle", got.Title)
}

func TestCreateIdeaHandlerRejectsInvalidStatus(t *testing.T) {
	stub := &stubIdeaService{err: fmt.Errorf("%w: invalid idea status %q", service.ErrInvalidRequest, "parked")}
	h := NewIdeaHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodPost, "/api/v1/ideas", `{"title":"x","status":"parked"}`)
	require.NoError(t, h.CreateIdea(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetIdeaByIDHandler(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		h := NewIdeaHandler(&stubIdeaService{}, newHandlerTestLogger(t))

		c, rec := newEchoContext(http.MethodGet, "/api/v1/ideas/abc", "")
		c.SetParamNames("id")
		c.SetParamValues("abc")
		require.NoError(t, h.GetIdeaByID(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h := NewIdeaHandler(&stubIdeaService{err: gorm.ErrRecordNotFound}, newHandlerTestLogger(t))

		c, rec := newEchoContext(http.MethodGet, "/api/v1/ideas/42", "")
		c.SetParamNames("id")
		c.SetParamValues("42")
		require.NoError(t, h.GetIdeaByID(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("found", func(t *testing.T) {
		stub := &stubIdeaService{idea: &dto.IdeaResponse{ID: 3, Title: "Found"}}
		h := NewIdeaHandler(stub, newHandlerTestLogger(t))

		c, rec := newEchoContext(http.MethodGet, "/api/v1/ideas/3", "")
		c.SetParamNames("id")
		c.SetParamValues("3")
		require.NoError(t, h.GetIdeaByID(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint(3), stub.gotIdeaID)
	})
}

func TestDeleteIdeaHandler(t *testing.T) {
	stub := &stubIdeaService{}
	h := NewIdeaHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodDelete, "/api/v1/ideas/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.DeleteIdea(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(7), stub.deletedID)
}

func TestAddPositionHandler(t *testing.T) {
	stub := &stubIdeaService{position: &dto.PositionResponse{ID: 1, StockCode: "005930", IsOpen: true}}
	h := NewIdeaHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodPost, "/api/v1/ideas/2/positions",
		`{"stock_code":"005930","entry_price":70000,"quantity":10}`)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.AddPosition(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(2), stub.gotIdeaID)

	var got dto.PositionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "005930", got.StockCode)
}

func TestClosePositionHandlerAlreadyClosed(t *testing.T) {
	stub := &stubIdeaService{err: fmt.Errorf("%w: stock position 5 is already closed", service.ErrInvalidRequest)}
	h := NewIdeaHandler(stub, newHandlerTestLogger(t))

	c, rec := newEchoContext(http.MethodPost, "/api/v1/positions/5/close", `{"exit_price":73000}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.ClosePosition(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uint(5), stub.gotPositionID)
}
