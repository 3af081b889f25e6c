package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed error details returned to clients
const (
	DetailItemExists    = "Item exists"
	DetailNotFound      = "Not found"
	DetailInternalError = "Internal server error"
)

// CreateItemRequest represents an item creation request.
// Pointers let validation tell a missing field from a zero value.
type CreateItemRequest struct {
	ID    *int64  `json:"id" binding:"required"`
	Title *string `json:"title" binding:"required"`
	Done  *bool   `json:"done"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.items.Health(c.Request.Context()))
}

// handleCreateItem handles item creation
func (s *Server) handleCreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("invalid create item request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}

	item := domain.Item{ID: *req.ID, Title: *req.Title}
	if req.Done != nil {
		item.Done = *req.Done
	}

	created, err := s.items.Create(c.Request.Context(), item)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// handleGetItem handles fetching a single item
func (s *Server) handleGetItem(c *gin.Context) {
	id, ok := s.itemID(c)
	if !ok {
		return
	}

	item, err := s.items.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// handleMarkDone handles marking an item as done
func (s *Server) handleMarkDone(c *gin.Context) {
	id, ok := s.itemID(c)
	if !ok {
		return
	}

	item, err := s.items.MarkDone(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// itemID parses the :id path parameter, answering 422 when it is not an integer
func (s *Server) itemID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Detail: fmt.Sprintf("invalid item id: %q", raw),
		})
		return 0, false
	}

	return id, true
}

// writeError maps registry errors to status codes
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Detail: DetailItemExists})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: DetailNotFound})
	default:
		s.logger.Error("item request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: DetailInternalError})
	}
}
