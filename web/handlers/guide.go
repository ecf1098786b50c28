package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "local-guide/errors"
	"local-guide/guide"
	"local-guide/knowledge"
	"local-guide/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxDocumentBytes caps the size of a document posted to the reload endpoint.
const MaxDocumentBytes = 1 << 20

// Guide is the part of the guide service the HTTP layer needs.
type Guide interface {
	Answer(req guide.Request) (guide.Response, error)
	Reload(text string) error
	ReloadFile(ctx context.Context, path string) error
	Status() guide.Status
	Ready() bool
	Item(id int) (knowledge.ContextItem, error)
	Items(category string) ([]knowledge.ContextItem, error)
}

type GuideHandler struct {
	guide        Guide
	documentPath string
	logger       *zap.Logger
}

// AnswerRequest is the body of POST /api/answer.
type AnswerRequest struct {
	Query     string `json:"query" binding:"required"`
	Timestamp string `json:"timestamp,omitempty"`
	Location  string `json:"location,omitempty"`
}

func NewGuideHandler(g Guide, documentPath string, logger *zap.Logger) *GuideHandler {
	return &GuideHandler{guide: g, documentPath: documentPath, logger: logger}
}

// Answer handles POST /api/answer.
func (h *GuideHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "request body must be JSON with a non-empty \"query\"")
		return
	}

	resp, err := h.guide.Answer(guide.Request{
		RequestID: c.GetString(middleware.RequestIDKey),
		Query:     req.Query,
		Timestamp: req.Timestamp,
		Location:  req.Location,
	})
	if err != nil {
		respondWithAppError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reload handles POST /api/reload. A non-empty body is taken as the new
// document; an empty body rereads the configured document path.
func (h *GuideHandler) Reload(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxDocumentBytes+1))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, err, "could not read request body", h.logger)
		return
	}
	if len(body) > MaxDocumentBytes {
		respondWithClientError(c, http.StatusRequestEntityTooLarge, "document is too large")
		return
	}

	if strings.TrimSpace(string(body)) == "" {
		if h.documentPath == "" {
			respondWithClientError(c, http.StatusBadRequest, "no document in body and no document path configured")
			return
		}
		err = h.guide.ReloadFile(c.Request.Context(), h.documentPath)
	} else {
		err = h.guide.Reload(string(body))
	}
	if err != nil {
		if apperrors.IsParseError(err) {
			pe, _ := apperrors.AsParseError(err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"section":    pe.Section,
				"request_id": c.GetString(middleware.RequestIDKey),
			})
			return
		}
		respondWithAppError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, h.guide.Status())
}

// Status handles GET /api/status.
func (h *GuideHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.guide.Status())
}

// Item handles GET /api/items/:id.
func (h *GuideHandler) Item(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "item id must be an integer")
		return
	}
	item, err := h.guide.Item(id)
	if err != nil {
		respondWithAppError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Items handles GET /api/items, optionally filtered by ?category=.
func (h *GuideHandler) Items(c *gin.Context) {
	items, err := h.guide.Items(c.Query("category"))
	if err != nil {
		respondWithAppError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Health handles GET /healthz.
func (h *GuideHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz; it fails until a knowledge base is loaded.
func (h *GuideHandler) Ready(c *gin.Context) {
	if !h.guide.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": apperrors.ErrNoKnowledgeBase.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
