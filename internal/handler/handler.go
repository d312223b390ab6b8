package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmorgan81/text2image/internal/generate"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/gin-gonic/gin"
)

type Generator interface {
	Generate(ctx context.Context, req generate.Request) (generate.Result, error)
	Loaded() bool
}

type FeedGenerator interface {
	Generate(ctx context.Context) ([]byte, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	generator Generator
	feed      FeedGenerator
}

// NewHandler wires the HTTP endpoints. feed may be nil when archiving is off.
func NewHandler(generator Generator, feed FeedGenerator) *Handler {
	return &Handler{generator, feed}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/text2image", h.Text2Image)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/feed.xml", h.Feed)
}

func (h *Handler) Text2Image(c *gin.Context) {
	ctx := c.Request.Context()
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler")

	var req generate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("rejecting malformed body", "error", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be JSON with a string field prompt"})
		return
	}

	res, err := h.generator.Generate(ctx, req)
	if err != nil {
		status := StatusFor(err)
		log.Error("text2image failed", "status", status, "error", err)
		c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) Readyz(c *gin.Context) {
	if !h.generator.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "model not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) Feed(c *gin.Context) {
	if h.feed == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "archive is disabled"})
		return
	}
	rss, err := h.feed.Generate(c.Request.Context())
	if err != nil {
		log.FromContextOrDiscard(c.Request.Context()).Error("feed failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "feed unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", rss)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, generate.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, generate.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, generate.ErrTranslation):
		return http.StatusBadGateway
	case errors.Is(err, generate.ErrGeneration):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
