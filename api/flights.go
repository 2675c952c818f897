// Package api exposes flight search over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/analyzer"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/search"
	"github.com/Jonatas020918/myflyticketsearcher/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FlightService is the search behaviour the handlers depend on.
type FlightService interface {
	Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error)
	PriceTips(ctx context.Context, from, to string) (analyzer.Tips, error)
	RouteAnalysis(ctx context.Context, from, to string) (analyzer.Report, error)
	PriceHistory(ctx context.Context, id int64) ([]models.PriceHistoryEntry, error)
}

type FlightHandler struct {
	service FlightService
	logger  *slog.Logger
}

func NewFlightHandler(service FlightService, logger *slog.Logger) *FlightHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FlightHandler{service: service, logger: logger}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
	router.GET("/price-tips", h.priceTips)
	router.GET("/analysis", h.analysis)
	router.GET("/:id/price-history", h.priceHistory)
}

// NewRouter mounts the flight routes under /api/flights along with health
// and, when registry is set, Prometheus metrics.
func NewRouter(h *FlightHandler, registry *prometheus.Registry, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h.Register(router.Group("/api/flights"))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}
	return router
}

func (h *FlightHandler) search(c *gin.Context) {
	var req search.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid JSON data",
			"details": "The request body must be valid JSON",
		})
		return
	}

	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) priceTips(c *gin.Context) {
	from, to, ok := routeParams(c)
	if !ok {
		return
	}
	tips, err := h.service.PriceTips(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tips)
}

func (h *FlightHandler) analysis(c *gin.Context) {
	from, to, ok := routeParams(c)
	if !ok {
		return
	}
	report, err := h.service.RouteAnalysis(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *FlightHandler) priceHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flight id", "details": c.Param("id")})
		return
	}
	history, err := h.service.PriceHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": id, "price_history": history})
}

func routeParams(c *gin.Context) (string, string, bool) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing parameters",
			"details": `Both "from" and "to" parameters are required`,
		})
		return "", "", false
	}
	return from, to, true
}

func (h *FlightHandler) respondError(c *gin.Context, err error) {
	var verr *search.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": verr.Fields})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Flight not found", "details": err.Error()})
	default:
		h.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
