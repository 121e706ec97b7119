package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	models "TradeGuard/internal/domain/models"
	"TradeGuard/internal/service/cache"
	"TradeGuard/internal/service/metrics"
	"TradeGuard/internal/service/ratelimit"
	"TradeGuard/internal/services/agents"
	"TradeGuard/internal/usecase"
	xhttp "TradeGuard/pkg/http"
	xlogger "TradeGuard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StationsService serves station maps.
type StationsService interface {
	GetStations(ctx context.Context, req models.StationsRequest) (*agents.StationMap, error)
}

// HistoryService serves the evaluation audit trail.
type HistoryService interface {
	Recent(ctx context.Context, symbol string, limit int) (*usecase.EvaluationHistoryResult, error)
}

// RateLimit is a per-client token bucket. A zero capacity disables it.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// RiskHandlerDeps wires the risk endpoints. History and Cache may be nil.
type RiskHandlerDeps struct {
	Evaluator usecase.Evaluator
	Stations  StationsService
	History   HistoryService
	Cache     cache.BytesCache
	CacheTTL  time.Duration
	Limit     RateLimit
}

// RiskEchoHandler exposes the risk engine over HTTP.
type RiskEchoHandler struct {
	logger *xlogger.Logger
	d      RiskHandlerDeps
	rl     *ratelimit.Limiter
}

func NewRiskEchoHandler(logger *xlogger.Logger, d RiskHandlerDeps) *RiskEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 15 * time.Second
	}
	return &RiskEchoHandler{logger: logger, d: d, rl: ratelimit.New()}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/risk/evaluate", h.Evaluate, h.limit("evaluate"))
	g.GET("/stations", h.Stations, h.limit("stations"))
	g.GET("/evaluations", h.Evaluations, h.limit("evaluations"))
}

// Limiter exposes the rate limiter so the app can sweep idle clients.
func (h *RiskEchoHandler) Limiter() *ratelimit.Limiter { return h.rl }

func (h *RiskEchoHandler) limit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.d.Limit.Capacity <= 0 {
				return next(c)
			}
			if !h.rl.Allow(c.RealIP()+":"+endpoint, h.d.Limit.Capacity, h.d.Limit.RefillPerSec) {
				metrics.RateLimited.WithLabelValues(endpoint).Inc()
				h.logger.Warn("risk api rate limited",
					xlogger.String("endpoint", endpoint),
					xlogger.String("remote", c.RealIP()),
				)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
			}
			return next(c)
		}
	}
}

// Evaluate scores a proposed order.
func (h *RiskEchoHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	defer observe("evaluate", start)

	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("evaluate", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.d.Evaluator.Evaluate(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "evaluate", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Stations returns the support/resistance map for one timeframe.
func (h *RiskEchoHandler) Stations(c echo.Context) error {
	start := time.Now()
	defer observe("stations", start)

	req := &models.StationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("stations", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("stations:%s:%s:%s:%d:%g",
		strings.ToUpper(req.Exchange), strings.ToUpper(req.Symbol), req.TF, req.N, req.Price)
	var cached agents.StationMap
	ok, err := cache.GetJSON(h.d.Cache, key, &cached)
	if err != nil {
		h.logger.Warn("stations cache get failed", xlogger.String("key", key), xlogger.Error(err))
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("stations", "hit").Inc()
		return xhttp.SuccessResponse(c, &cached)
	}
	metrics.CacheLookups.WithLabelValues("stations", "miss").Inc()

	res, err := h.d.Stations.GetStations(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "stations", err)
	}
	if err := cache.SetJSON(h.d.Cache, key, res, h.d.CacheTTL); err != nil {
		h.logger.Warn("stations cache set failed", xlogger.String("key", key), xlogger.Error(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Evaluations lists recent audited evaluations for a symbol.
func (h *RiskEchoHandler) Evaluations(c echo.Context) error {
	start := time.Now()
	defer observe("evaluations", start)

	if h.d.History == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("evaluation history is not configured"))
	}
	req := &models.EvaluationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("evaluations", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.d.History.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "evaluations", err)
	}
	return xhttp.ListResponse(c, res.Records, int64(res.Count))
}

func (h *RiskEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	if errors.Is(err, usecase.ErrInvalidRequest) {
		metrics.APIErrors.WithLabelValues(endpoint, "invalid").Inc()
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	metrics.APIErrors.WithLabelValues(endpoint, "upstream").Inc()
	h.logger.Error("risk api error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.UpstreamError("upstream data unavailable").WithError(err))
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
