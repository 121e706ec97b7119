package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	xhttp "TradeGuard/pkg/http"
	pkgkafka "TradeGuard/pkg/kafka"
	"TradeGuard/pkg/logger"
)

// Evaluator scores an order.
type Evaluator interface {
	Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluationResult, error)
}

// EvaluationIntakeHandler consumes evaluation requests from Kafka. Results
// leave through the orchestrator's publisher, so a handled message needs no
// reply.
type EvaluationIntakeHandler struct {
	topic   string
	eval    Evaluator
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewEvaluationIntakeHandler(topic string, eval Evaluator, metrics domrepo.Metrics, log *logger.Logger) *EvaluationIntakeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &EvaluationIntakeHandler{topic: topic, eval: eval, metrics: metrics, log: log}
}

func (h *EvaluationIntakeHandler) Topic() string { return h.topic }

// Handle decodes and validates one request. Malformed input is permanent so
// the consumer sends it straight to the DLQ instead of retrying.
func (h *EvaluationIntakeHandler) Handle(ctx context.Context, b []byte) error {
	var req models.EvaluateRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.rejected("decode")
		return pkgkafka.Permanent(fmt.Errorf("decode evaluation request: %w", err))
	}
	if verr := xhttp.ValidateStruct(ctx, &req); verr != nil {
		h.rejected("validate")
		return pkgkafka.Permanent(fmt.Errorf("%w: %v", ErrInvalidRequest, verr))
	}

	start := time.Now()
	res, err := h.eval.Evaluate(ctx, req)
	if errors.Is(err, ErrInvalidRequest) {
		h.rejected("validate")
		return pkgkafka.Permanent(err)
	}
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", req.Symbol, err)
	}
	if h.metrics != nil {
		h.metrics.RecordLatency("intake", time.Since(start).Seconds())
	}

	h.log.Debug("evaluation handled",
		logger.String("trace_id", pkgkafka.TraceID(ctx)),
		logger.String("symbol", res.Order.Symbol),
		logger.String("verdict", string(res.Behavioral.Verdict)),
		logger.Int("source_errors", len(res.Errors)),
	)
	return nil
}

func (h *EvaluationIntakeHandler) rejected(stage string) {
	if h.metrics != nil {
		h.metrics.RecordSourceError("intake_" + stage)
	}
}

var _ pkgkafka.MessageHandler = (*EvaluationIntakeHandler)(nil)
