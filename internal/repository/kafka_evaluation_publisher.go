package repository

import (
	"context"
	"fmt"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

// kafkaWriter is the subset of *kafka.Producer the publisher needs.
type kafkaWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEvaluationPublisher ships completed evaluations keyed by symbol so
// one symbol's evaluations stay ordered on a partition.
type KafkaEvaluationPublisher struct {
	w     kafkaWriter
	topic string
}

func NewKafkaEvaluationPublisher(w kafkaWriter, topic string) *KafkaEvaluationPublisher {
	return &KafkaEvaluationPublisher{w: w, topic: topic}
}

func (p *KafkaEvaluationPublisher) Publish(ctx context.Context, res *models.EvaluationResult) error {
	if res == nil {
		return nil
	}
	key := []byte(res.Order.Exchange + ":" + res.Order.Symbol)
	if err := p.w.Publish(ctx, p.topic, key, res); err != nil {
		return fmt.Errorf("publish evaluation: %w", err)
	}
	return nil
}

func (p *KafkaEvaluationPublisher) Close() error { return p.w.Close() }

var _ domrepo.EvaluationPublisher = (*KafkaEvaluationPublisher)(nil)
