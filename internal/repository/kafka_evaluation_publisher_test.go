package repository

import (
	"context"
	"errors"
	"testing"

	"TradeGuard/internal/domain/models"
)

type recordingWriter struct {
	topic string
	key   string
	value interface{}
	err   error
}

func (w *recordingWriter) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	w.topic, w.key, w.value = topic, string(key), value
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaEvaluationPublisherKeysBySymbol(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaEvaluationPublisher(w, "risk.evaluations")
	res := &models.EvaluationResult{Order: models.Order{Symbol: "INFY", Exchange: "NSE"}}
	if err := p.Publish(context.Background(), res); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if w.topic != "risk.evaluations" || w.key != "NSE:INFY" || w.value != res {
		t.Fatalf("unexpected write: %+v", w)
	}
	if err := p.Publish(context.Background(), nil); err != nil {
		t.Fatalf("nil result should be ignored: %v", err)
	}
}

func TestKafkaEvaluationPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewKafkaEvaluationPublisher(&recordingWriter{err: boom}, "t")
	if err := p.Publish(context.Background(), &models.EvaluationResult{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
