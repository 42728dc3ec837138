package usecase

import (
	"context"
	"encoding/json"
	"time"

	"skyline/internal/domain/models"
	domrepo "skyline/internal/domain/repository"
	pkgkafka "skyline/pkg/kafka"
)

// KafkaPlaysHandler consumes play messages from Kafka and writes them to
// storage.
type KafkaPlaysHandler struct {
	topic   string
	store   domrepo.PlayStore
	metrics domrepo.Metrics
}

func NewKafkaPlaysHandler(topic string, store domrepo.PlayStore, metrics domrepo.Metrics) *KafkaPlaysHandler {
	return &KafkaPlaysHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaPlaysHandler) Topic() string { return h.topic }

func (h *KafkaPlaysHandler) Handle(ctx context.Context, b []byte) error {
	var pl models.Play
	if err := json.Unmarshal(b, &pl); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if pl.Timestamp > 1e11 { // ms
		pl.Timestamp = pl.Timestamp / 1000
	}
	if pl.Timestamp > 0 {
		// E2E latency from event time to now (approx)
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(pl.Timestamp, 0)).Seconds())
	}

	start := time.Now()
	err := h.store.Store(ctx, &pl)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", pl.GID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPlaysHandler)(nil)
