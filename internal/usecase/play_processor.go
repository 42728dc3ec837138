package usecase

import (
	"context"
	"fmt"
	"time"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
)

// PlayProcessor routes incoming plays to the configured backend.
type PlayProcessor struct {
	pub     drepo.Publisher
	store   drepo.PlayStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewPlayProcessor creates a new PlayProcessor instance.
func NewPlayProcessor(
	pub drepo.Publisher,
	store drepo.PlayStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *PlayProcessor {
	return &PlayProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single play to the configured backend.
func (p *PlayProcessor) Process(ctx context.Context, pl *models.Play) error {
	if pl == nil {
		return fmt.Errorf("play is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, pl)
	case "clickhouse":
		err = p.store.Store(ctx, pl)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process play: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, pl.GID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple plays in a batch.
func (p *PlayProcessor) ProcessBatch(ctx context.Context, plays []*models.Play) error {
	if len(plays) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, plays)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, plays)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, pl := range plays {
		p.metrics.RecordMessageSent(p.backend, pl.GID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *PlayProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
