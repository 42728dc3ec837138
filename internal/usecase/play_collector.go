package usecase

import (
	"context"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	mid "skyline/internal/middleware"
)

// PlayCollector collects plays from the live feed and processes them.
type PlayCollector struct {
	stream  drepo.FeedStream
	proc    *PlayProcessor
	metrics drepo.Metrics
	pipe    *mid.FeedPipeline
}

// NewPlayCollector creates a new PlayCollector instance.
func NewPlayCollector(stream drepo.FeedStream, proc *PlayProcessor, metrics drepo.Metrics, pipe *mid.FeedPipeline) *PlayCollector {
	return &PlayCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the feed stream is connected.
func (c *PlayCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PlayCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	plCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, plCh, errCh)
	return nil
}

// consume drains the feed channels. The stream's read loop closes both
// channels when the connection drops, so an error or a closed errCh triggers a
// reconnect and a fresh Read to pick up new channels.
func (c *PlayCollector) consume(ctx context.Context, plCh <-chan *models.Play, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("feed")
			}
			if !c.reconnect(ctx) {
				return
			}
			plCh, errCh = c.stream.Read(ctx)
		case pl, ok := <-plCh:
			if !ok {
				// wait for errCh to close before reconnecting
				plCh = nil
				continue
			}
			if pl == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, pl)
			} else {
				_ = c.proc.Process(ctx, pl)
			}
		}
	}
}

// reconnect retries until the stream is back or ctx ends. The stream paces
// attempts with its own reconnect delay.
func (c *PlayCollector) reconnect(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("feed")
			continue
		}
		return true
	}
}

func (c *PlayCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying PlayProcessor for lifecycle management.
func (c *PlayCollector) Processor() *PlayProcessor { return c.proc }

// Shutdown stops the pipeline and closes the feed.
func (c *PlayCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
