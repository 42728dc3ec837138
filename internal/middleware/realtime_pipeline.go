package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skyline/internal/domain/models"
	domrepo "skyline/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, p *models.Play) error
}

// FeedPipeline sits between the live play feed and the storage backend.
// It validates, throttles per game, and buffers when downstream is unavailable.
type FeedPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Play
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-gid last accepted time
}

type PipelineOption func(*FeedPipeline)

// WithMaxRPS sets the max accepted plays per second per game.
func WithMaxRPS(n int) PipelineOption {
	return func(p *FeedPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *FeedPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewFeedPipeline creates a new pipeline.
func NewFeedPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *FeedPipeline {
	p := &FeedPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   10,
		bufSize:  1000,
		bufCh:    make(chan *models.Play, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Play, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered plays.
func (p *FeedPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case pl := <-p.bufCh:
				if pl == nil {
					continue
				}
				if err := p.proc.Process(ctx, pl); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- pl:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *FeedPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a play downstream, buffering on
// errors.
func (p *FeedPipeline) Process(ctx context.Context, pl *models.Play) error {
	start := time.Now()
	if err := validatePlay(pl); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(pl.GID, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, pl); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- pl:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validatePlay(pl *models.Play) error {
	if pl == nil {
		return fmt.Errorf("play nil")
	}
	if pl.GID == "" {
		return fmt.Errorf("gid empty")
	}
	if pl.Inning < 1 {
		return fmt.Errorf("inning invalid")
	}
	if pl.TopBot != 0 && pl.TopBot != 1 {
		return fmt.Errorf("top_bot invalid")
	}
	if pl.Nump < 1 {
		return fmt.Errorf("nump invalid")
	}
	return nil
}

func (p *FeedPipeline) allow(gid string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxRPS <= 0 {
		return true
	}
	last := p.lastSeen[gid]
	if last.IsZero() {
		p.lastSeen[gid] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[gid] = now
	return true
}
