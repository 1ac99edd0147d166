package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"go.uber.org/zap"
)

// Refresher is anything that can pull fresh state from the backend
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller refreshes a Refresher on a fixed interval while started
type Poller struct {
	target   Refresher
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller. Each refresh is bounded by interval.
func NewPoller(target Refresher, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		target:   target,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}
}

// Start begins polling; it is a no-op when already running or when interval is not positive
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(ctx, done)
}

// Stop halts polling and waits for an in-flight refresh to return
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.target.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrSynchronizerInactive):
	default:
		p.logger.Debug("background refresh failed", zap.Error(err))
	}
}
