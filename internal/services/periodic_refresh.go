package services

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// Refresher is refreshed on every tick
type Refresher interface {
	RefreshAll(ctx context.Context) int
}

// PeriodicRefreshService keeps monitored route advisories warm by refreshing
// them on a fixed interval, so requests are served from cache
type PeriodicRefreshService struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	running  bool
}

// NewPeriodicRefreshService creates a new periodic refresh service
func NewPeriodicRefreshService(refresher Refresher, interval time.Duration) *PeriodicRefreshService {
	return &PeriodicRefreshService{
		refresher: refresher,
		interval:  interval,
		timeout:   2 * time.Minute,
	}
}

// StartPeriodicRefresh refreshes immediately and then on every interval until
// Stop is called or ctx is cancelled
func (p *PeriodicRefreshService) StartPeriodicRefresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})

	logging.Infow(ctx, "Starting periodic advisory refresh", "interval", p.interval)

	go p.refreshLoop(ctx, p.stopChan, p.done)
	return nil
}

// Stop stops the refresh loop and waits for it to exit
func (p *PeriodicRefreshService) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	done := p.done
	p.mu.Unlock()

	<-done
}

// IsRunning returns whether periodic refresh is active
func (p *PeriodicRefreshService) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PeriodicRefreshService) refreshLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Infow(ctx, "Periodic refresh stopping due to context cancellation")
			return
		case <-stop:
			logging.Infow(ctx, "Periodic refresh stopping due to stop signal")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh runs one pass. A panic is logged and the loop keeps going.
func (p *PeriodicRefreshService) refresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			err, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "Periodic refresh: recovered from panic",
				"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
		}
	}()

	refreshCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if failed := p.refresher.RefreshAll(refreshCtx); failed > 0 {
		logging.Warnw(ctx, "Periodic refresh: some routes failed", "failed", failed)
	} else {
		logging.Debugw(ctx, "Periodic refresh: cache check completed")
	}
}
