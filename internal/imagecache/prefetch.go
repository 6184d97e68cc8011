package imagecache

import (
	"context"
	"errors"
	"time"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/go-co-op/gocron"
)

// Prefetcher refreshes every chart on a fixed interval so page loads rarely
// wait for the upstream.
type Prefetcher struct {
	scheduler *gocron.Scheduler
	cache     *Cache
	interval  time.Duration
	timeout   time.Duration
}

// NewPrefetcher creates a prefetcher. timeout bounds one whole run.
func NewPrefetcher(cache *Cache, interval, timeout time.Duration) *Prefetcher {
	return &Prefetcher{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the job and starts the scheduler. The first run happens
// immediately. Cancelling ctx stops the scheduler.
func (p *Prefetcher) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.New("prefetch interval must be positive")
	}

	_, err := p.scheduler.Every(p.interval).SingletonMode().Do(func() {
		runCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		p.RunOnce(runCtx)
	})
	if err != nil {
		return err
	}

	p.scheduler.StartAsync()
	logger.WithComponent("prefetch").Infof("prefetching %d charts every %v", len(p.cache.order), p.interval)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// RunOnce refreshes every chart that is not fresh and returns how many failed.
func (p *Prefetcher) RunOnce(ctx context.Context) int {
	failed := 0
	for _, key := range p.cache.Keys() {
		if ctx.Err() != nil {
			return failed
		}
		if _, err := p.cache.Get(ctx, key); err != nil {
			failed++
			logger.WithComponent("prefetch").Warnf("prefetch %s: %v", key, err)
		}
	}
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (p *Prefetcher) Stop() {
	if p.scheduler != nil && p.scheduler.IsRunning() {
		p.scheduler.Stop()
	}
}
