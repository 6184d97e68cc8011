// Package imagecache keeps local copies of a fixed set of remote weather
// charts and refreshes each one independently once it is older than maxAge.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_wind/internal/logger"
)

var (
	ErrUnknownKey  = errors.New("unknown image key")
	ErrFetchFailed = errors.New("image fetch failed")
)

const dwdCharts = "https://www.dwd.de/DWD/wetter/wv_spez/hobbymet/wetterkarten/"

// Chart is one remote image the cache knows about.
type Chart struct {
	Key   string
	Title string
	URL   string
}

// FileName is the deterministic name of the chart in the cache directory.
func (c Chart) FileName() string {
	return c.Key + ".png"
}

// Charts is the fixed set of DWD hobby meteorologist charts shown on the dashboard.
var Charts = []Chart{
	{Key: "analysis", Title: "Surface pressure analysis, Western Europe", URL: dwdCharts + "bwk_bodendruck_weu_ana.png"},
	{Key: "analysis_na", Title: "Surface pressure analysis, North Atlantic", URL: dwdCharts + "bwk_bodendruck_na_ana.png"},
	{Key: "forecast_24h", Title: "Surface pressure forecast +24h", URL: dwdCharts + "ico_tkboden_na_024.png"},
	{Key: "forecast_48h", Title: "Surface pressure forecast +48h", URL: dwdCharts + "ico_tkboden_na_048.png"},
}

// Source is the read side of the cache used by HTTP handlers.
type Source interface {
	Get(ctx context.Context, key string) (string, error)
	Charts() []Chart
}

// Fetcher downloads one remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithCharts replaces the default chart set.
func WithCharts(charts []Chart) Option {
	return func(c *Cache) { c.order = charts }
}

// Cache serves chart files from disk. Each key has its own lock, created once
// in New, so refreshes of the same chart are serialized while different
// charts and fresh reads never wait on each other.
type Cache struct {
	dir     string
	maxAge  time.Duration
	fetcher Fetcher
	now     func() time.Time

	order  []Chart
	charts map[string]Chart
	locks  map[string]*sync.Mutex
}

// New creates the cache directory if needed and builds the lock table.
func New(dir string, maxAge time.Duration, fetcher Fetcher, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("image cache dir is required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("invalid image max age: %v", maxAge)
	}
	if fetcher == nil {
		return nil, errors.New("image fetcher is required")
	}

	c := &Cache{dir: dir, maxAge: maxAge, fetcher: fetcher, now: time.Now, order: Charts}
	for _, opt := range opts {
		opt(c)
	}

	c.charts = make(map[string]Chart, len(c.order))
	c.locks = make(map[string]*sync.Mutex, len(c.order))
	for _, ch := range c.order {
		c.charts[ch.Key] = ch
		c.locks[ch.Key] = &sync.Mutex{}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image cache dir: %w", err)
	}
	return c, nil
}

// Charts returns the known charts in display order.
func (c *Cache) Charts() []Chart {
	out := make([]Chart, len(c.order))
	copy(out, c.order)
	return out
}

// Keys returns the known chart keys in display order.
func (c *Cache) Keys() []string {
	keys := make([]string, len(c.order))
	for i, ch := range c.order {
		keys[i] = ch.Key
	}
	return keys
}

// Get returns the path of a fresh local copy of the chart, refreshing it
// first when it is missing or older than maxAge. If the refresh fails and an
// older copy exists, that copy is returned.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	chart, ok := c.charts[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	path := filepath.Join(c.dir, chart.FileName())

	if c.isFresh(path) {
		return path, nil
	}

	lock := c.locks[key]
	lock.Lock()
	defer lock.Unlock()

	// another caller may have refreshed while we waited
	if c.isFresh(path) {
		return path, nil
	}

	log := logger.WithComponent("imagecache")
	data, err := c.fetcher.Fetch(ctx, chart.URL)
	if err == nil {
		err = writeAtomic(c.dir, chart.FileName(), path, data)
	}
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			log.Warnf("refresh of %s failed, serving stale copy: %v", key, err)
			return path, nil
		}
		log.Errorf("refresh of %s failed: %v", key, err)
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, key, err)
	}

	log.Debugf("refreshed %s (%d bytes)", key, len(data))
	return path, nil
}

func (c *Cache) isFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return c.now().Sub(info.ModTime()) < c.maxAge
}

func writeAtomic(dir, base, target string, payload []byte) error {
	tmpFile, err := os.CreateTemp(dir, base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", base, err)
	}
	return nil
}
