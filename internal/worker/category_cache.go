package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"answer-pipeline/internal/domain"
)

const (
	refreshTimeout = 30 * time.Second
	initialBackoff = 1 * time.Second
	maxBackoff     = 5 * time.Minute
)

// CategoryCache keeps a warm snapshot of the registry's collection list so
// the stage-1 hot path never waits on the database. It refreshes on a ticker
// and backs off exponentially while the registry is unreachable.
type CategoryCache struct {
	registry domain.Registry
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
	backoff  time.Duration

	mu       sync.RWMutex
	snapshot []domain.Category
	loaded   bool
}

func NewCategoryCache(registry domain.Registry, interval time.Duration, logger *slog.Logger) *CategoryCache {
	return &CategoryCache{
		registry: registry,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Categories returns the cached snapshot, falling back to a direct registry
// read until the first refresh has landed.
func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	c.mu.RLock()
	if c.loaded {
		snapshot := c.snapshot
		c.mu.RUnlock()
		return snapshot, nil
	}
	c.mu.RUnlock()

	categories, err := c.registry.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.store(categories)
	return categories, nil
}

func (c *CategoryCache) Start() {
	c.logger.Info("Starting CategoryCache")
	go c.run()
}

func (c *CategoryCache) Stop() {
	c.logger.Info("Stopping CategoryCache")
	close(c.stopChan)
}

func (c *CategoryCache) run() {
	c.refresh()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.refresh()
			if c.backoff > 0 {
				ticker.Reset(c.backoff)
			} else {
				ticker.Reset(c.interval)
			}
		}
	}
}

func (c *CategoryCache) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	categories, err := c.registry.ListCategories(ctx)
	if err != nil {
		c.backoff = c.nextBackoff(c.backoff)
		c.logger.Warn("Category refresh failed, backing off",
			"backoff", c.backoff, "error", err)
		return
	}

	c.backoff = 0
	c.store(categories)
	c.logger.Info("Category snapshot refreshed", "count", len(categories))
}

func (c *CategoryCache) store(categories []domain.Category) {
	c.mu.Lock()
	c.snapshot = categories
	c.loaded = true
	c.mu.Unlock()
}

func (c *CategoryCache) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
