package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfapi/shelf/internal/metrics"
)

// ExpiredTokenStore deletes access tokens whose expiry has passed.
type ExpiredTokenStore interface {
	DeleteExpiredAccessTokens(ctx context.Context) (int64, error)
}

// TokenPruner periodically removes expired access tokens.
type TokenPruner struct {
	store    ExpiredTokenStore
	interval time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder

	started bool
	mu      sync.Mutex
}

// NewTokenPruner creates a pruner that runs every interval.
func NewTokenPruner(store ExpiredTokenStore, interval time.Duration, logger *slog.Logger, recorder metrics.Recorder) *TokenPruner {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TokenPruner{
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  recorder,
	}
}

// PruneOnce deletes expired tokens and returns how many were removed.
func (p *TokenPruner) PruneOnce(ctx context.Context) (int64, error) {
	n, err := p.store.DeleteExpiredAccessTokens(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.metrics.AddTokensPruned(n)
		p.logger.Info("expired tokens pruned", "count", n)
	}
	return n, nil
}

// Run prunes once immediately and then on every tick. Blocks until ctx is
// cancelled. A non-positive interval disables pruning.
func (p *TokenPruner) Run(ctx context.Context) error {
	if p.interval <= 0 {
		p.logger.Info("token pruner disabled")
		return nil
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("token pruner already started")
	}
	p.started = true
	p.mu.Unlock()

	p.logger.Info("token pruner started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PruneOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("token prune failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("token pruner stopping")
			return nil
		case <-ticker.C:
		}
	}
}
