package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CleanupScheduler prunes old automation runs on a background interval.
type CleanupScheduler struct {
	pool          *pgxpool.Pool
	retentionDays int
	interval      time.Duration
	ticker        *time.Ticker
	done          chan struct{}
}

func NewCleanupScheduler(pool *pgxpool.Pool, retentionDays int, interval time.Duration) *CleanupScheduler {
	return &CleanupScheduler{pool: pool, retentionDays: retentionDays, interval: interval}
}

// Start begins the background ticker. A non-positive retention disables it.
func (cs *CleanupScheduler) Start() {
	if cs.retentionDays <= 0 {
		return
	}
	cs.ticker = time.NewTicker(cs.interval)
	cs.done = make(chan struct{})
	go cs.run()
	slog.Info("automation run cleanup started", "interval", cs.interval, "retention_days", cs.retentionDays)
}

// Stop halts the background ticker.
func (cs *CleanupScheduler) Stop() {
	if cs.ticker != nil {
		cs.ticker.Stop()
	}
	if cs.done != nil {
		close(cs.done)
	}
}

func (cs *CleanupScheduler) run() {
	for {
		select {
		case <-cs.done:
			return
		case <-cs.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			Cleanup(ctx, cs.pool, cs.retentionDays)
			cancel()
		}
	}
}
