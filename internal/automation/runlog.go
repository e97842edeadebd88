package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run is one recorded webhook call.
type Run struct {
	OrganizationID string
	AutomationUUID string
	ButtonID       string
	IdempotencyKey string
	Status         string
	StatusCode     int
	Error          string
	DurationMs     int64
}

// Recorder receives a Run after every dispatched action.
type Recorder interface {
	Record(Run)
}

// NoopRecorder discards all runs.
type NoopRecorder struct{}

func (NoopRecorder) Record(Run) {}

// RunLog collects runs in memory and periodically flushes them to the
// automation_runs table in a batch insert.
type RunLog struct {
	mu      sync.Mutex
	runs    []Run
	pool    *pgxpool.Pool
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
}

// NewRunLog creates a log that flushes on a timer or when full.
func NewRunLog(pool *pgxpool.Pool, maxSize int, flushInterval time.Duration) *RunLog {
	rl := &RunLog{
		pool:    pool,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	rl.ticker = time.NewTicker(flushInterval)
	go rl.loop()
	return rl
}

func (rl *RunLog) loop() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.ticker.C:
			rl.Flush()
		}
	}
}

// Record adds a run to the buffer. A full buffer is flushed asynchronously.
func (rl *RunLog) Record(r Run) {
	rl.mu.Lock()
	rl.runs = append(rl.runs, r)
	shouldFlush := len(rl.runs) >= rl.maxSize
	rl.mu.Unlock()
	if shouldFlush {
		go rl.Flush()
	}
}

var runColumns = []string{"organization_id", "automation_uuid", "button_id", "idempotency_key", "status", "status_code", "error", "duration_ms"}

// insertRuns renders a multi-row INSERT for batch.
func insertRuns(batch []Run) (string, []any) {
	var placeholders []string
	args := make([]any, 0, len(batch)*len(runColumns))
	for i, r := range batch {
		offset := i * len(runColumns)
		ph := make([]string, len(runColumns))
		for j := range runColumns {
			ph[j] = fmt.Sprintf("$%d", offset+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
		args = append(args, r.OrganizationID, r.AutomationUUID, r.ButtonID, r.IdempotencyKey, r.Status, r.StatusCode, r.Error, r.DurationMs)
	}
	sql := fmt.Sprintf("INSERT INTO automation_runs (%s) VALUES %s", strings.Join(runColumns, ","), strings.Join(placeholders, ","))
	return sql, args
}

// Flush writes all buffered runs in a single insert.
func (rl *RunLog) Flush() {
	rl.mu.Lock()
	if len(rl.runs) == 0 {
		rl.mu.Unlock()
		return
	}
	batch := rl.runs
	rl.runs = nil
	rl.mu.Unlock()

	sql, args := insertRuns(batch)
	if _, err := rl.pool.Exec(context.Background(), sql, args...); err != nil {
		slog.Error("automation run log insert failed", "runs", len(batch), "error", err)
	}
}

// Stop halts the background ticker and flushes remaining runs.
func (rl *RunLog) Stop() {
	if rl.ticker != nil {
		rl.ticker.Stop()
	}
	close(rl.done)
	rl.Flush()
}

// Cleanup deletes runs older than retentionDays.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, retentionDays int) {
	tag, err := pool.Exec(ctx,
		`DELETE FROM automation_runs WHERE created_at < NOW() - make_interval(days => $1)`, retentionDays)
	if err != nil {
		slog.Error("automation run cleanup failed", "error", err)
		return
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info("automation run cleanup", "deleted", n)
	}
}
