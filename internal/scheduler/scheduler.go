// Package scheduler runs the periodic session purge.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/bookshelf/internal/metrics"
	"github.com/robfig/cron/v3"
)

// purgeTimeout bounds one purge run.
const purgeTimeout = time.Minute

// Purger deletes expired sessions and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor deletes expired session rows on a cron schedule. Sessions are
// already refused once expired; the janitor only keeps the table small.
type Janitor struct {
	cron   *cron.Cron
	purger Purger
	log    *slog.Logger
}

// New schedules p on spec (standard five-field cron or a descriptor such as
// "@every 15m"). The job is not running until Start.
func New(spec string, p Purger, log *slog.Logger) (*Janitor, error) {
	if log == nil {
		log = slog.Default()
	}
	j := &Janitor{
		// A slow purge must not pile up behind itself.
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		purger: p,
		log:    log.With("component", "scheduler"),
	}
	if _, err := j.cron.AddFunc(spec, j.Purge); err != nil {
		return nil, err
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	j.log.Info("session purge scheduled", "entries", len(j.cron.Entries()))
}

// Stop halts the schedule and waits for a running purge, or for ctx.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Purge runs one purge now.
func (j *Janitor) Purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.log.Error("purge expired sessions failed", "error", err)
		return
	}
	metrics.AddSessionsPurged(n)
	if n > 0 {
		j.log.Info("purged expired sessions", "count", n)
	}
}
