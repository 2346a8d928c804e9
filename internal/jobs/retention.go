// Package jobs runs the background maintenance schedule.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"weekplanner/internal/dates"
)

// Pruner deletes completion records older than the given cutoff day.
type Pruner interface {
	PruneCompletions(ctx context.Context, before dates.DayKey) (int64, error)
}

// Retention schedules a nightly prune of old completion records. With a
// non-positive retention the scheduler never starts and Stop is a no-op.
type Retention struct {
	cron    *cron.Cron
	pruner  Pruner
	days    int
	now     func() time.Time
	enabled bool
}

func NewRetention(pruner Pruner, retentionDays int, loc *time.Location) *Retention {
	return &Retention{
		cron:    cron.New(cron.WithLocation(loc)),
		pruner:  pruner,
		days:    retentionDays,
		now:     time.Now,
		enabled: retentionDays > 0,
	}
}

// Start registers the nightly job and starts the scheduler.
func (r *Retention) Start() error {
	if !r.enabled {
		return nil
	}
	// Shortly after local midnight, when the cutoff day advances.
	if _, err := r.cron.AddFunc("15 0 * * *", r.RunOnce); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

func (r *Retention) Stop() {
	if !r.enabled {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RunOnce prunes immediately using the current cutoff. Exposed for the
// scheduler and for manual invocation from the CLI.
func (r *Retention) RunOnce() {
	cutoff := r.Cutoff()
	n, err := r.pruner.PruneCompletions(context.Background(), cutoff)
	if err != nil {
		log.Printf("jobs: prune completions before %s: %v", cutoff, err)
		return
	}
	if n > 0 {
		log.Printf("jobs: pruned %d completion records before %s", n, cutoff)
	}
}

// Cutoff is the oldest day whose completion records are kept.
func (r *Retention) Cutoff() dates.DayKey {
	return dates.Key(dates.AddDays(r.now(), -r.days))
}
