package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ayurcare/clinic-api/pkg/logger"
)

// Job is one housekeeping task. It receives the scheduler's context.
type Job func(ctx context.Context)

// Scheduler runs housekeeping jobs on cron schedules in the clinic's
// timezone. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	ctx    context.Context
}

func NewScheduler(loc *time.Location, l *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	return &Scheduler{cron: c, logger: l, ctx: context.Background()}
}

// Add registers job under a standard five-field spec or a descriptor such
// as "@every 10m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		job(s.ctx)
		s.logger.Debug("Scheduled job finished", "job", name, "duration", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("Scheduled job", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
