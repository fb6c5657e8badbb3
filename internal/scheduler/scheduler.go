package scheduler

import (
	"context"
	"fmt"
	"time"

	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one reconciliation pass: a bounded scan that drives stuck records
// to a terminal state. Jobs are stateless and idempotent; a missed tick is
// caught up by the next one.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler owns the background job lifecycle: started on process boot,
// stopped on graceful shutdown. A single flag disables all jobs for
// environments that must not run background mutation.
type Scheduler struct {
	jobs    []Job
	enabled bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

func New(enabled bool, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		enabled: enabled,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if !s.enabled {
		logger.WithComponent("scheduler").Info("background jobs disabled by configuration")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group

	for _, job := range s.jobs {
		job := job
		group.Go(func() error {
			ticker := time.NewTicker(job.Interval())
			defer ticker.Stop()

			logger.WithComponent("scheduler").Info("job started",
				zap.String("job", job.Name()),
				zap.Duration("interval", job.Interval()),
			)

			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					s.runOnce(groupCtx, job)
				}
			}
		})
	}
}

// Stop cancels the tick loops and waits for in-flight passes to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	_ = s.group.Wait()
	logger.WithComponent("scheduler").Info("all jobs stopped")
}

// RunJob triggers a single pass of a named job, used by the administrative
// endpoint for manual runs.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			s.runOnce(ctx, job)
			return nil
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues(job.Name(), "error").Inc()
		logger.WithComponent("scheduler").Error("job run failed",
			zap.String("job", job.Name()),
			zap.Error(err),
		)
		return
	}
	metrics.SchedulerRuns.WithLabelValues(job.Name(), "ok").Inc()
	logger.WithComponent("scheduler").Debug("job run finished",
		zap.String("job", job.Name()),
		zap.Duration("took", time.Since(start)),
	)
}
