// Package jobs runs periodic background work on fixed intervals.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic work
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own goroutine. A job's next run starts only after the
// previous one returned, so a job never overlaps itself.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches every job and returns immediately. Jobs stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			slog.Warn("job disabled, interval must be positive", "job", job.Name, "interval", job.Interval)
			continue
		}
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	slog.Info("job scheduler started", "jobs", len(s.jobs))
}

// Wait blocks until every job goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunOnce(ctx, job)
		}
	}
}

// RunOnce executes a job a single time and logs the outcome.
func RunOnce(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		slog.Error("job failed", "job", job.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	slog.Debug("job finished", "job", job.Name, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
