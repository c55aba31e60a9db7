// Package scheduler runs recurring reconciliation jobs. A job is a named
// closure with either a fixed frequency or a crontab schedule; RunJobs
// blocks until the context is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/parityworks/parity/pkg/logger"
)

type Job struct {
	Name       string
	Frequency  time.Duration
	Cron       string
	RunOnStart bool
	Task       func(context.Context) error
}

// RunJobs schedules every job and blocks until ctx is done. Jobs with
// RunOnStart are executed once inline before scheduling, so a scheduled
// comparison produces its first report immediately rather than after the
// first interval elapses. Job failures are logged, not fatal; the next
// scheduled run still happens.
func RunJobs(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		logger.Info("scheduler: no jobs registered; exiting")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	for _, job := range jobs {
		if job.Task == nil {
			return fmt.Errorf("scheduler: job %q has no task", job.Name)
		}

		runFn := func() {
			if ctx.Err() != nil {
				return
			}
			if err := job.Task(ctx); err != nil {
				logger.Error("scheduler: job %s failed: %v", job.Name, err)
			}
		}

		if job.RunOnStart && ctx.Err() == nil {
			if err := job.Task(ctx); err != nil {
				logger.Error("scheduler: job %s failed on initial run: %v", job.Name, err)
			}
		}

		var (
			gJob gocron.Job
			err  error
		)

		switch {
		case job.Cron != "":
			gJob, err = sched.NewJob(gocron.CronJob(job.Cron, false), gocron.NewTask(runFn))
		case job.Frequency > 0:
			gJob, err = sched.NewJob(gocron.DurationJob(job.Frequency), gocron.NewTask(runFn))
		default:
			return fmt.Errorf("scheduler: job %q requires either frequency or cron", job.Name)
		}

		if err != nil {
			return fmt.Errorf("scheduler: schedule job %q: %w", job.Name, err)
		}

		logger.Info("scheduler: job %s scheduled (ID: %s)", job.Name, gJob.ID())
	}

	sched.Start()
	<-ctx.Done()
	logger.Info("scheduler: shutting down")
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	return nil
}

func RunSingleJob(ctx context.Context, job Job) error {
	return RunJobs(ctx, []Job{job})
}

// ParseFrequency parses a time.Duration flag value such as "5m" or "6h".
func ParseFrequency(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errors.New("frequency string cannot be empty")
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse frequency %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("frequency must be positive: %s", raw)
	}
	return d, nil
}
