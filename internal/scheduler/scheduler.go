// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/hrassist/internal/types"
)

// Job is a named callback fired on a cron schedule. An empty schedule
// disables the job.
type Job struct {
	Name     string
	Schedule string
	Run      func()
}

// Scheduler fires jobs on their cron schedules.
type Scheduler struct {
	jobs []Job
	cron *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether spec is a schedule the scheduler accepts.
func Validate(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a Scheduler for the given jobs.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs: jobs,
		cron: cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers every job that has a schedule and starts the cron ticker.
// It returns the number of jobs registered. Jobs with an invalid schedule
// are logged and skipped.
func (s *Scheduler) Start() int {
	registered := 0
	for _, job := range s.jobs {
		if job.Schedule == "" {
			continue
		}

		name, run := job.Name, job.Run
		_, err := s.cron.AddFunc(job.Schedule, func() {
			slog.Debug("cron firing job", "name", name)
			run()
		})
		if err != nil {
			slog.Error("invalid cron schedule", "name", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled job", "name", job.Name, "schedule", job.Schedule)
		registered++
	}

	s.cron.Start()
	return registered
}

// Stop stops the cron ticker and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// HealthRefresher re-checks backend health.
type HealthRefresher interface {
	RefreshHealth(ctx context.Context) types.HealthStatus
}

// HealthRefresh is a job that re-checks backend health on schedule.
func HealthRefresh(schedule string, r HealthRefresher) Job {
	return Job{
		Name:     "health-refresh",
		Schedule: schedule,
		Run: func() {
			status := r.RefreshHealth(context.Background())
			if status.AIOffline() {
				slog.Warn("AI service offline", "status", status.Status)
			}
		},
	}
}
