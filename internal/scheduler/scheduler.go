package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
)

// Job is one scheduled task. Jobs run with a bounded context so a wedged
// tick cannot pile up behind the next one forever.
type Job func(ctx context.Context) error

// Scheduler wraps the cron runner with named jobs and structured logging.
type Scheduler struct {
	log     *logger.Logger
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	timeout time.Duration
}

func New(baseLog *logger.Logger) *Scheduler {
	return &Scheduler{
		log:     baseLog.With("component", "Scheduler"),
		cron:    cron.New(cron.WithLocation(time.UTC)),
		jobs:    make(map[string]cron.EntryID),
		timeout: 30 * time.Minute,
	}
}

func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		s.log.Info("Job starting", "job", name)
		if err := job(ctx); err != nil {
			s.log.Error("Job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.log.Info("Job complete", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Info("Job scheduled", "job", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.log.Info("Scheduler starting", "jobs", len(s.jobs))
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Scheduler stopping")
	return s.cron.Stop()
}

// JobInfo describes one scheduled job's timing.
type JobInfo struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
}

func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))
	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}
	return infos
}
