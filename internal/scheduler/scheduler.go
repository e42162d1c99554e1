// Package scheduler runs application sessions on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ApplyJobName is the name the recurring application session is registered under
const ApplyJobName = "apply"

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	cron       *cron.Cron
	mu         sync.Mutex
	jobs       map[string]cron.EntryID
	timezone   *time.Location
	jobTimeout time.Duration
	log        *logrus.Entry

	// base parents every cron-triggered run; cancel aborts them
	base   context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler with the given timezone. Each job run is
// bounded by jobTimeout, and a run is skipped while the previous one is
// still going.
func New(timezone string, jobTimeout time.Duration, log *logrus.Entry) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)

	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       c,
		jobs:       make(map[string]cron.EntryID),
		timezone:   loc,
		jobTimeout: jobTimeout,
		log:        log,
		base:       base,
		cancel:     cancel,
	}, nil
}

// Location returns the timezone schedules are evaluated in
func (s *Scheduler) Location() *time.Location {
	return s.timezone
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) error {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	log := s.log.WithField("job", name)
	log.Info("Starting job")
	start := time.Now()

	err := job(ctx)
	if err != nil {
		log.WithError(err).Error("Job failed")
	} else {
		log.WithField("elapsed", time.Since(start).Round(time.Second)).Info("Job completed")
	}
	return err
}

// AddJob adds a job with a cron schedule
// schedule format: "0 9 * * *" (at 9:00 AM daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(s.base, name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.WithFields(logrus.Fields{"job": name, "schedule": schedule}).Info("Added job")

	return nil
}

// AddApplyJob schedules the application session
func (s *Scheduler) AddApplyJob(schedule string, job Job) error {
	return s.AddJob(ApplyJobName, schedule, job)
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and cancels running jobs. The returned context
// is done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	s.cancel()
	return s.cron.Stop()
}

// Run starts the scheduler and blocks until ctx is cancelled. Running jobs
// see their context cancelled and Run returns once they have finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()

	<-ctx.Done()
	s.log.Info("Interrupted, cancelling running jobs")
	<-s.Stop().Done()
}

// RunNow immediately executes a job (useful for testing)
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	return s.run(ctx, name, job)
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// NextRun returns when the named job fires next
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
