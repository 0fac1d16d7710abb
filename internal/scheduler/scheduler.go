package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of background work the scheduler can run.
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs registered jobs on cron schedules with seconds precision.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	lastRun map[string]time.Time
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		lastRun: make(map[string]time.Time),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedule examples:
//   - "0 0 */6 * * *"  - Every 6 hours
//   - "@hourly"        - Every hour
//   - "@every 30m"     - Every 30 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// LastRun reports when a job last started, zero time if it never ran.
func (s *Scheduler) LastRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun[name]
}

func (s *Scheduler) run(job Job) {
	started := time.Now()
	s.mu.Lock()
	s.lastRun[job.Name()] = started
	s.mu.Unlock()

	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("elapsed", time.Since(started)).
			Msg("Job failed")
		return
	}
	s.log.Debug().
		Str("job", job.Name()).
		Dur("elapsed", time.Since(started)).
		Msg("Job completed")
}
