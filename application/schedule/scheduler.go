package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reels-relay/domain/schedule"

	"github.com/op/go-logging"
)

// DefaultPollInterval is the longest the scheduler sleeps before re-reading the clock
const DefaultPollInterval = 30 * time.Second

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler runs a job at fixed times of day
type Scheduler struct {
	times        []schedule.ClockTime
	loc          *time.Location
	job          Job
	log          *logging.Logger
	pollInterval time.Duration
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option is a functional option for configuring Scheduler
type Option func(*Scheduler)

// WithLocation sets the time zone the clock times are interpreted in
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPollInterval sets how often the wall clock is re-checked
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithClock sets the time source and sleep function (for testing)
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) {
		s.now = now
		s.sleep = sleep
	}
}

// New creates a scheduler that runs job at each of times
func New(times []schedule.ClockTime, job Job, log *logging.Logger, opts ...Option) (*Scheduler, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("scheduler needs at least one time of day")
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler needs a job")
	}

	s := &Scheduler{
		times:        times,
		loc:          time.Local,
		job:          job,
		log:          log,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		sleep:        sleepContext,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start blocks, running the job at every trigger until ctx is cancelled.
// A run that outlasts later triggers skips them.
func (s *Scheduler) Start(ctx context.Context) error {
	next := s.Next()
	s.log.Infof("Scheduler started, next run at %s", next.Format("2006-01-02 15:04"))

	for {
		now := s.now().In(s.loc)
		if !now.Before(next) {
			s.runJob(ctx, next)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			next = s.Next()
			s.log.Infof("Next run at %s", next.Format("2006-01-02 15:04"))
			continue
		}

		wait := next.Sub(now)
		if wait > s.pollInterval {
			wait = s.pollInterval
		}
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Next returns the next trigger after the current time
func (s *Scheduler) Next() time.Time {
	return schedule.Next(s.now().In(s.loc), s.times)
}

func (s *Scheduler) runJob(ctx context.Context, trigger time.Time) {
	s.log.Infof("Running job scheduled for %s", trigger.Format("15:04"))
	if err := s.job(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			s.log.Warningf("Job cancelled: %v", err)
			return
		}
		s.log.Errorf("Job failed: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
