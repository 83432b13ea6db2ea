//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appschedule "reels-relay/application/schedule"
	"reels-relay/domain/schedule"
	"reels-relay/infrastructure/logging"

	"github.com/cucumber/godog"
)

const clockLayout = "2006-01-02 15:04"

type scheduleContext struct {
	times    []schedule.ClockTime
	now      time.Time
	fail     bool
	duration time.Duration
	started  []time.Time
}

func InitializeScheduleScenario(ctx *godog.ScenarioContext) {
	testCtx := &scheduleContext{}

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*testCtx = scheduleContext{}
		return c, nil
	})

	ctx.Step(`^the schedule "([^"]*)"$`, testCtx.theSchedule)
	ctx.Step(`^the clock reads "([^"]*)"$`, testCtx.theClockReads)
	ctx.Step(`^every job fails$`, testCtx.everyJobFails)
	ctx.Step(`^every job takes (\d+) minutes$`, testCtx.everyJobTakesMinutes)
	ctx.Step(`^the scheduler runs (\d+) jobs?$`, testCtx.theSchedulerRunsJobs)
	ctx.Step(`^jobs should have started at "([^"]*)"$`, testCtx.jobsShouldHaveStartedAt)
}

func (c *scheduleContext) theSchedule(value string) error {
	times, err := schedule.ParseClockTimes(strings.Split(value, ","))
	if err != nil {
		return err
	}
	c.times = times
	return nil
}

func (c *scheduleContext) theClockReads(value string) error {
	t, err := time.ParseInLocation(clockLayout, value, time.UTC)
	if err != nil {
		return err
	}
	c.now = t
	return nil
}

func (c *scheduleContext) everyJobFails() error {
	c.fail = true
	return nil
}

func (c *scheduleContext) everyJobTakesMinutes(minutes int) error {
	c.duration = time.Duration(minutes) * time.Minute
	return nil
}

func (c *scheduleContext) theSchedulerRunsJobs(n int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := func(ctx context.Context) error {
		c.started = append(c.started, c.now)
		c.now = c.now.Add(c.duration)
		if len(c.started) == n {
			cancel()
		}
		if c.fail {
			return errors.New("fetch failed")
		}
		return nil
	}
	sleep := func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.now = c.now.Add(d)
		return nil
	}

	sched, err := appschedule.New(c.times, job, logging.Discard(),
		appschedule.WithLocation(time.UTC),
		appschedule.WithClock(func() time.Time { return c.now }, sleep),
	)
	if err != nil {
		return err
	}

	if err := sched.Start(ctx); !errors.Is(err, context.Canceled) {
		return fmt.Errorf("expected scheduler to stop on cancel, got %v", err)
	}
	return nil
}

func (c *scheduleContext) jobsShouldHaveStartedAt(value string) error {
	var got []string
	for _, t := range c.started {
		got = append(got, t.Format(clockLayout))
	}
	if strings.Join(got, ",") != value {
		return fmt.Errorf("expected starts %q, got %q", value, strings.Join(got, ","))
	}
	return nil
}
