package cmd

import (
	"context"
	"errors"
	"os"

	appschedule "reels-relay/application/schedule"
	"reels-relay/domain/schedule"
	"reels-relay/infrastructure/ffmpeg"
	"reels-relay/infrastructure/status"

	"github.com/spf13/cobra"
)

var runStatusAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the autoposter on its daily schedule",
	Long: `Runs forever, starting one fetch-and-publish pass at each configured
time of day (17:00 and 19:00 by default). A pass that is still running when
the next trigger passes causes that trigger to be skipped.

With --status-addr (or STATUS_ADDR) a read-only HTTP endpoint serves
/healthz and /runs/last.

Example:
  reels-relay run
  reels-relay run --status-addr :8080`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runStatusAddr, "status-addr", "", "Listen address for the status endpoint (disabled when empty)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if runStatusAddr != "" {
		cfg.Status.Addr = runStatusAddr
	}

	ctx := cmd.Context()
	app, err := NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if prober, ok := app.Validator.(*ffmpeg.Prober); ok {
		if err := prober.VerifyInstalled(ctx); err != nil {
			app.Log.Warningf("%v: every file will fail validation", err)
		}
	}

	return RunSchedulerWithDependencies(ctx, app)
}

// RunSchedulerWithDependencies starts the scheduler and optional status server
// for app and blocks until ctx is cancelled
func RunSchedulerWithDependencies(ctx context.Context, app *App) error {
	times, err := schedule.ParseClockTimes(app.Config.Schedule.Times)
	if err != nil {
		return err
	}
	loc, err := app.Config.Location()
	if err != nil {
		return err
	}

	sched, err := appschedule.New(times, func(ctx context.Context) error {
		_, err := app.Job.Run(ctx)
		return err
	}, app.Log, appschedule.WithLocation(loc))
	if err != nil {
		return err
	}

	if addr := app.Config.Status.Addr; addr != "" {
		srv := status.NewServer(addr, app.History, app.Log)
		go func() {
			if err := srv.Start(ctx); err != nil {
				app.Log.Errorf("Status server stopped: %v", err)
			}
		}()
	}

	err = sched.Start(ctx)
	if errors.Is(err, context.Canceled) {
		app.Log.Info("Shutting down")
		return nil
	}
	return err
}
