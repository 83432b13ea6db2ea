package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reels-relay/domain/job"

	"github.com/spf13/cobra"
)

// JobRunner runs one orchestrator pass
type JobRunner interface {
	Run(ctx context.Context) (*job.Report, error)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single fetch, archive and publish pass now",
	Long: `Runs one pass immediately and prints its report: fetch the latest
videos, then validate, archive and publish at most two of them.

Example:
  reels-relay once`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	return RunOnceWithDependencies(cmd.Context(), app.Job, os.Stdout)
}

// RunOnceWithDependencies runs one pass with injected dependencies (for testing)
func RunOnceWithDependencies(ctx context.Context, runner JobRunner, output io.Writer) error {
	report, err := runner.Run(ctx)
	if report != nil {
		printReport(output, report)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func printReport(output io.Writer, report *job.Report) {
	fmt.Fprintf(output, "Run %s\n", report.RunID)
	fmt.Fprintf(output, "  Fetched: %d\n", report.Fetched)
	for _, o := range report.Outcomes {
		name := filepath.Base(o.Video.Path)
		if o.Err != nil {
			fmt.Fprintf(output, "  FAILED %s at %s: %v\n", name, o.Err.Step, o.Err.Err)
			continue
		}
		fmt.Fprintf(output, "  OK     %s -> %s", name, o.PostID)
		if o.ArchiveID != "" {
			fmt.Fprintf(output, " (archived %s)", o.ArchiveID)
		}
		fmt.Fprintln(output)
	}
	fmt.Fprintf(output, "Published %d of %d in %s\n", report.Published(), len(report.Outcomes), formatDuration(report.Duration()))
}
