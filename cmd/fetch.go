package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"reels-relay/domain/video"

	"github.com/spf13/cobra"
)

var fetchCount int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest videos without publishing",
	Long: `Downloads the most recent videos of the configured TikTok account into
the download directory and prints their paths. The files are kept.

Example:
  reels-relay fetch
  reels-relay fetch --count 3`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchCount, "count", 0, "Number of videos to fetch (defaults to the configured fetch count)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	count := fetchCount
	if count <= 0 {
		count = cfg.TikTok.FetchCount
	}
	return RunFetchWithDependencies(cmd.Context(), app.Fetcher, cfg.TikTok.Username, count, DefaultOutput)
}

// RunFetchWithDependencies runs the fetch command with injected dependencies (for testing)
func RunFetchWithDependencies(ctx context.Context, fetcher video.Fetcher, username string, count int, output io.Writer) error {
	fmt.Fprintf(output, "Fetching latest videos from @%s...\n", username)
	videos, err := fetcher.FetchLatest(ctx, username, count)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if len(videos) == 0 {
		fmt.Fprintf(output, "No videos found.\n")
		return nil
	}
	for _, path := range video.Paths(videos) {
		fmt.Fprintf(output, "  %s\n", path)
	}
	fmt.Fprintf(output, "Downloaded %d videos.\n", len(videos))
	return nil
}
