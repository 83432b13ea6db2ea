package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	appjob "reels-relay/application/job"

	"github.com/spf13/cobra"
)

var archiveFilePath string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive one local video to the configured storage",
	Long: `Uploads a single file to Google Drive (DRIVE_FOLDER_ID) or to the
configured S3 bucket, whichever archive backend is active.

Example:
  reels-relay archive --file downloads/7301234567890.mp4`,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().StringVar(&archiveFilePath, "file", "", "Path to the video file (required)")
	archiveCmd.MarkFlagRequired("file")
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	return RunArchiveWithDependencies(cmd.Context(), app.Archiver, archiveFilePath, DefaultOutput)
}

// RunArchiveWithDependencies runs the archive command with injected dependencies (for testing)
func RunArchiveWithDependencies(ctx context.Context, archiver appjob.Archiver, filePath string, output io.Writer) error {
	if archiver == nil {
		return fmt.Errorf("archiving is disabled: set DRIVE_FOLDER_ID or S3_BUCKET")
	}

	fmt.Fprintf(output, "Archiving: %s...\n", filepath.Base(filePath))
	result, err := archiver.Archive(ctx, filePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Archived successfully!\n")
	fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
	fmt.Fprintf(output, "  Size: %.2f MB\n", float64(result.Size)/1024/1024)
	return nil
}
