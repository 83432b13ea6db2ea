package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reels-relay/domain/publish"
	"reels-relay/domain/video"
	"reels-relay/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

// DefaultFileChecker is used to check command file arguments
var DefaultFileChecker video.FileChecker = filesystem.NewChecker()

var (
	publishFilePath string
	publishCaption  string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one local video as an Instagram Reel",
	Long: `Uploads a single file to Instagram, waits for the media container to
finish processing and publishes it.

The caption defaults to the configured caption.

Example:
  reels-relay publish --file downloads/7301234567890.mp4
  reels-relay publish --file clip.mp4 --caption "Автор: @someone"`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishFilePath, "file", "", "Path to the video file (required)")
	publishCmd.Flags().StringVar(&publishCaption, "caption", "", "Caption for the post (defaults to the configured caption)")
	publishCmd.MarkFlagRequired("file")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	caption := publishCaption
	if caption == "" {
		caption = cfg.Instagram.Caption
	}
	return RunPublishWithDependencies(cmd.Context(), app.Publisher, publishFilePath, caption, DefaultOutput)
}

// RunPublishWithDependencies runs the publish command with injected dependencies (for testing)
func RunPublishWithDependencies(ctx context.Context, publisher publish.Publisher, filePath, caption string, output io.Writer) error {
	if !DefaultFileChecker.Exists(filePath) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if caption == "" {
		caption = publish.DefaultCaption
	}

	fmt.Fprintf(output, "Publishing: %s...\n", filepath.Base(filePath))
	result, err := publisher.Publish(ctx, filePath, caption)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	fmt.Fprintf(output, "Published successfully!\n")
	fmt.Fprintf(output, "  Container ID: %s\n", result.CreationID)
	fmt.Fprintf(output, "  Post ID: %s\n", result.PostID)
	return nil
}
