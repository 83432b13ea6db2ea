package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"reels-relay/infrastructure/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:   "reels-relay",
	Short: "Republish a TikTok account's latest videos as Instagram Reels",
	Long: `reels-relay downloads the most recent videos of one TikTok account,
optionally archives them to Google Drive or S3, and publishes them as
Instagram Reels at fixed times of day:

  - Fetch the latest videos with yt-dlp or an Apify scraper
  - Validate each file as a video container
  - Archive to Google Drive or S3-compatible storage
  - Publish to Instagram through the Graph API

Settings come from config/config.yaml, a .env file and the environment.

Example:
  reels-relay run
  reels-relay once`,
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	cfg, cfgErr = LoadConfig(cfgFile)
}

// LoadConfig reads the YAML file at path and overlays the environment
func LoadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(c)
	return c, nil
}

// GetConfig returns the loaded configuration
func GetConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
