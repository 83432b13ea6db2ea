package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"reels-relay/domain/publish"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	TikTok     TikTokConfig     `yaml:"tiktok"`
	Instagram  InstagramConfig  `yaml:"instagram"`
	Google     GoogleConfig     `yaml:"google"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Status     StatusConfig     `yaml:"status"`
}

// TikTokConfig contains source account and download settings
type TikTokConfig struct {
	Username      string `yaml:"username"`
	FetchCount    int    `yaml:"fetch_count"`
	Source        string `yaml:"source"` // ytdlp or apify
	YtDlpPath     string `yaml:"ytdlp_path"`
	ApifyToken    string `yaml:"apify_token"`
	DownloadDir   string `yaml:"download_dir"`
	KeepDownloads bool   `yaml:"keep_downloads"`
}

// InstagramConfig contains destination account and publish settings
type InstagramConfig struct {
	AccessToken string     `yaml:"access_token"`
	AccountID   string     `yaml:"account_id"`
	GraphURL    string     `yaml:"graph_url"`
	Caption     string     `yaml:"caption"`
	StatusPoll  PollConfig `yaml:"status_poll"`
}

// PollConfig bounds the media container readiness poll
type PollConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	Credentials   string `yaml:"credentials"` // Full credentials JSON text
	DriveFolderID string `yaml:"drive_folder_id"`
}

// ArchiveConfig selects and configures the archival backend
type ArchiveConfig struct {
	Backend string   `yaml:"backend"` // drive or s3
	S3      S3Config `yaml:"s3"`
}

// S3Config contains S3-compatible storage settings
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// ScheduleConfig contains the daily trigger times
type ScheduleConfig struct {
	Times    []string `yaml:"times"`
	Timezone string   `yaml:"timezone"`
}

// ValidationConfig selects the media validator
type ValidationConfig struct {
	Backend     string `yaml:"backend"` // ffprobe or gocv
	FFprobePath string `yaml:"ffprobe_path"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StatusConfig contains the optional status endpoint settings
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// Backend and source names
const (
	SourceYtDlp      = "ytdlp"
	SourceApify      = "apify"
	ArchiveDrive     = "drive"
	ArchiveS3        = "s3"
	ValidatorFFprobe = "ffprobe"
	ValidatorGoCV    = "gocv"
)

// DefaultCaption is the caption attached to every republished video
const DefaultCaption = publish.DefaultCaption

// Default returns a configuration with every optional setting filled in
func Default() *Config {
	return &Config{
		TikTok: TikTokConfig{
			FetchCount:  10,
			Source:      SourceYtDlp,
			YtDlpPath:   "yt-dlp",
			DownloadDir: ".",
		},
		Instagram: InstagramConfig{
			AccountID: "me",
			GraphURL:  "https://graph.facebook.com/v19.0",
			Caption:   DefaultCaption,
			StatusPoll: PollConfig{
				MaxAttempts:  10,
				InitialDelay: 5 * time.Second,
				MaxDelay:     time.Minute,
			},
		},
		Archive: ArchiveConfig{
			Backend: ArchiveDrive,
			S3:      S3Config{UseSSL: true},
		},
		Schedule: ScheduleConfig{
			Times: []string{"17:00", "19:00"},
		},
		Validation: ValidationConfig{
			Backend:     ValidatorFFprobe,
			FFprobePath: "ffprobe",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// Load reads the configuration from the specified YAML file on top of the
// defaults. A missing file is not an error: the environment alone can
// supply every setting.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ArchiveEnabled returns true when the active backend has a storage location
func (c *Config) ArchiveEnabled() bool {
	switch c.Archive.Backend {
	case ArchiveS3:
		return c.Archive.S3.Bucket != ""
	default:
		return c.Google.DriveFolderID != ""
	}
}

// Location returns the time zone schedule times are interpreted in
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// Redacted returns a copy with every secret masked, for display
func (c *Config) Redacted() *Config {
	out := *c
	out.Schedule.Times = append([]string(nil), c.Schedule.Times...)
	out.TikTok.ApifyToken = mask(c.TikTok.ApifyToken)
	out.Instagram.AccessToken = mask(c.Instagram.AccessToken)
	out.Google.Credentials = mask(c.Google.Credentials)
	out.Archive.S3.SecretKey = mask(c.Archive.S3.SecretKey)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 4)
}
