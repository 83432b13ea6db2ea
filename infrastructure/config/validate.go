package config

import (
	"fmt"
	"strings"

	"reels-relay/domain/schedule"
)

// MissingError lists required settings that are absent or empty
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Names, ", "))
}

// Validate checks required settings and option values. It never touches the network.
func (c *Config) Validate() error {
	var missing []string
	if c.TikTok.Username == "" {
		missing = append(missing, EnvTikTokUsername)
	}
	if c.Instagram.AccessToken == "" {
		missing = append(missing, EnvInstagramToken)
	}
	if c.Google.Credentials == "" {
		missing = append(missing, EnvGoogleCreds)
	}
	if c.TikTok.Source == SourceApify && c.TikTok.ApifyToken == "" {
		missing = append(missing, EnvApifyToken)
	}
	if c.Archive.Backend == ArchiveS3 && c.Archive.S3.Bucket != "" && c.Archive.S3.Endpoint == "" {
		missing = append(missing, EnvS3Endpoint)
	}
	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}

	switch c.TikTok.Source {
	case SourceYtDlp, SourceApify:
	default:
		return fmt.Errorf("unknown tiktok source %q: expected %s or %s", c.TikTok.Source, SourceYtDlp, SourceApify)
	}

	switch c.Archive.Backend {
	case ArchiveDrive, ArchiveS3:
	default:
		return fmt.Errorf("unknown archive backend %q: expected %s or %s", c.Archive.Backend, ArchiveDrive, ArchiveS3)
	}

	switch c.Validation.Backend {
	case ValidatorFFprobe, ValidatorGoCV:
	default:
		return fmt.Errorf("unknown validator %q: expected %s or %s", c.Validation.Backend, ValidatorFFprobe, ValidatorGoCV)
	}

	if c.TikTok.FetchCount < 0 {
		return fmt.Errorf("fetch count must not be negative, got %d", c.TikTok.FetchCount)
	}

	if _, err := schedule.ParseClockTimes(c.Schedule.Times); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}
