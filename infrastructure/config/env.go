package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names
const (
	EnvTikTokUsername   = "TIKTOK_USERNAME"
	EnvTikTokFetchCount = "TIKTOK_FETCH_COUNT"
	EnvTikTokSource     = "TIKTOK_SOURCE"
	EnvYtDlpPath        = "YTDLP_PATH"
	EnvApifyToken       = "APIFY_API_TOKEN"
	EnvDownloadDir      = "DOWNLOAD_DIR"
	EnvKeepDownloads    = "KEEP_DOWNLOADS"
	EnvInstagramToken   = "INSTAGRAM_TOKEN"
	EnvInstagramAccount = "INSTAGRAM_ACCOUNT_ID"
	EnvGraphURL         = "GRAPH_API_URL"
	EnvCaption          = "POST_CAPTION"
	EnvGoogleCreds      = "GOOGLE_CREDENTIALS"
	EnvDriveFolderID    = "DRIVE_FOLDER_ID"
	EnvArchiveBackend   = "ARCHIVE_BACKEND"
	EnvS3Endpoint       = "S3_ENDPOINT"
	EnvS3Bucket         = "S3_BUCKET"
	EnvS3AccessKey      = "S3_ACCESS_KEY"
	EnvS3SecretKey      = "S3_SECRET_KEY"
	EnvS3UseSSL         = "S3_USE_SSL"
	EnvS3Prefix         = "S3_PREFIX"
	EnvScheduleTimes    = "SCHEDULE_TIMES"
	EnvScheduleTimezone = "SCHEDULE_TIMEZONE"
	EnvValidator        = "VALIDATOR"
	EnvFFprobePath      = "FFPROBE_PATH"
	EnvLogLevel         = "LOG_LEVEL"
	EnvStatusAddr       = "STATUS_ADDR"
)

// ApplyEnv overlays environment variables onto cfg. Unset and empty
// variables leave the file or default value in place.
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	setString(v, EnvTikTokUsername, &cfg.TikTok.Username)
	setInt(v, EnvTikTokFetchCount, &cfg.TikTok.FetchCount)
	setString(v, EnvTikTokSource, &cfg.TikTok.Source)
	setString(v, EnvYtDlpPath, &cfg.TikTok.YtDlpPath)
	setString(v, EnvApifyToken, &cfg.TikTok.ApifyToken)
	setString(v, EnvDownloadDir, &cfg.TikTok.DownloadDir)
	setBool(v, EnvKeepDownloads, &cfg.TikTok.KeepDownloads)

	setString(v, EnvInstagramToken, &cfg.Instagram.AccessToken)
	setString(v, EnvInstagramAccount, &cfg.Instagram.AccountID)
	setString(v, EnvGraphURL, &cfg.Instagram.GraphURL)
	setString(v, EnvCaption, &cfg.Instagram.Caption)

	setString(v, EnvGoogleCreds, &cfg.Google.Credentials)
	setString(v, EnvDriveFolderID, &cfg.Google.DriveFolderID)

	setString(v, EnvArchiveBackend, &cfg.Archive.Backend)
	setString(v, EnvS3Endpoint, &cfg.Archive.S3.Endpoint)
	setString(v, EnvS3Bucket, &cfg.Archive.S3.Bucket)
	setString(v, EnvS3AccessKey, &cfg.Archive.S3.AccessKey)
	setString(v, EnvS3SecretKey, &cfg.Archive.S3.SecretKey)
	setBool(v, EnvS3UseSSL, &cfg.Archive.S3.UseSSL)
	setString(v, EnvS3Prefix, &cfg.Archive.S3.Prefix)

	if v.IsSet(EnvScheduleTimes) {
		cfg.Schedule.Times = splitList(v.GetString(EnvScheduleTimes))
	}
	setString(v, EnvScheduleTimezone, &cfg.Schedule.Timezone)

	setString(v, EnvValidator, &cfg.Validation.Backend)
	setString(v, EnvFFprobePath, &cfg.Validation.FFprobePath)
	setString(v, EnvLogLevel, &cfg.Logging.Level)
	setString(v, EnvStatusAddr, &cfg.Status.Addr)
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
