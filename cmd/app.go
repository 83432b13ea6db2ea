package cmd

import (
	"context"
	"fmt"
	"io"

	apparchive "reels-relay/application/archive"
	appjob "reels-relay/application/job"
	"reels-relay/domain/publish"
	"reels-relay/domain/video"
	"reels-relay/infrastructure/apify"
	"reels-relay/infrastructure/config"
	"reels-relay/infrastructure/drive"
	"reels-relay/infrastructure/ffmpeg"
	"reels-relay/infrastructure/filesystem"
	"reels-relay/infrastructure/gocv"
	"reels-relay/infrastructure/instagram"
	"reels-relay/infrastructure/logging"
	"reels-relay/infrastructure/s3"
	"reels-relay/infrastructure/ytdlp"

	gologging "github.com/op/go-logging"
)

// App holds every component wired from one configuration
type App struct {
	Config    *config.Config
	Log       *gologging.Logger
	Fetcher   video.Fetcher
	Validator video.Validator
	Archiver  appjob.Archiver // nil when archiving is disabled
	Publisher publish.Publisher
	History   *appjob.History
	Job       *appjob.Service

	creds *config.CredentialsFile
}

// NewApp validates cfg and builds the components. The caller must Close the
// returned App to remove the credentials file.
func NewApp(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	log := logging.New(logOutput, level)

	creds, err := config.WriteCredentialsFile(cfg.Google.Credentials)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Log:     log,
		History: appjob.NewHistory(),
		creds:   creds,
	}
	if err := app.build(ctx); err != nil {
		creds.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	var err error
	if a.Fetcher, err = newFetcher(a.Config); err != nil {
		return err
	}
	a.Validator = newValidator(a.Config, a.Log)
	if a.Archiver, err = newArchiver(ctx, a.Config, a.creds.Path()); err != nil {
		return err
	}

	ig := a.Config.Instagram
	a.Publisher = instagram.NewClient(ig.AccessToken,
		instagram.WithGraphURL(ig.GraphURL),
		instagram.WithAccountID(ig.AccountID),
		instagram.WithPollPolicy(instagram.PollPolicy{
			MaxAttempts:  ig.StatusPoll.MaxAttempts,
			InitialDelay: ig.StatusPoll.InitialDelay,
			MaxDelay:     ig.StatusPoll.MaxDelay,
		}),
		instagram.WithLogger(a.Log),
	)

	opts := []appjob.Option{appjob.WithHistory(a.History)}
	if a.Archiver != nil {
		opts = append(opts, appjob.WithArchiver(a.Archiver))
	} else {
		a.Log.Info("Archiving disabled: no storage location configured")
	}

	a.Job = appjob.NewService(
		a.Fetcher,
		a.Validator,
		a.Publisher,
		filesystem.NewChecker(),
		appjob.Settings{
			Username:      a.Config.TikTok.Username,
			FetchCount:    a.Config.TikTok.FetchCount,
			Caption:       ig.Caption,
			KeepDownloads: a.Config.TikTok.KeepDownloads,
		},
		a.Log,
		opts...,
	)
	return nil
}

// Close removes the credentials file
func (a *App) Close() error {
	return a.creds.Close()
}

func newFetcher(cfg *config.Config) (video.Fetcher, error) {
	tt := cfg.TikTok
	switch tt.Source {
	case config.SourceApify:
		client, err := apify.NewClient(tt.ApifyToken)
		if err != nil {
			return nil, err
		}
		return apify.NewFetcher(client, apify.NewHTTPDownloader(), tt.DownloadDir), nil
	default:
		return ytdlp.NewFetcher(tt.DownloadDir, ytdlp.WithBinaryPath(tt.YtDlpPath)), nil
	}
}

func newValidator(cfg *config.Config, log *gologging.Logger) video.Validator {
	switch cfg.Validation.Backend {
	case config.ValidatorGoCV:
		if !gocv.Available() {
			log.Warning("Built without the gocv tag: every file will fail validation")
		}
		return gocv.NewValidator()
	default:
		return ffmpeg.NewProber(ffmpeg.WithFFprobePath(cfg.Validation.FFprobePath))
	}
}

// newArchiver returns nil when the active backend has no storage location
func newArchiver(ctx context.Context, cfg *config.Config, credentialsPath string) (appjob.Archiver, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}

	switch cfg.Archive.Backend {
	case config.ArchiveS3:
		s := cfg.Archive.S3
		client, err := s3.NewClient(s3.Options{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			UseSSL:    s.UseSSL,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return apparchive.NewService(client, ""), nil
	default:
		client, err := drive.NewClient(ctx, credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Drive client: %w", err)
		}
		return apparchive.NewService(client, cfg.Google.DriveFolderID), nil
	}
}
