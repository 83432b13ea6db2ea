package job

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"reels-relay/domain/archive"
	"reels-relay/domain/job"
	"reels-relay/domain/publish"
	"reels-relay/domain/video"

	"github.com/google/uuid"
	"github.com/op/go-logging"
)

// MaxVideosPerRun caps how many fetched videos a single run processes
const MaxVideosPerRun = 2

// Archiver uploads a local video to the archive location
type Archiver interface {
	Archive(ctx context.Context, path string) (*archive.UploadResult, error)
}

// Settings contains the per-run parameters of the service
type Settings struct {
	Username      string // Source account
	FetchCount    int    // How many recent videos to ask the fetcher for
	Caption       string // Caption for every published video
	KeepDownloads bool   // Leave fetched files on disk after the run
}

// Service runs one fetch, validate, archive and publish pass
type Service struct {
	fetcher   video.Fetcher
	validator video.Validator
	archiver  Archiver
	publisher publish.Publisher
	remover   video.FileRemover
	settings  Settings
	history   *History
	log       *logging.Logger
	now       func() time.Time
	newRunID  func() string
}

// Option is a functional option for configuring Service
type Option func(*Service)

// WithArchiver enables archiving; without it the archive step is skipped
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithHistory records every finished report in h
func WithHistory(h *History) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithClock sets the time source used for report timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new job service
func NewService(
	fetcher video.Fetcher,
	validator video.Validator,
	publisher publish.Publisher,
	remover video.FileRemover,
	settings Settings,
	log *logging.Logger,
	opts ...Option,
) *Service {
	if settings.Caption == "" {
		settings.Caption = publish.DefaultCaption
	}
	if settings.FetchCount <= 0 {
		settings.FetchCount = video.DefaultFetchCount
	}

	s := &Service{
		fetcher:   fetcher,
		validator: validator,
		publisher: publisher,
		remover:   remover,
		settings:  settings,
		log:       log,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes one pass. A fetch failure aborts the run and is returned;
// failures of later steps are recorded per video in the report.
func (s *Service) Run(ctx context.Context) (*job.Report, error) {
	report := &job.Report{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
	}
	defer func() {
		report.FinishedAt = s.now()
		if s.history != nil {
			s.history.Set(report)
		}
	}()

	s.log.Infof("[%s] Fetching up to %d videos from @%s", short(report.RunID), s.settings.FetchCount, s.settings.Username)
	videos, err := s.fetcher.FetchLatest(ctx, s.settings.Username, s.settings.FetchCount)
	if err != nil {
		s.log.Errorf("[%s] Fetch failed: %v", short(report.RunID), err)
		return report, fmt.Errorf("fetch failed: %w", err)
	}
	report.Fetched = len(videos)
	defer s.cleanup(videos)

	if len(videos) == 0 {
		s.log.Infof("[%s] No new videos", short(report.RunID))
		return report, nil
	}

	batch := videos
	if len(batch) > MaxVideosPerRun {
		batch = batch[:MaxVideosPerRun]
	}

	for i, v := range batch {
		if err := ctx.Err(); err != nil {
			s.log.Warningf("[%s] Run cancelled after %d of %d videos", short(report.RunID), i, len(batch))
			return report, err
		}

		s.log.Infof("[%s] [%d/%d] Processing %s", short(report.RunID), i+1, len(batch), filepath.Base(v.Path))
		outcome := s.process(ctx, v)
		if outcome.Err != nil {
			s.log.Errorf("[%s] %v", short(report.RunID), outcome.Err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.log.Infof("[%s] Done: %d published, %d failed", short(report.RunID), report.Published(), len(report.Failures()))
	return report, nil
}

// process runs validate, archive and publish for one video, stopping at the first failure
func (s *Service) process(ctx context.Context, v video.Video) job.Outcome {
	outcome := job.Outcome{Video: v}

	if err := s.validator.Validate(ctx, v.Path); err != nil {
		outcome.Err = &job.StepError{Step: job.StepValidate, Path: v.Path, Err: err}
		return outcome
	}

	if s.archiver != nil {
		result, err := s.archiver.Archive(ctx, v.Path)
		if err != nil {
			outcome.Err = &job.StepError{Step: job.StepArchive, Path: v.Path, Err: err}
			return outcome
		}
		outcome.ArchiveID = result.FileID
		s.log.Infof("      Archived: %s (%s)", result.FileName, result.FileID)
	}

	result, err := s.publisher.Publish(ctx, v.Path, s.settings.Caption)
	if err != nil {
		outcome.Err = &job.StepError{Step: job.StepPublish, Path: v.Path, Err: err}
		return outcome
	}
	outcome.PostID = result.PostID
	s.log.Infof("      Published: %s", result.PostID)

	return outcome
}

// cleanup removes every fetched file, processed or not
func (s *Service) cleanup(videos []video.Video) {
	if s.settings.KeepDownloads {
		return
	}
	for _, v := range videos {
		if err := s.remover.Remove(v.Path); err != nil {
			s.log.Warningf("Failed to remove %s: %v", v.Path, err)
		}
	}
}

func short(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
