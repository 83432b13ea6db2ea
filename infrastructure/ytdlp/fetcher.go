package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"reels-relay/domain/video"
	"reels-relay/infrastructure/command"
)

const profileURLFormat = "https://www.tiktok.com/@%s"

// Fetcher implements video.Fetcher with the yt-dlp binary
type Fetcher struct {
	binaryPath  string
	downloadDir string
	runner      command.Runner
}

// FetcherOption is a functional option for configuring Fetcher
type FetcherOption func(*Fetcher)

// WithBinaryPath sets a custom yt-dlp executable path
func WithBinaryPath(path string) FetcherOption {
	return func(f *Fetcher) {
		if path != "" {
			f.binaryPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner command.Runner) FetcherOption {
	return func(f *Fetcher) {
		f.runner = runner
	}
}

// NewFetcher creates a fetcher that writes videos into downloadDir
func NewFetcher(downloadDir string, opts ...FetcherOption) *Fetcher {
	if downloadDir == "" {
		downloadDir = "."
	}
	f := &Fetcher{
		binaryPath:  "yt-dlp",
		downloadDir: downloadDir,
		runner:      &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// playlist is the subset of yt-dlp's --dump-single-json output used here
type playlist struct {
	Entries []entry `json:"entries"`
}

type entry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FetchLatest implements video.Fetcher
func (f *Fetcher) FetchLatest(ctx context.Context, username string, max int) ([]video.Video, error) {
	if max <= 0 {
		max = video.DefaultFetchCount
	}
	username = strings.TrimPrefix(username, "@")

	entries, err := f.list(ctx, username, max)
	if err != nil {
		return nil, err
	}

	videos := make([]video.Video, 0, len(entries))
	for _, e := range entries {
		v, err := f.download(ctx, username, e)
		if err != nil {
			removeAll(videos)
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// list returns the account's most recent entries, newest first as TikTok orders them
func (f *Fetcher) list(ctx context.Context, username string, max int) ([]entry, error) {
	args := []string{
		"--flat-playlist",
		"--dump-single-json",
		"--no-warnings",
		"--playlist-end", strconv.Itoa(max),
		fmt.Sprintf(profileURLFormat, username),
	}

	out, err := f.runner.Output(ctx, f.binaryPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos for @%s: %w", username, err)
	}

	var pl playlist
	if err := json.Unmarshal(out, &pl); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp listing for @%s: %w", username, err)
	}

	entries := pl.Entries
	if len(entries) > max {
		entries = entries[:max]
	}
	for _, e := range entries {
		if err := video.ValidateID(e.ID); err != nil {
			return nil, fmt.Errorf("yt-dlp listing for @%s: %w", username, err)
		}
	}
	return entries, nil
}

func (f *Fetcher) download(ctx context.Context, username string, e entry) (video.Video, error) {
	url := e.URL
	if url == "" {
		url = fmt.Sprintf(profileURLFormat+"/video/%s", username, e.ID)
	}
	path := video.PathFor(f.downloadDir, e.ID)

	args := []string{
		"-f", "b",
		"--no-warnings",
		"--no-playlist",
		"--no-part",
		"--force-overwrites",
		"-o", path,
		url,
	}
	if err := f.runner.Run(ctx, f.binaryPath, args...); err != nil {
		return video.Video{}, fmt.Errorf("failed to download video %s: %w", e.ID, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return video.Video{}, fmt.Errorf("video %s was not written: %w", e.ID, err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return video.Video{}, fmt.Errorf("video %s downloaded empty", e.ID)
	}

	return video.Video{ID: e.ID, Path: path}, nil
}

func removeAll(videos []video.Video) {
	for _, v := range videos {
		os.Remove(v.Path)
	}
}

// Ensure Fetcher implements video.Fetcher
var _ video.Fetcher = (*Fetcher)(nil)
