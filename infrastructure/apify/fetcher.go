package apify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"reels-relay/domain/video"
)

// Scraper lists an account's posts
type Scraper interface {
	ScrapeProfile(ctx context.Context, username string, max int) ([]Item, error)
}

// Downloader opens a direct video URL
type Downloader interface {
	Download(ctx context.Context, videoURL string) (io.ReadCloser, error)
}

// Fetcher implements video.Fetcher with the Apify TikTok scraper
type Fetcher struct {
	scraper     Scraper
	downloader  Downloader
	downloadDir string
}

// NewFetcher creates a fetcher that writes videos into downloadDir
func NewFetcher(scraper Scraper, downloader Downloader, downloadDir string) *Fetcher {
	if downloadDir == "" {
		downloadDir = "."
	}
	return &Fetcher{
		scraper:     scraper,
		downloader:  downloader,
		downloadDir: downloadDir,
	}
}

// FetchLatest implements video.Fetcher
func (f *Fetcher) FetchLatest(ctx context.Context, username string, max int) ([]video.Video, error) {
	if max <= 0 {
		max = video.DefaultFetchCount
	}
	username = strings.TrimPrefix(username, "@")

	items, err := f.scraper.ScrapeProfile(ctx, username, max)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos for @%s: %w", username, err)
	}

	videos := make([]video.Video, 0, len(items))
	for _, item := range items {
		v, err := f.save(ctx, item)
		if err != nil {
			for _, done := range videos {
				os.Remove(done.Path)
			}
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (f *Fetcher) save(ctx context.Context, item Item) (video.Video, error) {
	if err := video.ValidateID(item.ID); err != nil {
		return video.Video{}, err
	}
	src := item.DownloadURL()
	if src == "" {
		return video.Video{}, fmt.Errorf("video %s has no download address", item.ID)
	}

	body, err := f.downloader.Download(ctx, src)
	if err != nil {
		return video.Video{}, fmt.Errorf("video %s: %w", item.ID, err)
	}
	defer body.Close()

	path := video.PathFor(f.downloadDir, item.ID)
	file, err := os.Create(path)
	if err != nil {
		return video.Video{}, fmt.Errorf("failed to create video file %s: %w", path, err)
	}

	n, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return video.Video{}, fmt.Errorf("failed to write video file %s: %w", path, err)
	}
	if n == 0 {
		os.Remove(path)
		return video.Video{}, fmt.Errorf("video %s downloaded empty", item.ID)
	}

	return video.Video{ID: item.ID, Path: path}, nil
}

// Ensure Fetcher implements video.Fetcher
var _ video.Fetcher = (*Fetcher)(nil)
