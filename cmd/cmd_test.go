package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reels-relay/domain/archive"
	"reels-relay/domain/job"
	"reels-relay/domain/publish"
	"reels-relay/domain/video"
	"reels-relay/infrastructure/config"
)

// --- Mock implementations for testing ---

type mockRunner struct {
	report *job.Report
	err    error
}

func (m *mockRunner) Run(ctx context.Context) (*job.Report, error) {
	return m.report, m.err
}

type mockPublisher struct {
	shouldFail bool
	failError  error
	gotCaption string
}

func (m *mockPublisher) Publish(ctx context.Context, path, caption string) (*publish.Result, error) {
	m.gotCaption = caption
	if m.shouldFail {
		return nil, m.failError
	}
	return &publish.Result{CreationID: "c-1", PostID: "p-1"}, nil
}

type mockArchiver struct {
	shouldFail bool
	failError  error
}

func (m *mockArchiver) Archive(ctx context.Context, path string) (*archive.UploadResult, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return &archive.UploadResult{FileID: "file-1", FileName: filepath.Base(path), Size: 2 * 1024 * 1024}, nil
}

type mockFetcher struct {
	videos []video.Video
	err    error
	gotMax int
}

func (m *mockFetcher) FetchLatest(ctx context.Context, username string, max int) ([]video.Video, error) {
	m.gotMax = max
	return m.videos, m.err
}

// mockPrompter answers prompts in order
type mockPrompter struct {
	inputs    []string
	passwords []string
	confirms  []bool
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	if len(m.inputs) == 0 {
		return "", errors.New("no more inputs")
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	if v == "" {
		return defaultValue, nil
	}
	return v, nil
}

func (m *mockPrompter) Password(message string) (string, error) {
	if len(m.passwords) == 0 {
		return "", errors.New("no more passwords")
	}
	v := m.passwords[0]
	m.passwords = m.passwords[1:]
	return v, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if len(m.confirms) == 0 {
		return false, errors.New("no more confirms")
	}
	v := m.confirms[0]
	m.confirms = m.confirms[1:]
	return v, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunOnce_PrintsReport(t *testing.T) {
	report := &job.Report{
		RunID:   "run-1",
		Fetched: 3,
		Outcomes: []job.Outcome{
			{Video: video.Video{ID: "a", Path: "/dl/a.mp4"}, PostID: "p-1", ArchiveID: "f-1"},
			{
				Video: video.Video{ID: "b", Path: "/dl/b.mp4"},
				Err:   &job.StepError{Step: job.StepPublish, Path: "/dl/b.mp4", Err: errors.New("invalid_token")},
			},
		},
	}
	var out bytes.Buffer

	if err := RunOnceWithDependencies(context.Background(), &mockRunner{report: report}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Run run-1", "Fetched: 3", "a.mp4 -> p-1 (archived f-1)", "FAILED b.mp4 at publish: invalid_token", "Published 1 of 2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunOnce_FetchError(t *testing.T) {
	cause := errors.New("network down")
	var out bytes.Buffer

	err := RunOnceWithDependencies(context.Background(), &mockRunner{report: &job.Report{RunID: "r"}, err: cause}, &out)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(out.String(), "Run r") {
		t.Error("expected the partial report to be printed")
	}
}

func TestRunPublish(t *testing.T) {
	path := writeFile(t, "a.mp4", "x")

	tests := []struct {
		name        string
		publisher   *mockPublisher
		path        string
		caption     string
		wantErr     bool
		wantCaption string
	}{
		{"default caption", &mockPublisher{}, path, "", false, publish.DefaultCaption},
		{"custom caption", &mockPublisher{}, path, "hi", false, "hi"},
		{"missing file", &mockPublisher{}, filepath.Join(t.TempDir(), "none.mp4"), "", true, ""},
		{"publisher error", &mockPublisher{shouldFail: true, failError: publish.ErrNoCreationID}, path, "", true, publish.DefaultCaption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := RunPublishWithDependencies(context.Background(), tt.publisher, tt.path, tt.caption, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.publisher.gotCaption != tt.wantCaption {
				t.Errorf("caption = %q, want %q", tt.publisher.gotCaption, tt.wantCaption)
			}
			if !tt.wantErr && !strings.Contains(out.String(), "Post ID: p-1") {
				t.Errorf("unexpected output: %s", out.String())
			}
		})
	}
}

func TestRunArchive(t *testing.T) {
	var out bytes.Buffer
	if err := RunArchiveWithDependencies(context.Background(), &mockArchiver{}, "/dl/a.mp4", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "File ID: file-1") || !strings.Contains(out.String(), "Size: 2.00 MB") {
		t.Errorf("unexpected output: %s", out.String())
	}

	if err := RunArchiveWithDependencies(context.Background(), nil, "/dl/a.mp4", io.Discard); err == nil {
		t.Error("expected error when archiving is disabled")
	}

	cause := errors.New("quota exceeded")
	err := RunArchiveWithDependencies(context.Background(), &mockArchiver{shouldFail: true, failError: cause}, "/dl/a.mp4", io.Discard)
	if !errors.Is(err, cause) {
		t.Errorf("expected %v, got %v", cause, err)
	}
}

func TestRunFetch(t *testing.T) {
	fetcher := &mockFetcher{videos: []video.Video{{ID: "1", Path: "/dl/1.mp4"}, {ID: "2", Path: "/dl/2.mp4"}}}
	var out bytes.Buffer

	if err := RunFetchWithDependencies(context.Background(), fetcher, "alice", 5, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.gotMax != 5 {
		t.Errorf("expected max 5, got %d", fetcher.gotMax)
	}
	if !strings.Contains(out.String(), "/dl/2.mp4") || !strings.Contains(out.String(), "Downloaded 2 videos.") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := RunFetchWithDependencies(context.Background(), &mockFetcher{}, "alice", 5, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No videos found.") {
		t.Errorf("unexpected output: %s", out.String())
	}

	if err := RunFetchWithDependencies(context.Background(), &mockFetcher{err: errors.New("private")}, "alice", 5, io.Discard); err == nil {
		t.Error("expected fetch error")
	}
}

func TestRunConfigShow_RedactsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.TikTok.Username = "alice"
	cfg.Instagram.AccessToken = "EAAverysecrettoken"
	var out bytes.Buffer

	if err := RunConfigShowWithDependencies(cfg, "config/config.yaml", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out.String(), "verysecret") {
		t.Errorf("token leaked in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "username: alice") {
		t.Errorf("expected username in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "GOOGLE_CREDENTIALS") {
		t.Errorf("expected missing credentials note:\n%s", out.String())
	}
}

func TestRunSetup_WritesConfig(t *testing.T) {
	creds := writeFile(t, "creds.json", `{"type":"service_account"}`)
	configPath := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &mockPrompter{
		// username, download dir, caption, credentials path, folder id, schedule
		inputs:    []string{"@alice", "", "", creds, "folder-1", "09:00, 21:30"},
		passwords: []string{"TOK"},
		// apify?, archive?
		confirms: []bool{false, true},
	}

	if err := RunSetupWithPrompter(prompter, configPath, io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if cfg.TikTok.Username != "alice" {
		t.Errorf("username = %q", cfg.TikTok.Username)
	}
	if cfg.TikTok.DownloadDir != "downloads" {
		t.Errorf("download dir = %q", cfg.TikTok.DownloadDir)
	}
	if cfg.Instagram.AccessToken != "TOK" || cfg.Instagram.Caption != config.DefaultCaption {
		t.Errorf("unexpected instagram config: %+v", cfg.Instagram)
	}
	if cfg.Google.Credentials != `{"type":"service_account"}` || cfg.Google.DriveFolderID != "folder-1" {
		t.Errorf("unexpected google config: %+v", cfg.Google)
	}
	if strings.Join(cfg.Schedule.Times, ",") != "09:00,21:30" {
		t.Errorf("schedule = %v", cfg.Schedule.Times)
	}
}

func TestRunSetup_Validation(t *testing.T) {
	tests := []struct {
		name     string
		prompter *mockPrompter
	}{
		{"empty username", &mockPrompter{inputs: []string{" "}}},
		{"empty token", &mockPrompter{inputs: []string{"alice", ""}, confirms: []bool{false}, passwords: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := RunSetupWithPrompter(tt.prompter, configPath, io.Discard); err == nil {
				t.Error("expected error")
			}
			if _, err := os.Stat(configPath); err == nil {
				t.Error("config must not be written on error")
			}
		})
	}
}

func TestRunSetup_KeepsExistingConfig(t *testing.T) {
	configPath := writeFile(t, "config.yaml", "tiktok:\n  username: bob\n")
	var out bytes.Buffer

	if err := RunSetupWithPrompter(&mockPrompter{confirms: []bool{false}}, configPath, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Setup cancelled.") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestNewApp(t *testing.T) {
	base := func() *config.Config {
		cfg := config.Default()
		cfg.TikTok.Username = "alice"
		cfg.Instagram.AccessToken = "TOK"
		cfg.Google.Credentials = `{"type":"service_account"}`
		return cfg
	}

	t.Run("missing required settings", func(t *testing.T) {
		cfg := config.Default()
		_, err := NewApp(context.Background(), cfg, io.Discard)
		var missing *config.MissingError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingError, got %v", err)
		}
	})

	t.Run("no storage location disables archiving", func(t *testing.T) {
		app, err := NewApp(context.Background(), base(), io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		credsPath := app.creds.Path()
		if app.Archiver != nil {
			t.Error("expected archiver to be nil")
		}
		if app.Job == nil || app.Publisher == nil || app.Fetcher == nil || app.Validator == nil {
			t.Error("expected every component to be built")
		}
		if _, err := os.Stat(credsPath); err != nil {
			t.Errorf("credentials file should exist while the app is open: %v", err)
		}
		if err := app.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if _, err := os.Stat(credsPath); !os.IsNotExist(err) {
			t.Error("credentials file should be removed on close")
		}
	})

	t.Run("s3 backend", func(t *testing.T) {
		cfg := base()
		cfg.TikTok.Source = config.SourceApify
		cfg.TikTok.ApifyToken = "apify"
		cfg.Archive.Backend = config.ArchiveS3
		cfg.Archive.S3.Endpoint = "localhost:9000"
		cfg.Archive.S3.Bucket = "videos"
		app, err := NewApp(context.Background(), cfg, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer app.Close()
		if app.Archiver == nil {
			t.Error("expected S3 archiver")
		}
	})

	t.Run("bad drive credentials", func(t *testing.T) {
		cfg := base()
		cfg.Google.Credentials = "not json"
		cfg.Google.DriveFolderID = "folder-1"
		if _, err := NewApp(context.Background(), cfg, io.Discard); err == nil {
			t.Error("expected drive client error")
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"45s", "45s"},
		{"2m5s", "2m 5s"},
		{"1500ms", "2s"},
	}
	for _, tt := range tests {
		d, _ := time.ParseDuration(tt.in)
		if got := formatDuration(d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
