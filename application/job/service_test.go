package job

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"reels-relay/domain/archive"
	"reels-relay/domain/job"
	"reels-relay/domain/publish"
	"reels-relay/domain/video"
	"reels-relay/infrastructure/logging"
)

// --- Mock implementations for testing ---

// mockFetcher implements video.Fetcher for testing
type mockFetcher struct {
	ids        []string
	shouldFail bool
	failError  error
	gotUser    string
	gotMax     int
}

func (m *mockFetcher) FetchLatest(ctx context.Context, username string, max int) ([]video.Video, error) {
	m.gotUser = username
	m.gotMax = max
	if m.shouldFail {
		return nil, m.failError
	}
	videos := make([]video.Video, 0, len(m.ids))
	for _, id := range m.ids {
		videos = append(videos, video.Video{ID: id, Path: video.PathFor("/tmp/dl", id)})
	}
	return videos, nil
}

// mockValidator implements video.Validator for testing
type mockValidator struct {
	invalid map[string]bool
	calls   []string
}

func (m *mockValidator) Validate(ctx context.Context, path string) error {
	m.calls = append(m.calls, path)
	if m.invalid[path] {
		return errors.New("moov atom not found")
	}
	return nil
}

// mockArchiver implements Archiver for testing
type mockArchiver struct {
	shouldFail bool
	failError  error
	calls      []string
}

func (m *mockArchiver) Archive(ctx context.Context, path string) (*archive.UploadResult, error) {
	m.calls = append(m.calls, path)
	if m.shouldFail {
		return nil, m.failError
	}
	return &archive.UploadResult{FileID: "drive-" + path, FileName: path}, nil
}

// mockPublisher implements publish.Publisher for testing
type mockPublisher struct {
	failFor  map[string]error
	calls    []string
	captions []string
}

func (m *mockPublisher) Publish(ctx context.Context, path, caption string) (*publish.Result, error) {
	m.calls = append(m.calls, path)
	m.captions = append(m.captions, caption)
	if err, ok := m.failFor[path]; ok {
		return nil, err
	}
	return &publish.Result{CreationID: "c-" + path, PostID: fmt.Sprintf("post-%d", len(m.calls))}, nil
}

// mockRemover implements video.FileRemover for testing
type mockRemover struct {
	removed []string
}

func (m *mockRemover) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

type fixture struct {
	fetcher   *mockFetcher
	validator *mockValidator
	archiver  *mockArchiver
	publisher *mockPublisher
	remover   *mockRemover
}

func newFixture(ids ...string) *fixture {
	return &fixture{
		fetcher:   &mockFetcher{ids: ids},
		validator: &mockValidator{invalid: map[string]bool{}},
		archiver:  &mockArchiver{},
		publisher: &mockPublisher{failFor: map[string]error{}},
		remover:   &mockRemover{},
	}
}

func (f *fixture) service(settings Settings, opts ...Option) *Service {
	return NewService(f.fetcher, f.validator, f.publisher, f.remover, settings, logging.Discard(), opts...)
}

func path(id string) string {
	return video.PathFor("/tmp/dl", id)
}

func TestRun_NoVideos(t *testing.T) {
	f := newFixture()
	svc := f.service(Settings{Username: "alice"}, WithArchiver(f.archiver))

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched != 0 || len(report.Outcomes) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if len(f.archiver.calls) != 0 {
		t.Errorf("archive called %d times", len(f.archiver.calls))
	}
	if len(f.publisher.calls) != 0 {
		t.Errorf("publish called %d times", len(f.publisher.calls))
	}
}

func TestRun_FetchFailureAborts(t *testing.T) {
	f := newFixture()
	f.fetcher.shouldFail = true
	f.fetcher.failError = errors.New("account is private")
	svc := f.service(Settings{Username: "alice"})

	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, f.fetcher.failError) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
	if report == nil || report.RunID == "" {
		t.Error("expected a report with a run id")
	}
	if len(f.validator.calls) != 0 || len(f.publisher.calls) != 0 {
		t.Error("no step should run after a failed fetch")
	}
}

func TestRun_ProcessesAtMostTwo(t *testing.T) {
	f := newFixture("a", "b", "c")
	svc := f.service(Settings{Username: "alice"})

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.fetcher.gotUser != "alice" || f.fetcher.gotMax != video.DefaultFetchCount {
		t.Errorf("fetch called with (%q, %d)", f.fetcher.gotUser, f.fetcher.gotMax)
	}
	if report.Fetched != 3 {
		t.Errorf("expected 3 fetched, got %d", report.Fetched)
	}
	want := []string{path("a"), path("b")}
	if fmt.Sprint(f.publisher.calls) != fmt.Sprint(want) {
		t.Errorf("published %v, want %v", f.publisher.calls, want)
	}
	for _, c := range f.publisher.captions {
		if c != "Автор: @_from_tiktok" {
			t.Errorf("unexpected caption %q", c)
		}
	}
	if len(f.archiver.calls) != 0 {
		t.Errorf("archiver not configured but called %d times", len(f.archiver.calls))
	}
	if report.Published() != 2 {
		t.Errorf("expected 2 published, got %d", report.Published())
	}
	if len(f.remover.removed) != 3 {
		t.Errorf("expected all 3 fetched files removed, got %v", f.remover.removed)
	}
}

func TestRun_ArchivesWhenEnabled(t *testing.T) {
	f := newFixture("a", "b")
	svc := f.service(Settings{Username: "alice", Caption: "hi"}, WithArchiver(f.archiver))

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.archiver.calls) != 2 {
		t.Fatalf("expected 2 archive calls, got %d", len(f.archiver.calls))
	}
	if report.Outcomes[0].ArchiveID != "drive-"+path("a") {
		t.Errorf("unexpected archive id %q", report.Outcomes[0].ArchiveID)
	}
	if f.publisher.captions[0] != "hi" {
		t.Errorf("expected custom caption, got %q", f.publisher.captions[0])
	}
}

func TestRun_StepFailuresAreIsolated(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(f *fixture)
		wantStep      job.Step
		wantSentinel  error
		wantPublished int
		wantCalls     int
	}{
		{
			name:          "malformed first file",
			setup:         func(f *fixture) { f.validator.invalid[path("a")] = true },
			wantStep:      job.StepValidate,
			wantPublished: 1,
			wantCalls:     1,
		},
		{
			name: "archive failure",
			setup: func(f *fixture) {
				f.archiver.shouldFail = true
				f.archiver.failError = errors.New("quota exceeded")
			},
			wantStep:      job.StepArchive,
			wantPublished: 0,
			wantCalls:     0,
		},
		{
			name: "no creation id",
			setup: func(f *fixture) {
				f.publisher.failFor[path("a")] = fmt.Errorf("%w: {\"error\": \"invalid_token\"}", publish.ErrNoCreationID)
			},
			wantStep:      job.StepPublish,
			wantSentinel:  publish.ErrNoCreationID,
			wantPublished: 1,
			wantCalls:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("a", "b")
			tt.setup(f)
			svc := f.service(Settings{Username: "alice"}, WithArchiver(f.archiver))

			report, err := svc.Run(context.Background())
			if err != nil {
				t.Fatalf("step failures must not fail the run: %v", err)
			}
			if len(report.Outcomes) != 2 {
				t.Fatalf("expected 2 outcomes, got %d", len(report.Outcomes))
			}

			first := report.Outcomes[0].Err
			if first == nil {
				t.Fatal("expected first outcome to fail")
			}
			if first.Step != tt.wantStep {
				t.Errorf("expected step %s, got %s", tt.wantStep, first.Step)
			}
			if first.Path != path("a") {
				t.Errorf("expected path %s, got %s", path("a"), first.Path)
			}
			if tt.wantSentinel != nil && !errors.Is(first, tt.wantSentinel) {
				t.Errorf("expected %v in chain, got %v", tt.wantSentinel, first)
			}
			if report.Published() != tt.wantPublished {
				t.Errorf("expected %d published, got %d", tt.wantPublished, report.Published())
			}
			if len(f.publisher.calls) != tt.wantCalls {
				t.Errorf("expected %d publish calls, got %d", tt.wantCalls, len(f.publisher.calls))
			}
		})
	}
}

func TestRun_KeepDownloads(t *testing.T) {
	f := newFixture("a")
	svc := f.service(Settings{Username: "alice", KeepDownloads: true})

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.remover.removed) != 0 {
		t.Errorf("expected no removals, got %v", f.remover.removed)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture("a", "b")
	svc := f.service(Settings{Username: "alice"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.publisher.calls) != 0 {
		t.Errorf("expected no publish calls, got %d", len(f.publisher.calls))
	}
	if len(f.remover.removed) != 2 {
		t.Errorf("fetched files must still be cleaned up, got %v", f.remover.removed)
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	f := newFixture("a")
	history := NewHistory()
	start := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks-1) * time.Minute)
	}
	svc := f.service(Settings{Username: "alice"}, WithHistory(history), WithClock(clock))

	if history.Last() != nil {
		t.Fatal("expected empty history before the first run")
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.Last() != report {
		t.Error("expected history to hold the run report")
	}
	if report.Duration() != time.Minute {
		t.Errorf("expected 1m duration, got %s", report.Duration())
	}
	if len(report.RunID) != 36 {
		t.Errorf("expected uuid run id, got %q", report.RunID)
	}
}
