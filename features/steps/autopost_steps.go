//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apparchive "reels-relay/application/archive"
	appjob "reels-relay/application/job"
	"reels-relay/domain/archive"
	"reels-relay/domain/job"
	"reels-relay/domain/publish"
	"reels-relay/domain/video"
	"reels-relay/infrastructure/filesystem"
	"reels-relay/infrastructure/instagram"
	"reels-relay/infrastructure/logging"

	"github.com/cucumber/godog"
)

// fileFetcher writes placeholder videos into a directory
type fileFetcher struct {
	dir string
	ids []string
}

func (f *fileFetcher) FetchLatest(ctx context.Context, username string, max int) ([]video.Video, error) {
	var videos []video.Video
	for _, id := range f.ids {
		if len(videos) == max {
			break
		}
		path := video.PathFor(f.dir, id)
		if err := os.WriteFile(path, []byte("video "+id), 0644); err != nil {
			return nil, err
		}
		videos = append(videos, video.Video{ID: id, Path: path})
	}
	return videos, nil
}

type listValidator struct {
	malformed map[string]bool
}

func (v *listValidator) Validate(ctx context.Context, path string) error {
	if v.malformed[filepath.Base(path)] {
		return errors.New("no video stream")
	}
	return nil
}

type countingUploader struct {
	calls int
}

func (u *countingUploader) Upload(ctx context.Context, req archive.UploadRequest) (*archive.UploadResult, error) {
	u.calls++
	return &archive.UploadResult{FileID: fmt.Sprintf("%s/%s", req.FolderID, req.FileName), FileName: req.FileName}, nil
}

// fakeGraph plays the Instagram Graph API for one scenario
type fakeGraph struct {
	mu           sync.Mutex
	createBody   string
	createCalls  int
	publishCalls int
	captions     []string
	containers   map[string]string
	published    []string
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case r.URL.Path == "/me/media":
		g.createCalls++
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.captions = append(g.captions, r.FormValue("caption"))
		if g.createBody != "" {
			fmt.Fprint(w, g.createBody)
			return
		}
		_, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := fmt.Sprintf("c-%d", g.createCalls)
		g.containers[id] = header.Filename
		fmt.Fprintf(w, `{"id":%q}`, id)
	case r.URL.Path == "/me/media_publish":
		g.publishCalls++
		r.ParseForm()
		g.published = append(g.published, g.containers[r.PostForm.Get("creation_id")])
		fmt.Fprintf(w, `{"id":"p-%d"}`, g.publishCalls)
	default:
		fmt.Fprint(w, `{"status_code":"FINISHED"}`)
	}
}

type autopostContext struct {
	username  string
	token     string
	folderID  string
	dir       string
	fetcher   *fileFetcher
	validator *listValidator
	uploader  *countingUploader
	graph     *fakeGraph
	report    *job.Report
	runErr    error
}

func newAutopostContext() *autopostContext {
	return &autopostContext{
		fetcher:   &fileFetcher{},
		validator: &listValidator{malformed: map[string]bool{}},
		uploader:  &countingUploader{},
		graph:     &fakeGraph{containers: map[string]string{}},
	}
}

func InitializeAutopostScenario(ctx *godog.ScenarioContext) {
	testCtx := newAutopostContext()

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*testCtx = *newAutopostContext()
		dir, err := os.MkdirTemp("", "reels-relay-features-*")
		if err != nil {
			return c, err
		}
		testCtx.dir = dir
		testCtx.fetcher.dir = dir
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.dir != "" {
			os.RemoveAll(testCtx.dir)
		}
		return c, nil
	})

	ctx.Step(`^the source account "([^"]*)" and the Instagram token "([^"]*)"$`, testCtx.theSourceAccountAndToken)
	ctx.Step(`^no storage location is configured$`, testCtx.noStorageLocationIsConfigured)
	ctx.Step(`^the storage folder "([^"]*)" is configured$`, testCtx.theStorageFolderIsConfigured)
	ctx.Step(`^the account has videos "([^"]*)"$`, testCtx.theAccountHasVideos)
	ctx.Step(`^the account has no videos$`, testCtx.theAccountHasNoVideos)
	ctx.Step(`^the file "([^"]*)" is malformed$`, testCtx.theFileIsMalformed)
	ctx.Step(`^Instagram answers the upload with '([^']*)'$`, testCtx.instagramAnswersTheUploadWith)
	ctx.Step(`^a run executes$`, testCtx.aRunExecutes)
	ctx.Step(`^the run should succeed$`, testCtx.theRunShouldSucceed)
	ctx.Step(`^(\d+) videos? should be published$`, testCtx.videosShouldBePublished)
	ctx.Step(`^the archiver should have been called (\d+) times?$`, testCtx.theArchiverShouldHaveBeenCalled)
	ctx.Step(`^the publisher should have been called (\d+) times?$`, testCtx.thePublisherShouldHaveBeenCalled)
	ctx.Step(`^every publish should use the caption "([^"]*)"$`, testCtx.everyPublishShouldUseTheCaption)
	ctx.Step(`^the published files should be "([^"]*)"$`, testCtx.thePublishedFilesShouldBe)
	ctx.Step(`^no downloaded files should remain$`, testCtx.noDownloadedFilesShouldRemain)
	ctx.Step(`^"([^"]*)" should fail at the "([^"]*)" step$`, testCtx.shouldFailAtTheStep)
	ctx.Step(`^the failure for "([^"]*)" should be a missing creation id$`, testCtx.theFailureShouldBeAMissingCreationID)
	ctx.Step(`^the publish endpoint should not have been called$`, testCtx.thePublishEndpointShouldNotHaveBeenCalled)
}

func (c *autopostContext) theSourceAccountAndToken(username, token string) error {
	c.username = username
	c.token = token
	return nil
}

func (c *autopostContext) noStorageLocationIsConfigured() error {
	c.folderID = ""
	return nil
}

func (c *autopostContext) theStorageFolderIsConfigured(folderID string) error {
	c.folderID = folderID
	return nil
}

func (c *autopostContext) theAccountHasVideos(ids string) error {
	c.fetcher.ids = strings.Split(ids, ",")
	return nil
}

func (c *autopostContext) theAccountHasNoVideos() error {
	c.fetcher.ids = nil
	return nil
}

func (c *autopostContext) theFileIsMalformed(name string) error {
	c.validator.malformed[name] = true
	return nil
}

func (c *autopostContext) instagramAnswersTheUploadWith(body string) error {
	c.graph.createBody = body
	return nil
}

func (c *autopostContext) aRunExecutes() error {
	srv := httptest.NewServer(c.graph)
	defer srv.Close()

	publisher := instagram.NewClient(c.token,
		instagram.WithGraphURL(srv.URL),
		instagram.WithPollPolicy(instagram.PollPolicy{MaxAttempts: 1}),
		instagram.WithLogger(logging.Discard()),
	)

	var opts []appjob.Option
	if c.folderID != "" {
		opts = append(opts, appjob.WithArchiver(apparchive.NewService(c.uploader, c.folderID)))
	}

	svc := appjob.NewService(
		c.fetcher,
		c.validator,
		publisher,
		filesystem.NewChecker(),
		appjob.Settings{Username: c.username},
		logging.Discard(),
		opts...,
	)
	c.report, c.runErr = svc.Run(context.Background())
	return nil
}

func (c *autopostContext) theRunShouldSucceed() error {
	if c.runErr != nil {
		return fmt.Errorf("expected run to succeed, got: %v", c.runErr)
	}
	return nil
}

func (c *autopostContext) videosShouldBePublished(n int) error {
	if got := c.report.Published(); got != n {
		return fmt.Errorf("expected %d published, got %d", n, got)
	}
	return nil
}

func (c *autopostContext) theArchiverShouldHaveBeenCalled(n int) error {
	if c.uploader.calls != n {
		return fmt.Errorf("expected %d archive calls, got %d", n, c.uploader.calls)
	}
	return nil
}

func (c *autopostContext) thePublisherShouldHaveBeenCalled(n int) error {
	if c.graph.createCalls != n {
		return fmt.Errorf("expected %d publish calls, got %d", n, c.graph.createCalls)
	}
	return nil
}

func (c *autopostContext) everyPublishShouldUseTheCaption(caption string) error {
	if len(c.graph.captions) == 0 {
		return fmt.Errorf("nothing was published")
	}
	for _, got := range c.graph.captions {
		if got != caption {
			return fmt.Errorf("expected caption %q, got %q", caption, got)
		}
	}
	return nil
}

func (c *autopostContext) thePublishedFilesShouldBe(names string) error {
	if got := strings.Join(c.graph.published, ","); got != names {
		return fmt.Errorf("expected published files %q, got %q", names, got)
	}
	return nil
}

func (c *autopostContext) noDownloadedFilesShouldRemain() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected empty download directory, found %d files", len(entries))
	}
	return nil
}

func (c *autopostContext) outcomeFor(name string) (*job.Outcome, error) {
	for i := range c.report.Outcomes {
		if filepath.Base(c.report.Outcomes[i].Video.Path) == name {
			return &c.report.Outcomes[i], nil
		}
	}
	return nil, fmt.Errorf("no outcome for %s", name)
}

func (c *autopostContext) shouldFailAtTheStep(name, step string) error {
	o, err := c.outcomeFor(name)
	if err != nil {
		return err
	}
	if o.Err == nil {
		return fmt.Errorf("expected %s to fail", name)
	}
	if string(o.Err.Step) != step {
		return fmt.Errorf("expected %s to fail at %s, failed at %s", name, step, o.Err.Step)
	}
	return nil
}

func (c *autopostContext) theFailureShouldBeAMissingCreationID(name string) error {
	o, err := c.outcomeFor(name)
	if err != nil {
		return err
	}
	if o.Err == nil || !errors.Is(o.Err, publish.ErrNoCreationID) {
		return fmt.Errorf("expected ErrNoCreationID, got %v", o.Err)
	}
	return nil
}

func (c *autopostContext) thePublishEndpointShouldNotHaveBeenCalled() error {
	if c.graph.publishCalls != 0 {
		return fmt.Errorf("expected no publish calls, got %d", c.graph.publishCalls)
	}
	return nil
}
