package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"reels-relay/domain/job"

	"github.com/labstack/echo/v4"
	"github.com/op/go-logging"
)

const shutdownTimeout = 5 * time.Second

// ReportSource provides the most recent run report, nil before the first run
type ReportSource interface {
	Last() *job.Report
}

// Server is a read-only HTTP endpoint exposing liveness and the last run
type Server struct {
	addr   string
	source ReportSource
	echo   *echo.Echo
	log    *logging.Logger
}

// NewServer creates a status server listening on addr
func NewServer(addr string, source ReportSource, log *logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{addr: addr, source: source, echo: e, log: log}
	e.GET("/healthz", s.healthHandler)
	e.GET("/runs/last", s.lastRunHandler)
	return s
}

// Handler returns the HTTP handler, for mounting or testing
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.log.Warningf("Status server shutdown: %v", err)
		}
	}()

	s.log.Infof("Status server listening on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) lastRunHandler(c echo.Context) error {
	report := s.source.Last()
	if report == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no run yet"})
	}
	return c.JSON(http.StatusOK, newReportView(report))
}

// reportView is the JSON shape of a run report
type reportView struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Fetched    int           `json:"fetched"`
	Published  int           `json:"published"`
	Outcomes   []outcomeView `json:"outcomes"`
}

type outcomeView struct {
	VideoID   string `json:"video_id"`
	Path      string `json:"path"`
	ArchiveID string `json:"archive_id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	Step      string `json:"failed_step,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newReportView(r *job.Report) reportView {
	view := reportView{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Fetched:    r.Fetched,
		Published:  r.Published(),
		Outcomes:   make([]outcomeView, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		ov := outcomeView{
			VideoID:   o.Video.ID,
			Path:      o.Video.Path,
			ArchiveID: o.ArchiveID,
			PostID:    o.PostID,
		}
		if o.Err != nil {
			ov.Step = string(o.Err.Step)
			ov.Error = o.Err.Err.Error()
		}
		view.Outcomes = append(view.Outcomes, ov)
	}
	return view
}
