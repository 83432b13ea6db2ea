package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"

	"reels-relay/domain/video"
	"reels-relay/infrastructure/command"
)

// Prober implements video.Validator using ffprobe
type Prober struct {
	ffprobePath string
	runner      command.Runner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner command.Runner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based validator
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// probeResult is the subset of ffprobe's JSON output the validator reads
type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// Validate implements video.Validator
func (p *Prober) Validate(ctx context.Context, path string) error {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_type:format=format_name",
		"-of", "json",
		path,
	}

	out, err := p.runner.Output(ctx, p.ffprobePath, args...)
	if err != nil {
		return fmt.Errorf("ffprobe could not open %s: %w", path, err)
	}

	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	if result.Format.FormatName == "" {
		return fmt.Errorf("%s has no recognizable container format", path)
	}

	for _, s := range result.Streams {
		if s.CodecType == "video" {
			return nil
		}
	}
	return fmt.Errorf("%s has no video stream", path)
}

// VerifyInstalled checks that ffprobe is available
func (p *Prober) VerifyInstalled(ctx context.Context) error {
	_, err := p.runner.Output(ctx, p.ffprobePath, "-version")
	if err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

// Ensure Prober implements video.Validator
var _ video.Validator = (*Prober)(nil)
