//go:build gocv

package gocv

import (
	"context"
	"fmt"

	"reels-relay/domain/video"

	"gocv.io/x/gocv"
)

// Validator implements video.Validator by opening the file with OpenCV
type Validator struct{}

// NewValidator creates an OpenCV-backed validator
func NewValidator() *Validator {
	return &Validator{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return true
}

// Validate opens the file as a capture device and closes it again
func (v *Validator) Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return fmt.Errorf("opencv could not open %s: %w", path, err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return fmt.Errorf("opencv could not open %s as video", path)
	}
	return nil
}

// Ensure Validator implements video.Validator
var _ video.Validator = (*Validator)(nil)
