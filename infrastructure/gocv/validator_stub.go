//go:build !gocv

package gocv

import (
	"context"
	"errors"

	"reels-relay/domain/video"
)

// ErrUnavailable is returned when the binary was built without OpenCV
var ErrUnavailable = errors.New("gocv validation requires a -tags=gocv build with OpenCV installed")

// Validator is a stub when OpenCV is not available
type Validator struct{}

// NewValidator creates a stub validator (requires building with -tags=gocv)
func NewValidator() *Validator {
	return &Validator{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return false
}

// Validate returns an error indicating OpenCV is not available
func (v *Validator) Validate(ctx context.Context, path string) error {
	return ErrUnavailable
}

// Ensure Validator implements video.Validator
var _ video.Validator = (*Validator)(nil)
