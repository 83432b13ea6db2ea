package filesystem

import (
	"fmt"
	"os"

	"reels-relay/domain/video"
)

// Checker implements video.FileChecker and video.FileRemover using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the file; a file that is already gone is not an error
func (c *Checker) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Ensure Checker implements video.FileChecker and video.FileRemover
var (
	_ video.FileChecker = (*Checker)(nil)
	_ video.FileRemover = (*Checker)(nil)
)
