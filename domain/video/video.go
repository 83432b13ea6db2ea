package video

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultFetchCount is how many recent videos a fetch asks for when no count is given
const DefaultFetchCount = 10

// Extension is the file extension of every downloaded video
const Extension = ".mp4"

// Video is a downloaded source video on local disk
type Video struct {
	ID   string // Source platform video ID
	Path string // Local file path, always <dir>/<ID>.mp4
}

// FileName returns the local file name for a source video ID
func FileName(id string) string {
	return id + Extension
}

// PathFor returns the local path for a source video ID inside dir
func PathFor(dir, id string) string {
	return filepath.Join(dir, FileName(id))
}

// ValidateID rejects IDs that cannot be used as a plain file name
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty video id")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid video id %q", id)
	}
	return nil
}

// Paths returns the local paths of the given videos in order
func Paths(videos []Video) []string {
	paths := make([]string, 0, len(videos))
	for _, v := range videos {
		paths = append(paths, v.Path)
	}
	return paths
}
