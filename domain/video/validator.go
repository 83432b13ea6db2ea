package video

import "context"

// Validator checks that a local file is a readable video container
type Validator interface {
	// Validate opens the file as a video and closes it again
	Validate(ctx context.Context, path string) error
}

// FileChecker defines the interface for checking local files
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// FileRemover deletes local files once a run no longer needs them
type FileRemover interface {
	Remove(path string) error
}
