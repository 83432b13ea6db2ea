package video

import "context"

// Fetcher defines the interface for downloading an account's most recent videos
// This is a port that can be implemented by different infrastructure adapters
type Fetcher interface {
	// FetchLatest downloads up to max of the account's most recent videos.
	// Videos are returned in the order the platform lists them. An account
	// without videos yields an empty slice and no error.
	FetchLatest(ctx context.Context, username string, max int) ([]Video, error)
}
