package archive

import "context"

// Uploader defines the interface for cloud storage uploads
// This is a port that can be implemented by different infrastructure adapters
type Uploader interface {
	// Upload stores the local file described by req and returns its remote identifier
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
