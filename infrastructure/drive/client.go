package drive

import (
	"context"
	"fmt"
	"io"
	"os"

	"reels-relay/domain/archive"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultChunkSize is the resumable upload chunk size
const DefaultChunkSize = 8 * 1024 * 1024

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	CreateFile(ctx context.Context, file *drive.File, media io.Reader, mimeType string, chunkSize int) (*drive.File, error)
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// CreateFile uploads media with the given metadata using a chunked, resumable session
func (s *GoogleDriveService) CreateFile(ctx context.Context, file *drive.File, media io.Reader, mimeType string, chunkSize int) (*drive.File, error) {
	return s.service.Files.Create(file).
		Media(media, googleapi.ContentType(mimeType), googleapi.ChunkSize(chunkSize)).
		Fields("id", "name", "size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// Client implements archive.Uploader using Google Drive API
type Client struct {
	driveService DriveService
	chunkSize    int
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// WithChunkSize sets the resumable upload chunk size in bytes
func WithChunkSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// NewClient creates a new Google Drive client
// If no options are provided, it initializes a real Google Drive service
// from the credentials file, scoped to files this app creates.
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := &Client{chunkSize: DefaultChunkSize}

	for _, opt := range opts {
		opt(c)
	}

	// If no custom drive service was provided, create a real one
	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// Upload implements archive.Uploader
func (c *Client) Upload(ctx context.Context, req archive.UploadRequest) (*archive.UploadResult, error) {
	f, err := os.Open(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", req.LocalPath, err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     req.FileName,
		MimeType: req.MimeType,
	}
	if req.FolderID != "" {
		meta.Parents = []string{req.FolderID}
	}

	created, err := c.driveService.CreateFile(ctx, meta, f, req.MimeType, c.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", req.FileName, err)
	}
	if created.Id == "" {
		return nil, fmt.Errorf("upload of %s returned no file id", req.FileName)
	}

	size := created.Size
	if size == 0 {
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
	}

	return &archive.UploadResult{
		FileID:   created.Id,
		FileName: req.FileName,
		Size:     size,
	}, nil
}

// Ensure Client implements archive.Uploader
var _ archive.Uploader = (*Client)(nil)
