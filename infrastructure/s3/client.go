package s3

import (
	"context"
	"fmt"
	"path"
	"strings"

	"reels-relay/domain/archive"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectPutter is the subset of *minio.Client used for archiving
// This allows mocking the S3 API in tests
type ObjectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Options configure the S3 connection
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Client implements archive.Uploader for S3-compatible object storage
type Client struct {
	putter ObjectPutter
	bucket string
	prefix string
}

// NewClient creates a minio-backed client for the configured endpoint
func NewClient(opts Options) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create S3 client for %s: %w", opts.Endpoint, err)
	}
	return NewClientWithPutter(mc, opts.Bucket, opts.Prefix), nil
}

// NewClientWithPutter creates a client around an existing putter (for testing)
func NewClientWithPutter(putter ObjectPutter, bucket, prefix string) *Client {
	return &Client{
		putter: putter,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// objectName joins the key prefix, the request folder and the file name
func (c *Client) objectName(req archive.UploadRequest) string {
	parts := []string{}
	if c.prefix != "" {
		parts = append(parts, c.prefix)
	}
	if folder := strings.Trim(req.FolderID, "/"); folder != "" {
		parts = append(parts, folder)
	}
	parts = append(parts, req.FileName)
	return path.Join(parts...)
}

// Upload implements archive.Uploader. The returned FileID is bucket/key.
func (c *Client) Upload(ctx context.Context, req archive.UploadRequest) (*archive.UploadResult, error) {
	key := c.objectName(req)

	info, err := c.putter.FPutObject(ctx, c.bucket, key, req.LocalPath, minio.PutObjectOptions{
		ContentType: req.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to s3://%s/%s: %w", req.FileName, c.bucket, key, err)
	}

	return &archive.UploadResult{
		FileID:   c.bucket + "/" + info.Key,
		FileName: req.FileName,
		Size:     info.Size,
	}, nil
}

// Ensure Client implements archive.Uploader
var _ archive.Uploader = (*Client)(nil)
