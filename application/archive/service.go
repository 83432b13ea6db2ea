package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reels-relay/domain/archive"
)

// Service handles archival uploads of downloaded videos
type Service struct {
	uploader archive.Uploader
	folderID string
}

// NewService creates a new archive service targeting folderID
func NewService(uploader archive.Uploader, folderID string) *Service {
	return &Service{
		uploader: uploader,
		folderID: folderID,
	}
}

// Archive uploads a local video and returns the remote result
func (s *Service) Archive(ctx context.Context, filePath string) (*archive.UploadResult, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	fileName := filepath.Base(filePath)
	req := archive.UploadRequest{
		LocalPath: filePath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  archive.MimeTypeMP4,
	}

	result, err := s.uploader.Upload(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", fileName, err)
	}

	return result, nil
}
