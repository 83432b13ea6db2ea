package archive

// UploadRequest contains the parameters needed to archive a local file
type UploadRequest struct {
	LocalPath string // Full path to the local file
	FileName  string // Target name in the storage location
	FolderID  string // Target folder (Drive) or key prefix (S3)
	MimeType  string // MIME type of the file
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID   string // Remote identifier (Drive file ID or bucket/key)
	FileName string // Name of the uploaded file
	Size     int64  // Size of the uploaded file in bytes
}

// MimeTypeMP4 is the MIME type of every archived video
const MimeTypeMP4 = "video/mp4"
