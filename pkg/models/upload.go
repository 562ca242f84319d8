package models

// FileBlob is one file handed to the gateway for upload.
type FileBlob struct {
	Name    string
	Size    int64
	Content []byte
}

// UploadResult describes what the backend accepted.
type UploadResult struct {
	Message   string   `json:"message"`
	FileNames []string `json:"file_names"`
	TotalSize int64    `json:"total_size"`
	FileCount int      `json:"file_count"`
}

// FileListing is the raw data currently stored on the backend.
type FileListing struct {
	Files     []string `json:"files"`
	FileCount int      `json:"file_count"`
	TotalSize int64    `json:"total_size"`
}
