package models

// Upload represents a spreadsheet stored on disk for the lifetime of one request.
type Upload struct {
	FileName   string `json:"file_name"`
	StoredPath string `json:"stored_path"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
}
