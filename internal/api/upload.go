package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chartgen/internal/models"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10 MB
	// multipartOverhead leaves room for boundaries and the chartType field.
	multipartOverhead = 1 << 20
	uploadField       = "datafile"
)

var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xltx": {},
	".xltm": {},
	".csv":  {},
}

// receiveUpload stores the multipart file on disk under a random name. The
// caller owns the returned file and must remove it.
func (h *Handler) receiveUpload(c *gin.Context) (*models.Upload, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+multipartOverhead)
	file, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload too large: %w", err)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
	}
	if file.Size > h.opts.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload too large: %d bytes", file.Size)
	}

	original := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := allowedExtensions[ext]; !ok {
		// let the extractor decide; most spreadsheets are zip containers
		ext = ".xlsx"
	}
	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("create upload directory: %w", err)
	}
	destPath := filepath.Join(h.opts.UploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		_ = os.Remove(destPath)
		return nil, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err)
	}
	return &models.Upload{
		FileName:   original,
		StoredPath: destPath,
		MimeType:   file.Header.Get("Content-Type"),
		Size:       file.Size,
	}, http.StatusOK, nil
}

// removeUpload deletes the stored file. Failures are logged, never returned.
func (h *Handler) removeUpload(upload *models.Upload) {
	if upload == nil || upload.StoredPath == "" {
		return
	}
	if err := os.Remove(upload.StoredPath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("remove upload failed", "path", upload.StoredPath, "error", err)
	}
}
