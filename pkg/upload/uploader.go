// Package upload validates raw RDF files before handing them to the backend.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/services"
	"github.com/dustin/go-humanize"
)

// AllowedExtensions are the RDF serializations the pipeline reads.
var AllowedExtensions = []string{".nt", ".ttl"}

var (
	ErrNoFiles = services.NewPreconditionError(
		"upload", "no_files", "Please select at least one file.")
	ErrUnsupportedFile = services.NewPreconditionError(
		"upload", "unsupported_file", "only .nt and .ttl files are accepted")
	ErrEmptyName = services.NewPreconditionError(
		"upload", "empty_file_name", "file name is required")
)

type Uploader struct {
	gateway gateway.FileGateway
	logger  *slog.Logger
}

func NewUploader(gw gateway.FileGateway, logger *slog.Logger) *Uploader {
	return &Uploader{
		gateway: gw,
		logger:  logger.With("module", "uploader"),
	}
}

// Supported reports whether name carries an accepted extension, ignoring case.
func Supported(name string) bool {
	return slices.Contains(AllowedExtensions, strings.ToLower(filepath.Ext(name)))
}

// Upload sends files to the backend. The whole batch is rejected if any file
// is unsupported.
func (u *Uploader) Upload(ctx context.Context, files []models.FileBlob) (models.UploadResult, error) {
	if len(files) == 0 {
		return models.UploadResult{}, ErrNoFiles
	}

	for _, file := range files {
		name := strings.TrimSpace(file.Name)
		if name == "" {
			return models.UploadResult{}, ErrEmptyName
		}

		if !Supported(name) {
			return models.UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
		}
	}

	result, err := u.gateway.UploadFiles(ctx, files)
	if err != nil {
		u.logger.ErrorContext(ctx, "Upload failed", "file_count", len(files), "error", err)

		return models.UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	u.logger.InfoContext(ctx, "Files uploaded",
		"file_count", result.FileCount,
		"total_size", humanize.IBytes(uint64(max(result.TotalSize, 0))),
	)

	return result, nil
}

func (u *Uploader) List(ctx context.Context) (models.FileListing, error) {
	listing, err := u.gateway.ListFiles(ctx)
	if err != nil {
		return models.FileListing{}, fmt.Errorf("list files: %w", err)
	}

	return listing, nil
}

// Clear removes every uploaded raw file from the backend.
func (u *Uploader) Clear(ctx context.Context) error {
	if err := u.gateway.ClearFiles(ctx); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}

	u.logger.InfoContext(ctx, "Uploaded files cleared")

	return nil
}
