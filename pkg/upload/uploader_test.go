package upload

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/pqdag-console/pkg/gateway/gatewaytest"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(name string) models.FileBlob {
	content := []byte("<a> <b> <c> .\n")

	return models.FileBlob{Name: name, Size: int64(len(content)), Content: content}
}

func TestSupported(t *testing.T) {
	tests := map[string]bool{
		"watdiv.nt":     true,
		"lubm.TTL":      true,
		"dump.Nt":       true,
		"notes.txt":     false,
		"archive.nt.gz": false,
		"nt":            false,
		"data.turtle":   false,
	}

	for name, want := range tests {
		assert.Equal(t, want, Supported(name), name)
	}
}

func TestUploader_Upload(t *testing.T) {
	gw := &gatewaytest.Fake{}
	u := NewUploader(gw, slog.Default())

	result, err := u.Upload(context.Background(), []models.FileBlob{blob("a.nt"), blob("b.ttl")})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FileCount)
	assert.Equal(t, []string{"a.nt", "b.ttl"}, result.FileNames)
	assert.Equal(t, int64(28), result.TotalSize)
}

func TestUploader_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		files []models.FileBlob
		want  error
	}{
		{name: "no files", files: nil, want: ErrNoFiles},
		{name: "unsupported extension", files: []models.FileBlob{blob("a.nt"), blob("b.csv")}, want: ErrUnsupportedFile},
		{name: "missing name", files: []models.FileBlob{blob(" ")}, want: ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &gatewaytest.Fake{}
			u := NewUploader(gw, slog.Default())

			_, err := u.Upload(context.Background(), tt.files)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, services.IsPreconditionError(err))
			assert.Equal(t, 0, gw.Calls("UploadFiles"))
		})
	}
}

func TestUploader_NoFilesMessage(t *testing.T) {
	u := NewUploader(&gatewaytest.Fake{}, slog.Default())

	_, err := u.Upload(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "upload: Please select at least one file.", err.Error())
}

func TestUploader_ListAndClear(t *testing.T) {
	gw := &gatewaytest.Fake{
		ListFilesFunc: func(context.Context) (models.FileListing, error) {
			return models.FileListing{Files: []string{"a.nt"}, FileCount: 1, TotalSize: 2048}, nil
		},
	}
	u := NewUploader(gw, slog.Default())
	ctx := context.Background()

	listing, err := u.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.nt"}, listing.Files)

	require.NoError(t, u.Clear(ctx))
	assert.Equal(t, 1, gw.Calls("ClearFiles"))

	gw.ClearFilesFunc = func(context.Context) error { return errors.New("permission denied") }
	require.Error(t, u.Clear(ctx))
}
