package httpgateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

const uploadField = "files"

// UploadFiles sends files as one multipart form, each under the "files" field.
func (c *Client) UploadFiles(ctx context.Context, files []models.FileBlob) (models.UploadResult, error) {
	var buf bytes.Buffer

	form := multipart.NewWriter(&buf)

	for _, file := range files {
		part, err := form.CreateFormFile(uploadField, file.Name)
		if err != nil {
			return models.UploadResult{}, gateway.WrapTransportError("UploadFiles", err)
		}

		if _, err := part.Write(file.Content); err != nil {
			return models.UploadResult{}, gateway.WrapTransportError("UploadFiles", err)
		}
	}

	if err := form.Close(); err != nil {
		return models.UploadResult{}, gateway.WrapTransportError("UploadFiles", fmt.Errorf("failed to encode form: %w", err))
	}

	var resp fileResponse

	err := c.do(ctx, request{
		op:          "UploadFiles",
		method:      http.MethodPost,
		path:        c.endpoint("files", "upload"),
		body:        &buf,
		contentType: form.FormDataContentType(),
		attrs:       []attribute.KeyValue{attribute.Int(otelhelper.FileCountKey, len(files))},
	}, &resp)
	if err != nil {
		return models.UploadResult{}, err
	}

	if !resp.Success {
		return models.UploadResult{}, gateway.NewRemoteError("UploadFiles", http.StatusOK, resp.Message)
	}

	return models.UploadResult{
		Message:   resp.Message,
		FileNames: append([]string{}, resp.FileNames...),
		TotalSize: resp.TotalSize,
		FileCount: resp.FileCount,
	}, nil
}

func (c *Client) ListFiles(ctx context.Context) (models.FileListing, error) {
	var resp fileResponse

	err := c.do(ctx, request{
		op:     "ListFiles",
		method: http.MethodGet,
		path:   c.endpoint("files", "list"),
	}, &resp)
	if err != nil {
		return models.FileListing{}, err
	}

	if !resp.Success {
		return models.FileListing{}, gateway.NewRemoteError("ListFiles", http.StatusOK, resp.Message)
	}

	return models.FileListing{
		Files:     append([]string{}, resp.FileNames...),
		FileCount: resp.FileCount,
		TotalSize: resp.TotalSize,
	}, nil
}

func (c *Client) ClearFiles(ctx context.Context) error {
	var resp fileResponse

	err := c.do(ctx, request{
		op:     "ClearFiles",
		method: http.MethodDelete,
		path:   c.endpoint("files", "clear"),
	}, &resp)
	if err != nil {
		return err
	}

	if !resp.Success {
		return gateway.NewRemoteError("ClearFiles", http.StatusOK, resp.Message)
	}

	return nil
}
