package httpgateway

import (
	"context"
	"net/http"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) StartCluster(ctx context.Context) (models.ClusterStatus, error) {
	return c.clusterCommand(ctx, "StartCluster", c.endpoint("query", "start-cluster"))
}

func (c *Client) StopCluster(ctx context.Context) (models.ClusterStatus, error) {
	return c.clusterCommand(ctx, "StopCluster", c.endpoint("query", "stop-cluster"))
}

func (c *Client) RestartCluster(ctx context.Context) (models.ClusterStatus, error) {
	return c.clusterCommand(ctx, "RestartCluster", c.endpoint("query", "restart-cluster"))
}

func (c *Client) ClearProcesses(ctx context.Context) (models.ClusterStatus, error) {
	return c.clusterCommand(ctx, "ClearProcesses", c.endpoint("query", "clear-java-processes"))
}

func (c *Client) SetDataset(ctx context.Context, dataset string) (models.ClusterStatus, error) {
	return c.clusterCommand(ctx, "SetDataset", c.endpoint("query", "set-dataset", dataset),
		attribute.String(otelhelper.DatasetKey, dataset))
}

// GetCurrentDataset returns the binding text as the backend reports it,
// banners included.
func (c *Client) GetCurrentDataset(ctx context.Context) (string, error) {
	var resp currentDatasetResponse

	err := c.do(ctx, request{
		op:     "GetCurrentDataset",
		method: http.MethodGet,
		path:   c.endpoint("query", "current-dataset"),
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Dataset, nil
}

// clusterCommand posts an empty object and maps a non-success status to a
// RemoteError; the backend answers cluster failures with HTTP 200.
func (c *Client) clusterCommand(ctx context.Context, op, path string, attrs ...attribute.KeyValue) (models.ClusterStatus, error) {
	var resp clusterStatusResponse

	err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        emptyObject(),
		contentType: "application/json",
		attrs:       attrs,
	}, &resp)
	if err != nil {
		return models.ClusterStatus{}, err
	}

	status := models.ClusterStatus{
		Status:  resp.Status,
		Message: resp.Message,
		Output:  resp.Output,
	}

	if !resp.Status.IsSuccess() {
		return status, gateway.NewRemoteError(op, http.StatusOK, resp.Message)
	}

	return status, nil
}
