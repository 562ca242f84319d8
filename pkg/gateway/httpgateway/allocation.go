package httpgateway

import (
	"context"
	"net/http"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) StartAllocation(ctx context.Context, dataset string, workers int, cleanAfter bool) (models.AllocationResult, error) {
	return c.allocation(ctx, "StartAllocation", c.endpoint("allocation", "start"), allocationRequest{
		DatasetName: dataset,
		NumMachines: workers,
		CleanAfter:  cleanAfter,
	}, attribute.Int(otelhelper.WorkersKey, workers))
}

func (c *Client) DistributeFragments(ctx context.Context, dataset string, cleanAfter bool) (models.AllocationResult, error) {
	return c.allocation(ctx, "DistributeFragments", c.endpoint("allocation", "distribute"), allocationRequest{
		DatasetName: dataset,
		CleanAfter:  cleanAfter,
	})
}

func (c *Client) GetAllocationResults(ctx context.Context, dataset string) (models.AllocationResult, error) {
	var resp allocationResponse

	err := c.do(ctx, request{
		op:     "GetAllocationResults",
		method: http.MethodGet,
		path:   c.endpoint("allocation", "results", dataset),
		schema: allocationLoader,
		attrs:  []attribute.KeyValue{attribute.String(otelhelper.DatasetKey, dataset)},
	}, &resp)
	if err != nil {
		return models.AllocationResult{}, err
	}

	if !resp.Status.IsSuccess() {
		return models.AllocationResult{}, gateway.NewRemoteError("GetAllocationResults", http.StatusOK, resp.Message)
	}

	return resp.toModel(), nil
}

func (c *Client) allocation(
	ctx context.Context,
	op, path string,
	payload allocationRequest,
	attrs ...attribute.KeyValue,
) (models.AllocationResult, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return models.AllocationResult{}, gateway.WrapTransportError(op, err)
	}

	var resp allocationResponse

	err = c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		schema:      allocationLoader,
		attrs:       append(attrs, attribute.String(otelhelper.DatasetKey, payload.DatasetName)),
	}, &resp)
	if err != nil {
		return models.AllocationResult{}, err
	}

	if !resp.Status.IsSuccess() {
		return models.AllocationResult{}, gateway.NewRemoteError(op, http.StatusOK, resp.Message)
	}

	return resp.toModel(), nil
}
