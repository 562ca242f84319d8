package httpgateway

import (
	"context"
	"net/http"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) ListPipelineDatasets(ctx context.Context) ([]string, error) {
	return c.list(ctx, "ListPipelineDatasets", c.endpoint("query", "pqdag-datasets"))
}

func (c *Client) ListQueryArtifactSets(ctx context.Context) ([]string, error) {
	return c.list(ctx, "ListQueryArtifactSets", c.endpoint("query", "datasets"))
}

func (c *Client) ListQueryArtifacts(ctx context.Context, querySet string) ([]string, error) {
	return c.list(ctx, "ListQueryArtifacts", c.endpoint("query", "files", querySet),
		attribute.String(otelhelper.QuerySetKey, querySet))
}

func (c *Client) GetQueryArtifactContent(ctx context.Context, querySet, artifact string) (string, error) {
	var resp contentResponse

	err := c.do(ctx, request{
		op:     "GetQueryArtifactContent",
		method: http.MethodGet,
		path:   c.endpoint("query", "content", querySet, artifact),
		attrs: []attribute.KeyValue{
			attribute.String(otelhelper.QuerySetKey, querySet),
			attribute.String(otelhelper.QueryFileKey, artifact),
		},
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

// ExecuteQuery returns a failed result, not an error, when the backend ran
// the query and reported failure.
func (c *Client) ExecuteQuery(ctx context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
	body, err := jsonBody(queryExecutionRequest{
		Dataset:    req.Dataset,
		QueryFile:  req.QueryFile,
		MasterIP:   req.MasterIP,
		PlanNumber: req.PlanNumber,
	})
	if err != nil {
		return models.QueryExecutionResult{}, gateway.WrapTransportError("ExecuteQuery", err)
	}

	var resp queryExecutionResponse

	err = c.do(ctx, request{
		op:          "ExecuteQuery",
		method:      http.MethodPost,
		path:        c.endpoint("query", "execute"),
		body:        body,
		contentType: "application/json",
		schema:      queryExecutionLoader,
		attrs: []attribute.KeyValue{
			attribute.String(otelhelper.DatasetKey, req.Dataset),
			attribute.String(otelhelper.QueryFileKey, req.QueryFile),
		},
	}, &resp)
	if err != nil {
		return models.QueryExecutionResult{}, err
	}

	result := resp.toModel()
	if result.Status != models.StatusSuccess {
		result.Status = models.StatusFailure
	}

	return result, nil
}

func (c *Client) list(ctx context.Context, op, path string, attrs ...attribute.KeyValue) ([]string, error) {
	var entries []string

	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   path,
		attrs:  attrs,
	}, &entries)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []string{}
	}

	return entries, nil
}
