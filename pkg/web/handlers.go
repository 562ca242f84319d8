package web

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/dukex/pqdag-console/pkg/console"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// uploadField is the multipart field carrying the RDF files.
const uploadField = "files"

type APIHandlers struct {
	console   *console.Console
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(c *console.Console, validator *validator.Validate, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		console:   c,
		validator: validator,
		logger:    logger.With("module", "web"),
	}
}

// RegisterRoutes mounts every console endpoint on r.
func RegisterRoutes(r fiber.Router, h *APIHandlers) {
	r.Get("/status", h.GetStatus)

	p := r.Group("/pipeline")
	p.Get("/", h.GetPipeline)
	p.Post("/reset", h.ResetPipeline)
	p.Post("/allocations", h.StartAllocation)
	p.Post("/distributions", h.StartDistribution)
	p.Post("/results/:dataset", h.LoadResults)

	cl := r.Group("/cluster")
	cl.Get("/", h.GetCluster)
	cl.Post("/:operation", h.ClusterOperation)
	cl.Put("/dataset", h.BindDataset)
	cl.Post("/dataset/sync", h.SyncBinding)

	cat := r.Group("/catalog")
	cat.Get("/datasets", h.ListDatasets)
	cat.Get("/query-sets", h.ListQuerySets)
	cat.Get("/query-sets/:set", h.ListQueryArtifacts)
	cat.Get("/query-sets/:set/:artifact", h.GetQueryArtifact)

	q := r.Group("/queries")
	q.Post("/", h.ExecuteQuery)
	q.Get("/last", h.LastQuery)

	f := r.Group("/files")
	f.Post("/", h.UploadFiles)
	f.Get("/", h.ListFiles)
	f.Delete("/", h.ClearFiles)
}

func (h *APIHandlers) GetStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    h.console.Status(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetPipeline(c fiber.Ctx) error {
	return c.JSON(newPipelineResponse(h.console.Pipeline.Snapshot()))
}

func (h *APIHandlers) ResetPipeline(c fiber.Ctx) error {
	return c.JSON(newPipelineResponse(h.console.Pipeline.Reset(c.Context())))
}

// StartAllocation accepts the allocation and returns 202 with the pending
// state. Progress is observed by polling GET /pipeline.
func (h *APIHandlers) StartAllocation(c fiber.Ctx) error {
	var req StartAllocationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.console.Pipeline.StartAllocation(c.Context(), req.Dataset, req.Workers)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(newPipelineResponse(state))
}

func (h *APIHandlers) StartDistribution(c fiber.Ctx) error {
	var req StartDistributionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.console.Pipeline.StartDistribution(c.Context(), req.Dataset, req.CleanAfter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(newPipelineResponse(state))
}

// LoadResults answers 404 when the backend has no results for the dataset.
func (h *APIHandlers) LoadResults(c fiber.Ctx) error {
	dataset := c.Params("dataset")

	state, err := h.console.Pipeline.LoadResults(c.Context(), dataset)
	if err != nil {
		if gateway.IsRemoteError(err) {
			return notFound(c, fmt.Sprintf("No allocation results for %s", dataset))
		}

		return handleServiceError(c, err)
	}

	return c.JSON(newPipelineResponse(state))
}

func (h *APIHandlers) GetCluster(c fiber.Ctx) error {
	return c.JSON(ClusterResponse{Cluster: h.console.Cluster.Snapshot()})
}

func (h *APIHandlers) ClusterOperation(c fiber.Ctx) error {
	op := cluster.Operation(c.Params("operation"))

	snapshot, err := h.console.Cluster.Do(c.Context(), op)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ClusterResponse{Cluster: snapshot})
}

func (h *APIHandlers) BindDataset(c fiber.Ctx) error {
	var req BindDatasetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	snapshot, err := h.console.Cluster.BindDataset(c.Context(), req.Dataset)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ClusterResponse{Cluster: snapshot})
}

func (h *APIHandlers) SyncBinding(c fiber.Ctx) error {
	snapshot, err := h.console.Cluster.SyncBinding(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ClusterResponse{Cluster: snapshot})
}

func (h *APIHandlers) ListDatasets(c fiber.Ctx) error {
	items, err := h.console.Catalog.ListPipelineDatasets(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(newListResponse(items))
}

func (h *APIHandlers) ListQuerySets(c fiber.Ctx) error {
	items, err := h.console.Catalog.ListQuerySets(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(newListResponse(items))
}

func (h *APIHandlers) ListQueryArtifacts(c fiber.Ctx) error {
	items, err := h.console.Catalog.ListQueryArtifacts(c.Context(), c.Params("set"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(newListResponse(items))
}

func (h *APIHandlers) GetQueryArtifact(c fiber.Ctx) error {
	set, artifact := c.Params("set"), c.Params("artifact")

	content, err := h.console.Catalog.QueryArtifactContent(c.Context(), set, artifact)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ContentResponse{QuerySet: set, Artifact: artifact, Content: content})
}

// ExecuteQuery blocks until the backend answers. A failed query is still a
// 200: the failure is carried by the result status.
func (h *APIHandlers) ExecuteQuery(c fiber.Ctx) error {
	var req ExecuteQueryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := h.console.Queries.Execute(c.Context(), models.QueryExecutionRequest{
		Dataset:    req.Dataset,
		QueryFile:  req.QueryFile,
		MasterIP:   req.MasterIP,
		PlanNumber: req.PlanNumber,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(outcome)
}

func (h *APIHandlers) LastQuery(c fiber.Ctx) error {
	return c.JSON(h.console.Queries.LastOutcome())
}

func (h *APIHandlers) UploadFiles(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}

	blobs, err := readBlobs(form.File[uploadField])
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.console.Files.Upload(c.Context(), blobs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func readBlobs(headers []*multipart.FileHeader) ([]models.FileBlob, error) {
	blobs := make([]models.FileBlob, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}

		content, err := io.ReadAll(f)
		_ = f.Close()

		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		blobs = append(blobs, models.FileBlob{Name: fh.Filename, Size: fh.Size, Content: content})
	}

	return blobs, nil
}

func (h *APIHandlers) ListFiles(c fiber.Ctx) error {
	listing, err := h.console.Files.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(listing)
}

func (h *APIHandlers) ClearFiles(c fiber.Ctx) error {
	if err := h.console.Files.Clear(c.Context()); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
