package web

import (
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleServiceError maps the console error classes to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsPreconditionError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType(services.ErrorCode(err, "validation_error")).
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsBusyError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType(services.ErrorCode(err, "conflict")).
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case gateway.IsRemoteError(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("remote_error").
			WithDetail(gateway.OperatorMessage(err, "The backend request failed"))

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
