// Package main provides the PQDAG console API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/pqdag-console/pkg/console"
	"github.com/dukex/pqdag-console/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// bodyLimit bounds multipart uploads of raw RDF data.
const bodyLimit = 2 << 30

type API struct {
	logger   *slog.Logger
	console  *console.Console
	registry *prometheus.Registry
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, c *console.Console, registry *prometheus.Registry) *API {
	return &API{
		logger:   logger,
		console:  c,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.console, a.validate, a.logger)

	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("PQDAG Console API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

// Run serves on port until ctx is done, then shuts the server down.
func (a *API) Run(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shutdown API server", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Starting API server", "port", port)

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
