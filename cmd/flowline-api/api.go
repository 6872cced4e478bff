// Package main provides the Flowline API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlineio/flowline/pkg/eventbus"
	"github.com/flowlineio/flowline/pkg/locker"
	"github.com/flowlineio/flowline/pkg/otelhelper"
	"github.com/flowlineio/flowline/pkg/persistence"
	"github.com/flowlineio/flowline/pkg/services"
	"github.com/flowlineio/flowline/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	locker      locker.Locker
	validate    *validator.Validate
	tracer      trace.Tracer
}

func NewAPI(
	ctx context.Context,
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	l locker.Locker,
) (*API, error) {
	tracer, err := otelhelper.NewTracer(ctx, "flowline-api")
	if err != nil {
		return nil, err
	}

	return &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		locker:      l,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		tracer:      tracer,
	}, nil
}

func (a *API) App() *fiber.App {
	templateService := services.NewTemplate(a.persistence, a.eventBus, a.locker, a.tracer, a.logger)
	workflowService := services.NewWorkflow(a.persistence, a.eventBus, a.locker, a.tracer, a.logger)
	accountService := services.NewAccount(a.persistence)

	handlers := web.NewAPIHandlers(templateService, workflowService, accountService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowline API")
	})

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/", handlers.CreateTemplate)
	t.Get("/:id", handlers.GetTemplate)
	t.Put("/:id", handlers.UpdateTemplate)
	t.Delete("/:id", handlers.DeleteTemplate)
	t.Post("/:id/run", handlers.RunWorkflow)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:id", handlers.GetWorkflow)
	w.Post("/:id/task-complete", handlers.CompleteTask)
	w.Post("/:id/checklist-mark", handlers.MarkChecklistItem)
	w.Post("/:id/return-to", handlers.ReturnTo)
	w.Post("/:id/task-revert", handlers.RevertTask)

	app.Get("/users", handlers.GetUsers)
	app.Get("/groups", handlers.GetGroups)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
