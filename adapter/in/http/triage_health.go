package http

import (
	"context"
	"time"

	"triage_server/core/agent/llm"
	"triage_server/infra/middleware"
	"triage_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ModelProbe checks whether the primary model answers.
type ModelProbe interface {
	Probe(ctx context.Context, timeout time.Duration) llm.ProbeResult
}

const modelProbeTimeout = 10 * time.Second

type HealthHandler struct {
	probe       ModelProbe
	credentials func() error
}

func NewHealthHandler(probe ModelProbe, credentials func() error) *HealthHandler {
	if credentials == nil {
		credentials = func() error { return nil }
	}
	return &HealthHandler{probe: probe, credentials: credentials}
}

func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/health/model", h.Model)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": middleware.Timestamp(time.Now()),
	})
}

// Model probes the primary endpoint with a tiny prompt.
func (h *HealthHandler) Model(c *fiber.Ctx) error {
	if err := h.credentials(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "unhealthy",
			"erro":      apperr.AsAppError(err).Message,
			"timestamp": middleware.Timestamp(time.Now()),
		})
	}

	res := h.probe.Probe(c.UserContext(), modelProbeTimeout)

	body := fiber.Map{
		"status":    "unhealthy",
		"timestamp": middleware.Timestamp(time.Now()),
	}
	if res.StatusCode != 0 {
		body["response_code"] = res.StatusCode
	} else if res.Err != nil {
		body["erro"] = res.Err.Error()
	}

	status := fiber.StatusServiceUnavailable
	if res.Healthy {
		body["status"] = "healthy"
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}
