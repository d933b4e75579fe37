package middleware

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDKey is the fiber.Ctx local holding the request id.
const RequestIDKey = "request_id"

// Timestamp formats t the way every response body reports time.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000")
}

// GetRequestID returns the id set by RequestID, if any.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// ErrorHandler renders every error as {"erro": ..., "timestamp": ...}.
// AppError details are merged into the body.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := GetRequestID(c)

		switch e := err.(type) {
		case *apperr.AppError:
			body := fiber.Map{}
			for k, v := range e.Details {
				body[k] = v
			}
			body["erro"] = e.Message
			body["timestamp"] = Timestamp(time.Now())

			log := logger.WithField("request_id", requestID).
				WithField("error_code", e.Code).
				WithError(e.Err)

			if e.Status >= 500 {
				log.Error("Internal error: %s", e.Message)
			} else {
				log.Warn("Client error: %s", e.Message)
			}
			return c.Status(e.Status).JSON(body)

		case *fiber.Error:
			return c.Status(e.Code).JSON(fiber.Map{
				"erro":      e.Message,
				"timestamp": Timestamp(time.Now()),
			})

		default:
			logger.WithField("request_id", requestID).
				WithError(err).
				WithField("stack", string(debug.Stack())).
				Error("Unexpected error: %s", err.Error())

			return c.Status(fiber.StatusInternalServerError).JSON(unexpectedBody(c, err.Error()))
		}
	}
}

// unexpectedBody echoes the inbound request so the failure can be traced.
func unexpectedBody(c *fiber.Ctx, detail string) fiber.Map {
	return fiber.Map{
		"erro":      "Erro interno do servidor",
		"detalhes":  detail,
		"timestamp": Timestamp(time.Now()),
		"event_debug": fiber.Map{
			"httpMethod": c.Method(),
			"headers":    c.GetReqHeaders(),
			"requestId":  GetRequestID(c),
		},
	}
}

// RequestID middleware adds a unique request ID to each request
// and carries it on the user context for logging.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Locals(RequestIDKey, requestID)
		c.Set("X-Request-ID", requestID)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), requestID))
		return c.Next()
	}
}

// RequestLogger logs incoming requests and their responses
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// render now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		duration := time.Since(start)
		status := c.Response().StatusCode()

		log := logger.WithFields(map[string]any{
			"request_id":  GetRequestID(c),
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
			"ip":          c.IP(),
			"user_agent":  c.Get("User-Agent"),
		})

		switch {
		case status >= 500:
			log.Error("Request failed: %s %s -> %d", c.Method(), c.Path(), status)
		case status >= 400:
			log.Warn("Request error: %s %s -> %d", c.Method(), c.Path(), status)
		default:
			log.Info("Request completed: %s %s -> %d", c.Method(), c.Path(), status)
		}

		return nil
	}
}

// Recover middleware recovers from panics
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				requestID := GetRequestID(c)
				stack := string(debug.Stack())

				fmt.Fprintf(os.Stderr, "\n=== PANIC RECOVERED ===\n")
				fmt.Fprintf(os.Stderr, "Request ID: %s\n", requestID)
				fmt.Fprintf(os.Stderr, "Path: %s %s\n", c.Method(), c.Path())
				fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
				fmt.Fprintf(os.Stderr, "Stack:\n%s\n", stack)
				fmt.Fprintf(os.Stderr, "=== END PANIC ===\n\n")

				logger.WithFields(map[string]any{
					"request_id": requestID,
					"panic":      fmt.Sprintf("%v", r),
					"path":       c.Path(),
					"method":     c.Method(),
				}).Error("Panic recovered")

				_ = c.Status(fiber.StatusInternalServerError).JSON(unexpectedBody(c, fmt.Sprintf("%v", r)))
			}
		}()
		return c.Next()
	}
}
