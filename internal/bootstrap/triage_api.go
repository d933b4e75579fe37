package bootstrap

import (
	"triage_server/adapter/in/http"
	"triage_server/config"
	"triage_server/infra/middleware"
	"triage_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
)

// InitLogger configures the process logger from cfg.
func InitLogger(cfg *config.Config, service string) {
	level := logger.LevelInfo
	if cfg.IsDevelopment() {
		level = logger.LevelDebug
	}
	if cfg.LogLevel != "" {
		level = logger.ParseLevel(cfg.LogLevel)
	}
	logger.Init(logger.Config{
		Level:   level,
		Service: service,
		Console: cfg.IsDevelopment(),
	})
}

func NewAPI(cfg *config.Config) (*fiber.App, error) {
	InitLogger(cfg, "triage-api")

	if err := cfg.MissingCredentials(); err != nil {
		logger.WithError(err).Warn("Provider credentials missing, classification requests will fail")
	}

	return NewApp(cfg, NewDependencies(cfg)), nil
}

// NewApp builds the Fiber app around already wired dependencies.
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		AppName:               "triage",

		// go-json: faster drop-in for encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// base64 PDFs are large
		BodyLimit: cfg.BodyLimit(),

		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())         // 1. Panic recovery
	app.Use(middleware.RequestID())       // 2. Request ID
	app.Use(middleware.SecurityHeaders()) // 3. Security headers
	app.Use(middleware.CORS())            // 4. CORS headers + preflight
	app.Use(middleware.RequestLogger())   // 5. Request logging

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	http.NewHealthHandler(deps.Classifier, cfg.MissingCredentials).Register(app)
	http.NewClassifyHandler(deps.Service, cfg.MissingCredentials, cfg.PreviewChars).Register(app)

	return app
}
