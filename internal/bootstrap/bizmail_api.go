package bootstrap

import (
	"strings"

	"bizmail_server/adapter/in/http"
	"bizmail_server/config"
	"bizmail_server/infra/middleware"
	"bizmail_server/pkg/cache"
	"bizmail_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	return NewApp(cfg, deps), cleanup, nil
}

// NewApp builds the router over already constructed dependencies.
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		// go-json instead of encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:          2 * 1024 * 1024,
		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())       // 1. Panic recovery
	app.Use(middleware.RequestID())     // 2. Request ID
	app.Use(middleware.RequestLogger()) // 3. Request logging

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" {
		allowOrigins = "*"
		if cfg.IsProduction() {
			logger.Warn("ALLOWED_ORIGINS not set, accepting any origin")
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID",
		MaxAge:        86400,
	}))

	checks := map[string]http.HealthChecker{}
	if deps.DB != nil {
		checks["postgres"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = cache.NewRedisCache(deps.Redis, "")
	}
	http.NewHealthHandler(checks).Register(app)

	api := app.Group("/api")

	http.NewEmailHandler(deps.Service, deps.ThreadRepo, deps.ContextRepo).Register(api)

	if deps.ThreadRepo != nil {
		http.NewThreadHandler(deps.ThreadRepo).Register(api)
	}
	if deps.ContextRepo != nil {
		http.NewContextHandler(deps.ContextRepo).Register(api)
	}

	return app
}
