// SPDX-License-Identifier: MPL-2.0

// TODO: rate limit https://echo.labstack.com/docs/middleware/rate-limiter
package web

import (
	"net/http"

	"hawkeye/core"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
)

type Config struct {
	Addr      string
	JWTSecret []byte
	// Registerer and Gatherer default to the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// New builds the echo instance with middlewares and routes but does not start it.
func New(app *core.App, config Config) *echo.Echo {
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(slogecho.New(app.Logger.WithGroup("web")))
	e.Use(middleware.BodyLimit("2M"))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		// Does more bad than good: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/X-XSS-Protection
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         2592000, // 30 days
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogLevel:  log.ERROR,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "hawkeye",
		Registerer: config.Registerer,
	}))

	routes(e, app, config)
	return e
}

// Start serves in the background. Shut it down with e.Shutdown.
func Start(app *core.App, config Config) *echo.Echo {
	e := New(app, config)
	go func() {
		if err := e.Start(config.Addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("Error starting HTTP server", err)
		}
	}()
	app.Logger.Info("Web server is listening at " + config.Addr)
	return e
}
