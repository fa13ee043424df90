// SPDX-License-Identifier: MPL-2.0

package web

import (
	"net/http"

	"hawkeye/core"
	"hawkeye/web/handler"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/echoprometheus"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// SetActor turns the token's sub and role claims into the actor the core operations check.
// Tokens without a subject get no actor and are refused by every operation that needs one.
func SetActor() func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return next(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return next(c)
			}
			role, _ := claims["role"].(string)
			actor := &core.Actor{ID: sub, Role: role}
			c.SetRequest(c.Request().WithContext(core.ContextWithActor(c.Request().Context(), actor)))
			return next(c)
		}
	}
}

func routes(e *echo.Echo, app *core.App, config Config) {
	e.GET("/status", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: config.Gatherer,
	}))

	apiWithAuth := e.Group("/api", echojwt.WithConfig(echojwt.Config{
		SigningKey:    config.JWTSecret,
		SigningMethod: echojwt.AlgorithmHS256,
	}), SetActor())

	apiWithAuth.GET("/reports/:sliceId", handler.GetReportConfig(app))
	apiWithAuth.PUT("/reports/:sliceId", handler.SaveReportConfig(app))
	apiWithAuth.POST("/reports/:sliceId/submit", handler.SubmitForReview(app))
	apiWithAuth.POST("/reports/:sliceId/review", handler.ReviewChart(app))
	apiWithAuth.POST("/reports/:sliceId/publish", handler.PublishChart(app))
	apiWithAuth.GET("/reports/:sliceId/history", handler.ListChartEvents(app))
}
