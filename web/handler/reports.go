// SPDX-License-Identifier: MPL-2.0

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"hawkeye/core"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSONPretty(status, errorBody{Error: msg}, "  ")
}

func errorStatus(err error) int {
	var validationErr *core.ValidationError
	var translationErr *core.TranslationError
	var publishErr *core.PublishFailure
	switch {
	case errors.As(err, &validationErr), errors.As(err, &translationErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &publishErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// coreError answers with the status matching err. Internal errors are logged and not echoed.
func coreError(c echo.Context, app *core.App, action string, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		app.Logger.Error("error "+action+":", slog.Any("error", err))
		return errorResponse(c, status, "Internal server error")
	}
	if status == http.StatusBadGateway {
		app.Logger.Warn("error "+action+":", slog.Any("error", err))
	}
	return errorResponse(c, status, err.Error())
}

func sliceID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("sliceId"), 10, 64)
	return id, err == nil && id > 0
}

func GetReportConfig(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		view, err := core.GetReportConfig(app, c.Request().Context(), id)
		if err != nil {
			return coreError(c, app, "getting report config", err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func SaveReportConfig(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		var request core.SaveConfigRequest
		if err := c.Bind(&request); err != nil {
			return errorResponse(c, http.StatusBadRequest, "Invalid request")
		}
		view, err := core.SaveReportConfig(app, c.Request().Context(), id, request)
		if err != nil {
			return coreError(c, app, "saving report config", err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func SubmitForReview(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		view, err := core.SubmitForReview(app, c.Request().Context(), id)
		if err != nil {
			return coreError(c, app, "submitting chart for review", err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func ReviewChart(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		var request struct {
			Approve *bool `json:"approve"`
		}
		if err := c.Bind(&request); err != nil || request.Approve == nil {
			return errorResponse(c, http.StatusBadRequest, "Invalid request")
		}
		view, err := core.ReviewChart(app, c.Request().Context(), id, *request.Approve)
		if err != nil {
			return coreError(c, app, "reviewing chart", err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func PublishChart(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		view, err := core.PublishChart(app, c.Request().Context(), id)
		if err != nil {
			return coreError(c, app, "publishing chart", err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func ListChartEvents(app *core.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := sliceID(c)
		if !ok {
			return errorResponse(c, http.StatusBadRequest, "Invalid slice id")
		}
		events, err := core.ListChartEvents(app, c.Request().Context(), id)
		if err != nil {
			return coreError(c, app, "listing chart events", err)
		}
		return c.JSON(http.StatusOK, struct {
			Events []core.Event `json:"events"`
		}{Events: events})
	}
}
