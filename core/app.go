// SPDX-License-Identifier: MPL-2.0

package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
)

type App struct {
	DB          *sqlx.DB
	Logger      *slog.Logger
	Store       Store
	Portal      PortalAPI
	Publisher   *Publisher
	Permissions Permissions
	Events      *Events
	PortalHost  string
	validate    *validator.Validate
}

func New(
	db *sqlx.DB,
	logger *slog.Logger,
	publisher *Publisher,
	events *Events,
	portalHost string,
) (*App, error) {
	if err := InitDB(db); err != nil {
		return nil, err
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	store := NewSQLStore(db)
	if publisher.Store == nil {
		publisher.Store = store
	}
	if publisher.Logger == nil {
		publisher.Logger = logger.WithGroup("publish")
	}
	if publisher.Events == nil {
		publisher.Events = events
	}

	app := &App{
		DB:          db,
		Logger:      logger,
		Store:       publisher.Store,
		Portal:      publisher.Portal,
		Publisher:   publisher,
		Permissions: ActorPermissions{},
		Events:      events,
		PortalHost:  strings.TrimSuffix(portalHost, "/"),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	return app, nil
}

// PortalURL is where a published report can be previewed.
func (app *App) PortalURL(publishedReportID string) string {
	if app.PortalHost == "" || publishedReportID == "" {
		return ""
	}
	return app.PortalHost + "/dashBoard/reports/" + publishedReportID
}
