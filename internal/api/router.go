// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/config"
)

// NewRouter builds the HTTP route tree.
//
// Layout:
//
//	GET  /healthz                        liveness and index size
//	GET  /metrics                        Prometheus exposition
//	GET  /api/v1/feed/{userID}           computed feed
//	POST /api/v1/feedback/{userID}       interaction feedback
//	POST /api/v1/users                   create a user profile
//	GET  /api/v1/users                   list user profiles
//	GET  /api/v1/users/{userID}/stats    interaction summary
//	GET  /api/v1/items/{itemID}          catalog item lookup
//	POST /api/v1/items                   batch ingest
//	POST /api/v1/admin/rebuild           force an index rebuild
func NewRouter(handler *Handler, cfg config.APIConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// Unthrottled operational endpoints.
	r.Get("/healthz", handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(cfg))
		r.Use(requestMetrics(logger))

		r.Get("/feed/{userID}", handler.Feed)
		r.Post("/feedback/{userID}", handler.Feedback)

		r.Post("/users", handler.CreateUser)
		r.Get("/users", handler.ListUsers)
		r.Get("/users/{userID}/stats", handler.UserStats)

		r.Get("/items/{itemID}", handler.GetItem)
		r.Post("/items", handler.IngestItems)

		r.Post("/admin/rebuild", handler.Rebuild)
	})

	return r
}
