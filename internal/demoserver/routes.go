package demoserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routes builds the chi router: the websocket endpoint mounts ahead of
// the logging middleware (a websocket upgrade's ResponseWriter doesn't
// support the status-capturing wrapper), exactly the ordering the
// teacher's internal/api/routes.go SetupRoutes uses.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(loggingMiddleware(s.zlog))

		r.Route("/api", func(r chi.Router) {
			r.Get("/query/{name}", s.handleQuery)
			r.Post("/edit/{name}", s.handleEdit)
			r.Get("/admin/tables", s.handleListTables)
		})
	})

	return r
}
