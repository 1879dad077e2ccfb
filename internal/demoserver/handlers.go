package demoserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// queryResponse is the JSON body handleQuery returns: the named
// query's rows plus the name itself, so a client polling /api/query/{name}
// repeatedly doesn't need to echo it back out of band.
type queryResponse struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}

// handleQuery executes the Library's compiled query named by the route
// parameter and renders its rows as JSON.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cq, err := s.library.Get(name)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	rb, err := s.executor.Execute(r.Context(), cq)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	rows, err := rowsToMaps(rb)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Name: name, Rows: rows})
}

// handleEdit executes a named mutation (insert/update/delete) query
// from the Library -- a request names which registered mutation to
// run rather than supplying free-form SQL.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cq, err := s.library.Get(name)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	rb, err := s.executor.Execute(r.Context(), cq)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	s.library.Invalidate(name)
	rows, err := rowsToMaps(rb)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Name: name, Rows: rows})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeErr renders err as a JSON error body, mapping the outcome.Kind
// that best describes "client sent something wrong" onto 4xx and
// everything else onto 500.
func writeErr(w http.ResponseWriter, zlog *zap.Logger, err error) {
	status := http.StatusInternalServerError
	if outcome.Is(err, outcome.NotRegistered) || outcome.Is(err, outcome.ColumnNotFound) {
		status = http.StatusNotFound
	}
	zlog.Warn("request failed", zap.Error(err), zap.Int("status", status))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
