package demoserver

import (
	"database/sql"
	"net/http"

	_ "github.com/lib/pq"
)

// adminDB is a plain database/sql handle used only for the admin
// table-listing endpoint: a simple introspection query doesn't need
// the typed compiler or the binary-wire Executor, so it goes through
// lib/pq on its own connection instead of sharing the pgx pool.
func openAdminDB(databaseURL string) (*sql.DB, error) {
	return sql.Open("postgres", databaseURL)
}

// handleListTables lists every base table in the public schema.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	rows, err := s.adminDB.QueryContext(r.Context(),
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			writeErr(w, s.zlog, err)
			return
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		writeErr(w, s.zlog, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": tables})
}
