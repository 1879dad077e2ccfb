package demoserver_test

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/demiplane/demiplane/internal/demoserver"
	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbquery/postgres"
	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/dbtest"
)

//go:embed testdata/migrations/*.sql
var migrations embed.FS

func TestMain(m *testing.M) {
	sub, err := fs.Sub(migrations, "testdata/migrations")
	if err != nil {
		panic(err)
	}
	dbtest.BootOnce(&testing.T{}, dbtest.WithMigrations(sub))
	code := m.Run()
	_ = dbtest.ShutdownNow()
	os.Exit(code)
}

func widgetsTable() *dbschema.Table {
	t := dbschema.NewTable("widgets")
	dbschema.WithPrimaryKey(dbschema.AddField[int64](t, "id", "BIGINT"))
	dbschema.AddField[string](t, "sku", "TEXT")
	dbschema.AddField[string](t, "label", "TEXT")
	dbschema.AddField[int32](t, "quantity", "INTEGER")
	dbschema.AddField[float64](t, "price", "DOUBLE PRECISION")
	dbschema.AddField[bool](t, "active", "BOOLEAN")
	return t
}

// newTestServer boots a Server against a fresh sandbox schema, with
// "widgets.active" registered, and tears everything down through
// t.Cleanup -- including cancelling Run's context and draining it, so
// the poll loop and HTTP listener never leak past the test.
func newTestServer(t *testing.T) *demoserver.Server {
	t.Helper()
	sbx := dbtest.NewSandbox(t)

	srv, err := demoserver.New(context.Background(), zap.NewNop(),
		demoserver.WithDatabaseURL(sbx.DSN),
		demoserver.WithAddr(":0"),
		demoserver.WithPollInterval(50*time.Millisecond),
	)
	require.NoError(t, err)

	tbl := widgetsTable()
	sku := dbschema.MustColumn[string](tbl, "sku")
	label := dbschema.MustColumn[string](tbl, "label")
	active := dbschema.MustColumn[bool](tbl, "active")
	srv.Library().Register("widgets.active", func() any {
		return dbquery.Select(dbquery.C(sku), dbquery.C(label)).
			From("widgets").
			Where(dbquery.Eq(dbquery.C(active), dbquery.Lit(true))).
			OrderBy(dbquery.C(sku), dbquery.Asc)
	})

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return srv
}

func insertWidget(t *testing.T, srv *demoserver.Server, sku, label string, active bool) {
	t.Helper()
	rec := dbschema.NewRecord(widgetsTable())
	skuField, _ := rec.Field("sku")
	dbschema.Set(skuField, sku)
	labelField, _ := rec.Field("label")
	dbschema.Set(labelField, label)
	activeField, _ := rec.Field("active")
	dbschema.Set(activeField, active)

	cq, err := dbquery.Compile(dbquery.FromRecord(rec), postgres.Dialect{})
	require.NoError(t, err)
	_, err = srv.Executor().Execute(context.Background(), cq)
	require.NoError(t, err)
}

func TestHandleQueryExecutesNamedQuery(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	insertWidget(t, srv, "SKU-1", "Widget One", true)
	insertWidget(t, srv, "SKU-2", "Widget Two", false)

	resp, err := http.Get(ts.URL + "/api/query/widgets.active")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Name string           `json:"name"`
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "widgets.active", body.Name)
	require.Len(t, body.Rows, 1)
	require.Equal(t, "SKU-1", body.Rows[0]["sku"])
}

func TestHandleQueryUnknownNameIs404(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/query/does.not.exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleListTablesIncludesWidgets(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/admin/tables")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Contains(t, body.Tables, "widgets")
}

func TestWebsocketSubscribeReceivesPolledSnapshot(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	insertWidget(t, srv, "SKU-9", "Ninth Widget", true)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "name": "widgets.active"}))

	sawSnapshot := false
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !sawSnapshot {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type == "snapshot" {
			var rows []map[string]any
			require.NoError(t, json.Unmarshal(msg.Data, &rows))
			if len(rows) == 1 && rows[0]["sku"] == "SKU-9" {
				sawSnapshot = true
			}
		}
	}
	require.True(t, sawSnapshot)
}

func TestWebsocketTailReceivesLoggedEvents(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "tail"}))
	srv.Logger().Info("integration test tail marker")

	found := false
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !found {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string `json:"type"`
			Data struct {
				Message string `json:"message"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type == "log" && msg.Data.Message == "integration test tail marker" {
			found = true
		}
	}
	require.True(t, found)
}
