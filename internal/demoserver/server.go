// Package demoserver wires the typed query compiler, the disruptor
// logger and the Nexus registry into one runnable HTTP+websocket demo
// service: a single Nexus owns an Immortal scroll.Logger and an
// Immortal dbquery.Library backed by a postgres.Executor, chi routes
// execute named compiled queries, and a websocket endpoint streams a
// log tail plus periodic live-query snapshots.
//
// The HTTP lifecycle is a conventional listen/serve/graceful-shutdown
// loop; what's unusual is that the logger, executor and query library
// all live behind a single Nexus instance instead of being constructed
// and passed around directly, and that live queries refresh on a poll
// tick rather than a row-level change feed.
package demoserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbquery/postgres"
	"github.com/demiplane/demiplane/pkg/nexus"
	"github.com/demiplane/demiplane/pkg/scroll"
)

// Nexus slot ids, scoped to this package: each type gets its own
// namespace of numeric ids under the (type, id) key, so 0 is simply
// "the one instance" for every singleton this server owns.
const (
	slotLogger   uint32 = 0
	slotLibrary  uint32 = 0
	slotExecutor uint32 = 0
)

// Server is the demo service: one Nexus owning the logger and query
// library, a pgx pool and executor, a live-query registry, a tail sink
// feeding the websocket log stream, and the chi-backed http.Server.
type Server struct {
	cfg      *config
	nexus    *nexus.Nexus
	logger   *scroll.Logger
	tail     *tailSink
	pool     *pgxpool.Pool
	executor *postgres.Executor
	library  *dbquery.Library
	registry *Registry
	zlog     *zap.Logger
	adminDB  *sql.DB

	httpServer *http.Server
	pollStop   chan struct{}
	pollDone   chan struct{}
}

// New builds a Server: connects a pgx pool, starts the disruptor
// logger with a console sink and a tail sink, registers the logger, the
// executor and the Library as Immortal Nexus slots, and sets up the HTTP
// routes. The caller starts the server with Run, which shuts everything
// down when its context is cancelled.
func New(ctx context.Context, zlog *zap.Logger, opts ...Option) (*Server, error) {
	cfg := newConfig(opts)
	if cfg.databaseURL == "" {
		return nil, fmt.Errorf("demoserver: WithDatabaseURL is required")
	}

	pool, err := pgxpool.New(ctx, cfg.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("demoserver: connecting to postgres: %w", err)
	}

	tail := newTailSink(cfg.tailThreshold, cfg.tailCapacity)
	console := scroll.NewConsoleSink(scroll.ConsoleSinkOptions{
		Threshold:    cfg.logThreshold,
		EnableColors: true,
	})
	logger, err := scroll.NewLogger(scroll.LoggerOptions{
		RingBufferSize: cfg.ringBufferSize,
		WaitStrategy:   cfg.waitStrategy,
	}, console, tail)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("demoserver: starting logger: %w", err)
	}

	n := nexus.New()
	nexus.RegisterShared(n, slotLogger, nexus.Immortal, logger)
	nexus.RegisterShared(n, slotExecutor, nexus.Immortal, postgres.NewExecutor(pool))
	nexus.RegisterShared(n, slotLibrary, nexus.Immortal, dbquery.NewLibrary(postgres.Dialect{}))

	// Every later reference to the logger, executor and library goes
	// through Spawn rather than the locals above, so the Nexus is the
	// one source of truth a handler or the poll loop reads from.
	logger, err = nexus.Spawn[*scroll.Logger](n, slotLogger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("demoserver: spawning logger: %w", err)
	}
	executor, err := nexus.Spawn[*postgres.Executor](n, slotExecutor)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("demoserver: spawning executor: %w", err)
	}
	library, err := nexus.Spawn[*dbquery.Library](n, slotLibrary)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("demoserver: spawning library: %w", err)
	}

	adminDB, err := openAdminDB(cfg.databaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("demoserver: opening admin connection: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		nexus:    n,
		logger:   logger,
		tail:     tail,
		pool:     pool,
		executor: executor,
		library:  library,
		registry: NewRegistry(),
		zlog:     zlog,
		adminDB:  adminDB,
		pollStop: make(chan struct{}),
		pollDone: make(chan struct{}),
	}
	s.httpServer = &http.Server{Addr: cfg.addr, Handler: s.routes()}
	return s, nil
}

// Library exposes the server's named-query cache so main (or a test)
// can Register builders before Run starts serving.
func (s *Server) Library() *dbquery.Library { return s.library }

// Logger exposes the server's disruptor logger for ambient use outside
// the HTTP path (e.g. a startup banner line).
func (s *Server) Logger() *scroll.Logger { return s.logger }

// Executor exposes the Nexus-owned executor, for callers (tests, an
// admin script) that need to run a query outside the HTTP path.
func (s *Server) Executor() *postgres.Executor { return s.executor }

// Handler returns the server's chi router directly, for tests driving
// it through httptest.NewServer instead of a bound net.Listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run starts the HTTP listener and the live-query poll loop, blocking
// until ctx is cancelled, then shuts both down gracefully. Taking a
// caller-supplied context rather than calling signal.Notify itself lets
// main compose shutdown with other triggers.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.zlog.Info("demoserver listening", zap.String("addr", s.cfg.addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	go s.pollLoop()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.zlog.Info("demoserver shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)

	close(s.pollStop)
	<-s.pollDone

	s.logger.Shutdown()
	s.pool.Close()
	_ = s.adminDB.Close()
	s.nexus.Stop()
	return err
}

// pollLoop re-executes every registered live query on cfg.pollInterval
// and broadcasts the fresh rows to its subscribers as a full snapshot,
// rather than diffing against the previous result.
func (s *Server) pollLoop() {
	defer close(s.pollDone)
	ticker := time.NewTicker(s.cfg.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.pollStop:
			return
		case <-ticker.C:
			s.registry.ForEach(s.refreshLiveQuery)
			s.registry.CleanupOrphans()
		}
	}
}

func (s *Server) refreshLiveQuery(lq *LiveQuery) {
	cq, err := s.library.Get(lq.Name)
	if err != nil {
		s.logger.Error("live query " + lq.Name + ": " + err.Error())
		return
	}
	rb, err := s.executor.Execute(context.Background(), cq)
	if err != nil {
		s.logger.Error("live query " + lq.Name + ": " + err.Error())
		return
	}
	rows, err := rowsToMaps(rb)
	if err != nil {
		s.logger.Error("live query " + lq.Name + ": rendering rows: " + err.Error())
		return
	}
	lq.broadcast("snapshot", rows)
}
