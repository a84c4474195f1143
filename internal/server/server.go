package server

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/Deathfireofdoom/staged-kv-store/internal/api"
	"github.com/Deathfireofdoom/staged-kv-store/internal/config"
	"github.com/Deathfireofdoom/staged-kv-store/internal/kvstore"
	"github.com/Deathfireofdoom/staged-kv-store/internal/lifecycle"
	"github.com/Deathfireofdoom/staged-kv-store/internal/metrics"
	"github.com/Deathfireofdoom/staged-kv-store/internal/snapshot"
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server ties the in-memory state to its snapshot file and HTTP front end.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	phase     *lifecycle.Lifecycle
	persister *snapshot.Manager
	state     *kvstore.ServerState
	http      *http.Server

	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
}

// New restores state from the configured snapshot. An error here means the
// snapshot cannot be trusted and the process must not serve.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	persister := snapshot.NewManager(cfg.SnapshotPath, logger.Named("snapshot"))
	state, err := persister.Restore()
	if err != nil {
		return nil, err
	}

	reg, err := metrics.NewRegistry(state)
	if err != nil {
		return nil, errors.Annotate(err, "register metrics")
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		phase:     lifecycle.New(),
		persister: persister,
		state:     state,
		done:      make(chan struct{}),
	}
	h := api.NewHandler(state, s.phase, logger.Named("api"))
	router := api.NewRouter(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.http = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Wrap(router, logger.Named("http")),
	}
	return s, nil
}

func (s *Server) State() *kvstore.ServerState { return s.state }

func (s *Server) Phase() lifecycle.Phase { return s.phase.Phase() }

// Run listens on the configured address and serves until Shutdown.
func (s *Server) Run() error {
	l, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return errors.Annotatef(err, "listen on %s", s.cfg.HTTPAddr)
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown. After a shutdown it waits for the
// snapshot to be written and returns nil.
func (s *Server) Serve(l net.Listener) error {
	if !s.phase.Transition(lifecycle.Starting, lifecycle.Running) {
		l.Close()
		return errors.Errorf("server cannot start from phase %s", s.phase.Phase())
	}
	s.logger.Info("server started",
		zap.String("addr", l.Addr().String()),
		zap.Int("keys", s.state.Len()),
		zap.Int("pending", s.state.Pending()))

	err := s.http.Serve(l)
	if err == http.ErrServerClosed {
		<-s.done
		return nil
	}
	return errors.Trace(err)
}

// Shutdown stops accepting requests, waits up to ctx for in-flight ones and
// then writes the snapshot. The snapshot write ignores ctx: once begun it
// runs to completion. Only the first call does work; later calls return
// the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		defer close(s.done)
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Server) shutdown(ctx context.Context) error {
	from := s.phase.Phase()
	if from == lifecycle.Starting {
		// never served; nothing can have changed since restore
		s.phase.Transition(lifecycle.Starting, lifecycle.Running)
	}
	// waits out handlers that are staging or committing; later ones get 503
	if !s.phase.Transition(lifecycle.Running, lifecycle.ShuttingDown) {
		return errors.Errorf("cannot shut down from phase %s", s.phase.Phase())
	}
	s.logger.Info("shutting down", zap.Int("pending", s.state.Pending()))

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}

	err := s.persister.Save(s.state)
	s.phase.Transition(lifecycle.ShuttingDown, lifecycle.Terminated)
	if err != nil {
		return err
	}
	s.logger.Info("server terminated")
	return nil
}
