// Package rpc serves the read-only status API of a farmer node.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	ferrors "farmercore/core/errors"
	"farmercore/core/state"
	"farmercore/crypto"
	"farmercore/native/farmer"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Backend exposes committed state to the handlers.
type Backend interface {
	View(fn func(*state.Manager) error) error
	Slot() uint64
}

type Server struct {
	backend   Backend
	programID crypto.Pubkey
	logger    *slog.Logger
	handler   http.Handler
}

// NewServer builds the router for programID backed by backend.
func NewServer(backend Backend, programID crypto.Pubkey, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{backend: backend, programID: programID, logger: logger}

	r := chi.NewRouter()
	r.Use(s.observe)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/v1", func(sr chi.Router) {
		sr.Get("/config", s.handleConfig)
		sr.Get("/config/address", s.handleConfigAddress)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.handler = otelhttp.NewHandler(r, "farmerd.http")
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status API listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	addr, bump, err := farmer.ConfigAddress(s.programID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var cfg *farmer.ProgramConfig
	err = s.backend.View(func(st *state.Manager) error {
		var loadErr error
		cfg, loadErr = farmer.LoadConfig(st, s.programID)
		return loadErr
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConfigResponse(addr, bump, cfg, s.backend.Slot()))
}

func (s *Server) handleConfigAddress(w http.ResponseWriter, r *http.Request) {
	addr, bump, err := farmer.ConfigAddress(s.programID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AddressResponse{
		ProgramID: s.programID.String(),
		Address:   addr.String(),
		Bump:      bump,
		Seeds:     []string{string(farmer.SeedConfig)},
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Message: err.Error()}
	var perr *ferrors.ProgramError
	if errors.As(err, &perr) {
		resp.Code = perr.Code
		resp.Name = perr.Name
		resp.Message = perr.Msg
		if errors.Is(err, ferrors.ErrNotFound) {
			status = http.StatusNotFound
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("status API request failed", slog.Any("error", err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
