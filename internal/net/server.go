package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SocketPath is where participants open their websocket.
const SocketPath = "/ws"

// RegisterRoutes mounts the relay socket and its health endpoint.
func (r *Relay) RegisterRoutes(mux chi.Router) {
	mux.Get(SocketPath, r.ServeHTTP)
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "peers": r.Len()})
	})
}

// NewRouter builds the relay's HTTP handler.
func NewRouter(r *Relay, allowedOrigins []string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.RegisterRoutes(mux)
	return mux
}

// Server runs a Relay on a TCP address.
type Server struct {
	relay *Relay
	srv   *http.Server
	log   *slog.Logger
}

func NewServer(addr string, relay *Relay, allowedOrigins []string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		relay: relay,
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(relay, allowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log.With("component", "server"),
	}
}

// ListenAndServe serves until ctx is cancelled, then disconnects all peers
// and shuts the listener down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("relay listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay listen: %w", err)
	case <-ctx.Done():
	}

	s.relay.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	s.log.Info("relay stopped")
	return nil
}
