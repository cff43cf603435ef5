package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Dispatcher completes a method call on its Result, possibly asynchronously.
type Dispatcher interface {
	HandleMethodCall(ctx context.Context, call bridge.MethodCall, result bridge.Result)
}

// Server exposes the method channel alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/channel, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, dispatcher Dispatcher, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dispatcher: dispatcher,
		logger:     logger,
	}

	mux.HandleFunc("POST /v1/channel", s.handleMethodCall)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleMethodCall decodes a MethodCall body, dispatches it and answers with
// the Reply once the call completes. An X-Request-ID header is echoed as the
// reply id.
func (s *Server) handleMethodCall(w http.ResponseWriter, r *http.Request) {
	var call bridge.MethodCall
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&call); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"status": "bad request",
			"error":  err.Error(),
		})
		return
	}

	pending := bridge.NewPending(r.Header.Get("X-Request-ID"), call.Method)
	s.dispatcher.HandleMethodCall(r.Context(), call, pending)

	reply, err := pending.Wait(r.Context())
	if err != nil {
		s.logger.Debug("client went away before reply", "method", call.Method, "error", err)
		return
	}
	sharedobs.WriteJSON(w, statusFor(reply), reply)
}

func statusFor(reply bridge.Reply) int {
	switch reply.Status {
	case bridge.StatusSuccess:
		return http.StatusOK
	case bridge.StatusNotImplemented:
		return http.StatusNotImplemented
	}
	if reply.Error == nil {
		return http.StatusInternalServerError
	}
	switch reply.Error.Code {
	case domain.CodeNotAvailable:
		return http.StatusServiceUnavailable
	case domain.CodeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
