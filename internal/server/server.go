package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// defaultCarrier is used when the request does not name one.
const defaultCarrier = "ups"

// Server is the HTTP server for the rating service.
type Server struct {
	port     int
	registry *shipper.Registry
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *shipper.Registry, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		registry: registry,
		logger:   logger,
		metrics:  telemetry.NewMetrics(),
	}
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/rates", s.handleRates)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed,
			shipper.NewError("", shipper.KindValidation, "method not allowed, use POST"))
		return
	}

	var payload ratesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest,
			shipper.NewError("", shipper.KindValidation, "invalid JSON: "+err.Error()))
		return
	}

	req := payload.toModel()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	carrier := payload.Carrier
	if carrier == "" {
		carrier = defaultCarrier
	}

	sh, err := s.registry.Get(carrier)
	if err != nil {
		writeError(w, http.StatusNotFound,
			shipper.NewError(carrier, shipper.KindValidation, "unknown carrier: "+carrier))
		return
	}

	start := time.Now()
	quotes, err := sh.GetRates(r.Context(), req)
	duration := time.Since(start).Seconds()

	if err != nil {
		kind := shipper.KindOf(err)
		s.metrics.RecordRequest("get_rates", carrier, "error", duration)
		s.metrics.RecordError(carrier, string(kind))
		s.logger.Error("Rate request failed",
			zap.String("carrier", carrier),
			zap.String("error_kind", string(kind)),
			zap.Error(err),
		)
		writeError(w, statusForError(err), err)
		return
	}

	s.metrics.RecordRequest("get_rates", carrier, "ok", duration)
	json.NewEncoder(w).Encode(ratesResponse{Quotes: quotesToPayload(quotes)})
}

// statusForError maps a classified carrier error onto the facade's HTTP
// status. Unclassified errors (e.g. token provisioning failures) surface
// as 502 since the fault is on our side of the carrier boundary.
func statusForError(err error) int {
	switch shipper.KindOf(err) {
	case shipper.KindValidation:
		return http.StatusBadRequest
	case shipper.KindRateLimit:
		return http.StatusTooManyRequests
	case shipper.KindTimeout:
		return http.StatusGatewayTimeout
	case shipper.KindAuthentication,
		shipper.KindHTTPClient,
		shipper.KindHTTPServer,
		shipper.KindNetwork,
		shipper.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)

	payload := errorPayload{Message: err.Error()}
	var cerr *shipper.Error
	if errors.As(err, &cerr) {
		payload.Kind = string(cerr.Kind)
		payload.Message = cerr.Message
		payload.Retryable = cerr.Retryable
		if cerr.RetryAfter > 0 {
			ms := cerr.RetryAfter.Milliseconds()
			payload.RetryAfterMs = &ms
		}
	}

	json.NewEncoder(w).Encode(errorResponse{Error: payload})
}
