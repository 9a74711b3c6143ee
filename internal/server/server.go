// Package server exposes the Collatz transform over HTTP: a JSON batch
// endpoint, a health probe and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/collatz-go/collatz/internal/collatz"
	"github.com/collatz-go/collatz/internal/config"
	apperrors "github.com/collatz-go/collatz/internal/errors"
	"github.com/collatz-go/collatz/internal/logging"
	"github.com/collatz-go/collatz/internal/orchestration"
	"github.com/collatz-go/collatz/internal/sysmon"
)

// Routes served by the server.
const (
	PathTransform = "/transform"
	PathHealth    = "/health"
	PathMetrics   = "/metrics"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds the server settings. The batch settings are the defaults
// used when a request does not override them.
type Config struct {
	Addr          string
	MaxIterations int
	Threshold     int
	Workers       int

	Security        SecurityConfig
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ConfigFrom derives the server settings from the application configuration.
func ConfigFrom(cfg config.AppConfig) Config {
	return Config{
		Addr:          cfg.Serve,
		MaxIterations: cfg.MaxIterations,
		Threshold:     cfg.Threshold,
		Workers:       cfg.Workers,
		Security:      DefaultSecurityConfig(),
	}
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	logger  logging.Logger
	metrics *Metrics
}

// NewServer creates a server. Zero timeouts and a zero security
// configuration are replaced by the defaults.
func NewServer(cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Security.MaxItems <= 0 {
		cfg.Security = DefaultSecurityConfig()
	}
	return &Server{cfg: cfg, logger: logger, metrics: NewMetrics()}
}

// Handler returns the routed handler with the security and metrics
// middleware applied.
func (s *Server) Handler() http.Handler {
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(h))
	}
	mux := http.NewServeMux()
	mux.HandleFunc(PathTransform, wrap(s.handleTransform))
	mux.HandleFunc(PathHealth, wrap(s.handleHealth))
	mux.HandleFunc(PathMetrics, wrap(s.handleMetrics))
	return mux
}

// ListenAndServe listens on the configured address and serves until ctx is
// canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return apperrors.NewConfigError("cannot listen on %s: %v", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled. In-flight requests
// get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// TransformResponse is the JSON body of a successful /transform request.
type TransformResponse struct {
	RunID         string           `json:"run_id"`
	Results       []uint64         `json:"results"`
	MaxIterations int              `json:"max_iterations"`
	Strategy      string           `json:"strategy"`
	Threshold     int              `json:"threshold"`
	Workers       int              `json:"workers"`
	DurationMS    float64          `json:"duration_ms"`
	Details       []OutcomeDetails `json:"details,omitempty"`
}

// OutcomeDetails is the per-input breakdown returned with details=true.
type OutcomeDetails struct {
	Input     uint64 `json:"input"`
	Result    uint64 `json:"result"`
	Steps     int    `json:"steps"`
	Converged bool   `json:"converged"`
	Wrapped   bool   `json:"wrapped,omitempty"`
}

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status string       `json:"status"`
	System sysmon.Stats `json:"system"`
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "only GET is supported")
		return
	}

	q := r.URL.Query()
	inputs, err := parseInputs(q["n"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if len(inputs) == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid input", "query parameter n is required, e.g. ?n=1,2,3")
		return
	}
	if len(inputs) > s.cfg.Security.MaxItems {
		s.writeError(w, http.StatusRequestEntityTooLarge, "too many inputs",
			fmt.Sprintf("at most %d inputs per request, got %d", s.cfg.Security.MaxItems, len(inputs)))
		return
	}

	maxIterations, err := intParam(q.Get("max_iterations"), s.cfg.MaxIterations)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid max_iterations", err.Error())
		return
	}
	threshold, err := intParam(q.Get("threshold"), s.cfg.Threshold)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid threshold", err.Error())
		return
	}
	details := q.Get("details") == "true" || q.Get("details") == "1"

	res, err := orchestration.ExecuteBatch(r.Context(), inputs, orchestration.BatchOptions{
		MaxIterations: maxIterations,
		Threshold:     threshold,
		Workers:       s.cfg.Workers,
		Details:       details,
		Metrics:       s.metrics.Dispatch(),
		Logger:        s.logger,
	}, orchestration.NullProgressReporter{}, io.Discard)
	if err != nil {
		if apperrors.IsContextError(err) {
			s.writeError(w, http.StatusServiceUnavailable, "canceled", err.Error())
			return
		}
		s.logger.Error("transform failed", err)
		s.writeError(w, http.StatusInternalServerError, "internal error", err.Error())
		return
	}

	resp := TransformResponse{
		RunID:         res.RunID,
		Results:       res.Results,
		MaxIterations: res.MaxIterations,
		Strategy:      res.Decision.Strategy.String(),
		Threshold:     res.Decision.Threshold,
		Workers:       res.Decision.Workers,
		DurationMS:    float64(res.Duration.Microseconds()) / 1000,
	}
	if details {
		resp.Details = lo.Map(res.Outcomes, func(o collatz.Outcome, i int) OutcomeDetails {
			return OutcomeDetails{Input: inputs[i], Result: o.Value, Steps: o.Steps, Converged: o.Converged, Wrapped: o.Wrapped}
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "only GET is supported")
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", System: sysmon.Sample(r.Context())})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "only GET is supported")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// parseInputs accepts both n=1,2,3 and repeated n parameters.
func parseInputs(values []string) ([]uint64, error) {
	var tokens []string
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return config.ParseInputs(tokens)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", raw)
	}
	return v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, short, msg string) {
	s.writeJSON(w, code, ErrorResponse{Error: short, Message: msg})
}
