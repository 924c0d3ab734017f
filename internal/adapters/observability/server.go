package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/xjson"
)

// PoolStatus is the read side of a running pool exposed over HTTP.
type PoolStatus interface {
	IsRunning() bool
	GetSystemMetrics() domain.SystemMetrics
	GetMetricsHistory() []domain.SystemMetrics
	Instances(agentType string) []domain.AgentInstance
}

type Server struct {
	config    Config
	server    *http.Server
	logger    *slog.Logger
	pool      PoolStatus
	startTime time.Time
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
}

type HealthResponse struct {
	Status    string                      `json:"status"`
	Health    domain.HealthClassification `json:"health"`
	Timestamp time.Time                   `json:"timestamp"`
	Uptime    string                      `json:"uptime"`
	Running   bool                        `json:"running"`
	Error     string                      `json:"error,omitempty"`
}

type MetricsResponse struct {
	Timestamp time.Time            `json:"timestamp"`
	Runtime   RuntimeMetrics       `json:"runtime"`
	Pool      domain.SystemMetrics `json:"pool"`
}

type RuntimeMetrics struct {
	GoVersion    string        `json:"go_version"`
	NumCPU       int           `json:"num_cpu"`
	NumGoroutine int           `json:"num_goroutine"`
	HeapAlloc    uint64        `json:"heap_alloc_bytes"`
	HeapObjects  uint64        `json:"heap_objects"`
	NumGC        uint32        `json:"gc_cycles"`
	PauseTotalNs uint64        `json:"gc_pause_total_ns"`
	PID          int           `json:"pid"`
	Uptime       time.Duration `json:"uptime_ns"`
}

func NewServer(config Config, pool PoolStatus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}

	s := &Server{
		config:    config,
		logger:    logger.With("component", "observability"),
		pool:      pool,
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentpool_http_requests_total",
				Help: "Requests served by the status server",
			},
			[]string{"code", "method"},
		),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "agentpool_uptime_seconds",
				Help: "Time since the server started",
			},
			func() float64 { return time.Since(s.startTime).Seconds() },
		),
		newPoolCollector(pool),
		s.requests,
	)
	return s
}

// Registry exposes the metrics registry so callers can add collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the routed handler without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /metrics/history", s.handleHistory)
	mux.Handle("GET /metrics/prometheus", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      s.registry,
	}))
	mux.HandleFunc("GET /instances/{agentType}", s.handleInstances)

	return s.withLogging(promhttp.InstrumentHandlerCounter(s.requests, mux))
}

// Start serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting observability server", "addr", s.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("observability server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down observability server")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.pool.GetSystemMetrics()
	response := HealthResponse{
		Status:    "ok",
		Health:    metrics.Health,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Running:   s.pool.IsRunning(),
	}

	status := http.StatusOK
	if metrics.Health == domain.HealthCritical {
		response.Status = "unhealthy"
		response.Error = fmt.Sprintf("%d of %d instances in error", metrics.ErrorInstances, metrics.TotalInstances)
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.pool.IsRunning() {
		writeText(w, http.StatusServiceUnavailable, "not started")
		return
	}
	if s.pool.GetSystemMetrics().Health == domain.HealthCritical {
		writeText(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeText(w, http.StatusOK, "ready")
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "live")
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, MetricsResponse{
		Timestamp: time.Now(),
		Runtime:   s.collectRuntimeMetrics(),
		Pool:      s.pool.GetSystemMetrics(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pool.GetMetricsHistory())
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	instances := s.pool.Instances(r.PathValue("agentType"))
	if instances == nil {
		instances = []domain.AgentInstance{}
	}
	s.writeJSON(w, http.StatusOK, instances)
}

func (s *Server) collectRuntimeMetrics() RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeMetrics{
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		HeapAlloc:    m.HeapAlloc,
		HeapObjects:  m.HeapObjects,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		PID:          os.Getpid(),
		Uptime:       time.Since(s.startTime),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := xjson.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
