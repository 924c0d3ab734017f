package domain

import (
	"log/slog"
	"time"
)

type Config struct {
	Logger *slog.Logger `json:"-" yaml:"-"`

	Scheduler      SchedulerConfig      `json:"scheduler" yaml:"scheduler"`
	ColdStart      ColdStartConfig      `json:"cold_start" yaml:"cold_start"`
	Storage        StorageConfig        `json:"storage" yaml:"storage"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
	Tracing        TracingConfig        `json:"tracing" yaml:"tracing"`
}

type SchedulerConfig struct {
	DefaultAlgorithm LoadBalancingAlgorithm `json:"default_algorithm" yaml:"default_algorithm"`
	Health           HealthConfig           `json:"health" yaml:"health"`
	Quarantine       QuarantineConfig       `json:"quarantine" yaml:"quarantine"`
	FallbackCount    int                    `json:"fallback_count" yaml:"fallback_count"`
	// SmoothingAlpha switches rolling metrics to an exponential moving average.
	// Zero keeps the two-sample average.
	SmoothingAlpha float64 `json:"smoothing_alpha" yaml:"smoothing_alpha"`
	ClaimAttempts  int     `json:"claim_attempts" yaml:"claim_attempts"`
}

type HealthConfig struct {
	CheckInterval       time.Duration `json:"check_interval" yaml:"check_interval"`
	RecoveryWindow      time.Duration `json:"recovery_window" yaml:"recovery_window"`
	StuckThreshold      time.Duration `json:"stuck_threshold" yaml:"stuck_threshold"`
	HistorySize         int           `json:"history_size" yaml:"history_size"`
	BottleneckThreshold float64       `json:"bottleneck_threshold" yaml:"bottleneck_threshold"`
	CriticalErrorRatio  float64       `json:"critical_error_ratio" yaml:"critical_error_ratio"`
	CriticalSuccessRate float64       `json:"critical_success_rate" yaml:"critical_success_rate"`
	DegradedErrorRatio  float64       `json:"degraded_error_ratio" yaml:"degraded_error_ratio"`
	DegradedSuccessRate float64       `json:"degraded_success_rate" yaml:"degraded_success_rate"`
}

// QuarantineConfig decides when a failing instance is moved to error.
type QuarantineConfig struct {
	ErrorCount  int64   `json:"error_count" yaml:"error_count"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

type ColdStartConfig struct {
	SimilarityThreshold       float64       `json:"similarity_threshold" yaml:"similarity_threshold"`
	CandidateWorkspaceLimit   int           `json:"candidate_workspace_limit" yaml:"candidate_workspace_limit"`
	ComparisonPatternLimit    int           `json:"comparison_pattern_limit" yaml:"comparison_pattern_limit"`
	TransferPatternLimit      int           `json:"transfer_pattern_limit" yaml:"transfer_pattern_limit"`
	UserPatternLimit          int           `json:"user_pattern_limit" yaml:"user_pattern_limit"`
	CandidateUserPatternLimit int           `json:"candidate_user_pattern_limit" yaml:"candidate_user_pattern_limit"`
	SimilarUserPatternLimit   int           `json:"similar_user_pattern_limit" yaml:"similar_user_pattern_limit"`
	FallbackStrategyCount     int           `json:"fallback_strategy_count" yaml:"fallback_strategy_count"`
	SparsityThreshold         int           `json:"sparsity_threshold" yaml:"sparsity_threshold"`
	SyntheticRecordCount      int           `json:"synthetic_record_count" yaml:"synthetic_record_count"`
	SyntheticWindow           time.Duration `json:"synthetic_window" yaml:"synthetic_window"`
	DefaultQueryLength        int           `json:"default_query_length" yaml:"default_query_length"`
}

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageBadger StorageBackend = "badger"
	StorageSQLite StorageBackend = "sqlite"
)

type StorageConfig struct {
	Backend  StorageBackend `json:"backend" yaml:"backend"`
	Path     string         `json:"path" yaml:"path"`
	InMemory bool           `json:"in_memory" yaml:"in_memory"`
}

// CircuitBreakerConfig guards pattern store reads. Zero values take defaults,
// so the breaker is switched off with Disabled rather than Enabled=false.
type CircuitBreakerConfig struct {
	Disabled    bool          `json:"disabled" yaml:"disabled"`
	MaxFailures uint32        `json:"max_failures" yaml:"max_failures"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Interval    time.Duration `json:"interval" yaml:"interval"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Exporter    string `json:"exporter" yaml:"exporter"`
	ServiceName string `json:"service_name" yaml:"service_name"`
}
