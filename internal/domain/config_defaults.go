package domain

import (
	"fmt"
	"time"
)

func DefaultConfig() *Config {
	return &Config{
		Scheduler:      DefaultSchedulerConfig(),
		ColdStart:      DefaultColdStartConfig(),
		Storage:        DefaultStorageConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Tracing:        DefaultTracingConfig(),
	}
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DefaultAlgorithm: AlgorithmAdaptive,
		Health:           DefaultHealthConfig(),
		Quarantine:       DefaultQuarantineConfig(),
		FallbackCount:    2,
		ClaimAttempts:    3,
	}
}

func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		CheckInterval:       30 * time.Second,
		RecoveryWindow:      5 * time.Minute,
		StuckThreshold:      time.Minute,
		HistorySize:         100,
		BottleneckThreshold: 0.8,
		CriticalErrorRatio:  0.3,
		CriticalSuccessRate: 0.7,
		DegradedErrorRatio:  0.1,
		DegradedSuccessRate: 0.9,
	}
}

func DefaultQuarantineConfig() QuarantineConfig {
	return QuarantineConfig{
		ErrorCount:  5,
		SuccessRate: 0.5,
	}
}

func DefaultColdStartConfig() ColdStartConfig {
	return ColdStartConfig{
		SimilarityThreshold:       0.3,
		CandidateWorkspaceLimit:   50,
		ComparisonPatternLimit:    100,
		TransferPatternLimit:      100,
		UserPatternLimit:          100,
		CandidateUserPatternLimit: 1000,
		SimilarUserPatternLimit:   50,
		FallbackStrategyCount:     3,
		SparsityThreshold:         10,
		SyntheticRecordCount:      50,
		SyntheticWindow:           30 * 24 * time.Hour,
		DefaultQueryLength:        50,
	}
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend: StorageMemory,
	}
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		Interval:    60 * time.Second,
	}
}

func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		Exporter:    "noop",
		ServiceName: "agentpool",
	}
}

func (c *Config) Validate() error {
	if !c.Scheduler.DefaultAlgorithm.Valid() {
		return fmt.Errorf("%w: scheduler.default_algorithm %q", ErrInvalidConfig, c.Scheduler.DefaultAlgorithm)
	}
	if c.Scheduler.Health.CheckInterval <= 0 {
		return fmt.Errorf("%w: scheduler.health.check_interval must be positive", ErrInvalidConfig)
	}
	if c.Scheduler.SmoothingAlpha < 0 || c.Scheduler.SmoothingAlpha > 1 {
		return fmt.Errorf("%w: scheduler.smoothing_alpha must be within [0,1]", ErrInvalidConfig)
	}
	if c.Scheduler.Health.HistorySize <= 0 {
		return fmt.Errorf("%w: scheduler.health.history_size must be positive", ErrInvalidConfig)
	}
	if c.ColdStart.SimilarityThreshold < 0 || c.ColdStart.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: cold_start.similarity_threshold must be within [0,1]", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageBadger, StorageSQLite:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return fmt.Errorf("%w: storage.path required for %s backend", ErrInvalidConfig, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}
