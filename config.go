package agentpool

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/agentpool/internal/domain"
)

type Config = domain.Config

type SchedulerConfig = domain.SchedulerConfig

type HealthConfig = domain.HealthConfig

type QuarantineConfig = domain.QuarantineConfig

type ColdStartConfig = domain.ColdStartConfig

type StorageConfig = domain.StorageConfig

type StorageBackend = domain.StorageBackend

const (
	StorageMemory = domain.StorageMemory
	StorageBadger = domain.StorageBadger
	StorageSQLite = domain.StorageSQLite
)

type CircuitBreakerConfig = domain.CircuitBreakerConfig

type TracingConfig = domain.TracingConfig

func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

func DefaultSchedulerConfig() SchedulerConfig {
	return domain.DefaultSchedulerConfig()
}

func DefaultColdStartConfig() ColdStartConfig {
	return domain.DefaultColdStartConfig()
}

// LoadConfig reads a YAML config file. Unset fields take their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, fills unset fields from DefaultConfig and validates.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if err := domain.MergeConfig(cfg, domain.DefaultConfig()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: DefaultConfig()}
}

func (cb *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	cb.config.Logger = logger
	return cb
}

func (cb *ConfigBuilder) WithDefaultAlgorithm(algorithm LoadBalancingAlgorithm) *ConfigBuilder {
	cb.config.Scheduler.DefaultAlgorithm = algorithm
	return cb
}

// WithSmoothing switches rolling metrics to an exponential moving average.
func (cb *ConfigBuilder) WithSmoothing(alpha float64) *ConfigBuilder {
	cb.config.Scheduler.SmoothingAlpha = alpha
	return cb
}

func (cb *ConfigBuilder) WithHealthInterval(interval time.Duration) *ConfigBuilder {
	cb.config.Scheduler.Health.CheckInterval = interval
	return cb
}

func (cb *ConfigBuilder) WithBadger(path string) *ConfigBuilder {
	cb.config.Storage = StorageConfig{Backend: StorageBadger, Path: path}
	return cb
}

func (cb *ConfigBuilder) WithSQLite(path string) *ConfigBuilder {
	cb.config.Storage = StorageConfig{Backend: StorageSQLite, Path: path}
	return cb
}

func (cb *ConfigBuilder) WithoutCircuitBreaker() *ConfigBuilder {
	cb.config.CircuitBreaker.Disabled = true
	return cb
}

func (cb *ConfigBuilder) WithTracing(exporter, serviceName string) *ConfigBuilder {
	cb.config.Tracing = TracingConfig{Enabled: true, Exporter: exporter, ServiceName: serviceName}
	return cb
}

func (cb *ConfigBuilder) Build() *Config {
	return cb.config
}
