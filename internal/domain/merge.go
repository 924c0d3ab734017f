package domain

import (
	"dario.cat/mergo"
)

// MergeConfig fills every zero-valued field of cfg from defaults.
func MergeConfig(cfg *Config, defaults *Config) error {
	if cfg == nil || defaults == nil {
		return nil
	}

	logger := cfg.Logger
	if err := mergo.Merge(cfg, *defaults); err != nil {
		return NewStorageError("merge", "config", err)
	}
	cfg.Logger = logger
	return nil
}

// MergeStrategy overlays update onto current. Weights and parameters from update win.
func MergeStrategy(current, update LoadBalancingStrategy) (LoadBalancingStrategy, error) {
	merged := LoadBalancingStrategy{
		Algorithm:  current.Algorithm,
		Weights:    make(map[string]float64, len(current.Weights)),
		Parameters: make(map[string]interface{}, len(current.Parameters)),
	}
	for k, v := range current.Weights {
		merged.Weights[k] = v
	}
	for k, v := range current.Parameters {
		merged.Parameters[k] = v
	}

	if err := mergo.Merge(&merged, update, mergo.WithOverride); err != nil {
		return current, err
	}
	return merged, nil
}
