package domain

import (
	"time"
)

type HealthClassification string

const (
	HealthHealthy  HealthClassification = "healthy"
	HealthDegraded HealthClassification = "degraded"
	HealthCritical HealthClassification = "critical"
)

// SystemMetrics is a point-in-time aggregate over every registered instance.
type SystemMetrics struct {
	TotalInstances      int                  `json:"total_instances"`
	ActiveInstances     int                  `json:"active_instances"`
	AvailableInstances  int                  `json:"available_instances"`
	ErrorInstances      int                  `json:"error_instances"`
	ActiveRatio         float64              `json:"active_ratio"`
	AverageResponseTime float64              `json:"average_response_time_ms"`
	AverageLoad         float64              `json:"average_load"`
	AverageSuccessRate  float64              `json:"average_success_rate"`
	Health              HealthClassification `json:"health"`
	Bottlenecks         []string             `json:"bottlenecks"`
	Timestamp           time.Time            `json:"timestamp"`
}
