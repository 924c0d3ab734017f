package domain

import (
	"time"
)

// InteractionPattern is one historical query outcome.
type InteractionPattern struct {
	ID                    string    `json:"id" yaml:"id"`
	WorkspaceID           string    `json:"workspace_id" yaml:"workspace_id"`
	UserID                string    `json:"user_id" yaml:"user_id"`
	QueryIntent           string    `json:"query_intent" yaml:"query_intent"`
	ProcessingStrategy    string    `json:"processing_strategy" yaml:"processing_strategy"`
	Success               bool      `json:"success" yaml:"success"`
	ExecutionTimeMs       float64   `json:"execution_time_ms" yaml:"execution_time_ms"`
	UserSatisfactionScore *float64  `json:"user_satisfaction_score,omitempty" yaml:"user_satisfaction_score,omitempty"`
	Synthetic             bool      `json:"synthetic" yaml:"synthetic"`
	CreatedAt             time.Time `json:"created_at" yaml:"created_at"`
}

// PatternQuery filters interaction patterns. Zero-valued fields do not filter.
type PatternQuery struct {
	WorkspaceID      string
	UserID           string
	ExcludeUserID    string
	QueryIntent      string
	SuccessOnly      bool
	RatedOnly        bool
	IncludeSynthetic bool
	Limit            int
}

// Matches applies every filter except Limit.
func (q PatternQuery) Matches(p *InteractionPattern) bool {
	if q.WorkspaceID != "" && p.WorkspaceID != q.WorkspaceID {
		return false
	}
	if q.UserID != "" && p.UserID != q.UserID {
		return false
	}
	if q.ExcludeUserID != "" && p.UserID == q.ExcludeUserID {
		return false
	}
	if q.QueryIntent != "" && p.QueryIntent != q.QueryIntent {
		return false
	}
	if q.SuccessOnly && !p.Success {
		return false
	}
	if q.RatedOnly && p.UserSatisfactionScore == nil {
		return false
	}
	if !q.IncludeSynthetic && p.Synthetic {
		return false
	}
	return true
}

type Workspace struct {
	ID             string `json:"id" yaml:"id"`
	OrganizationID string `json:"organization_id" yaml:"organization_id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
}

type SimilarityFactors struct {
	Domain       float64 `json:"domain"`
	QueryPattern float64 `json:"query_pattern"`
	DataSource   float64 `json:"data_source"`
	UserBehavior float64 `json:"user_behavior"`
}

// SimilarityMatch ranks a candidate workspace or user against the subject.
type SimilarityMatch struct {
	WorkspaceID            string            `json:"workspace_id,omitempty"`
	UserID                 string            `json:"user_id,omitempty"`
	Score                  float64           `json:"score"`
	Factors                SimilarityFactors `json:"factors"`
	TransferableStrategies []string          `json:"transferable_strategies"`
}
