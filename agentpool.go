// Package agentpool dispatches work across pools of typed agent instances
// and resolves default execution policies for workspaces and users that
// have little or no interaction history.
//
// Each agent type owns a pool of instances. A dispatch selects one instance
// with a configurable algorithm, marks it busy, runs the caller's work unit
// outside any lock and feeds the outcome back into the instance's rolling
// response time and success rate. A background health loop recovers
// quarantined instances and flags stuck ones.
//
// Basic usage:
//
//	pool, err := agentpool.New(agentpool.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	pool.RegisterAgentInstance("summarizer", agentpool.NewAgentInstance("s-1", "summarizer", 10))
//	pool.RegisterCapability(agentpool.CapabilityFunc{Type: "summarizer", Fn: summarize})
//	pool.Start(ctx)
//
//	result, err := pool.Execute(ctx, "summarizer", agentpool.DispatchContext{Query: "..."})
//
// Cold start:
//
//	solution := pool.GetColdStartSolution(ctx, workspaceID, userID, query)
//	pool.UpdateSolutionEffectiveness(ctx, solution.ID, true, &rating)
package agentpool

import (
	"github.com/eleven-am/agentpool/internal/core"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// Manager owns the instance pools, the scheduler, the health loop and the
// cold start resolver.
type Manager = core.Manager

// Collaborators replaces the pattern store or workspace directory that the
// manager would otherwise build from Config.Storage.
type Collaborators = core.Collaborators

// AgentInstance is one running worker behind an agent type, with its live
// load and rolling health metrics.
type AgentInstance = domain.AgentInstance

// InstanceStatus is the scheduling state of an instance.
type InstanceStatus = domain.InstanceStatus

const (
	InstanceStatusIdle        = domain.InstanceStatusIdle
	InstanceStatusBusy        = domain.InstanceStatusBusy
	InstanceStatusError       = domain.InstanceStatusError
	InstanceStatusMaintenance = domain.InstanceStatusMaintenance
)

// DispatchContext describes one unit of work: priority, expected duration
// and resource requirements.
type DispatchContext = domain.DispatchContext

type ResourceRequirements = domain.ResourceRequirements

// LoadBalancingDecision is the outcome of a selection, with the chosen
// instance, confidence, estimated wait and fallback instances.
type LoadBalancingDecision = domain.LoadBalancingDecision

type ExecutionResult = domain.ExecutionResult

// LoadBalancingStrategy binds an algorithm and its parameters to an agent type.
type LoadBalancingStrategy = domain.LoadBalancingStrategy

type LoadBalancingAlgorithm = domain.LoadBalancingAlgorithm

const (
	AlgorithmRoundRobin         = domain.AlgorithmRoundRobin
	AlgorithmLeastConnections   = domain.AlgorithmLeastConnections
	AlgorithmWeightedRoundRobin = domain.AlgorithmWeightedRoundRobin
	AlgorithmLeastResponseTime  = domain.AlgorithmLeastResponseTime
	AlgorithmAdaptive           = domain.AlgorithmAdaptive
)

// SystemMetrics aggregates every registered instance at one point in time.
type SystemMetrics = domain.SystemMetrics

type HealthClassification = domain.HealthClassification

const (
	HealthHealthy  = domain.HealthHealthy
	HealthDegraded = domain.HealthDegraded
	HealthCritical = domain.HealthCritical
)

// AgentCapability runs a work unit on a selected instance.
type AgentCapability = ports.AgentCapability

// CapabilityFunc adapts a function to AgentCapability.
type CapabilityFunc = ports.CapabilityFunc

// PatternStore is the interaction history collaborator.
type PatternStore = ports.PatternStore

// WorkspaceDirectory exposes workspace metadata for similarity scoring.
type WorkspaceDirectory = ports.WorkspaceDirectory

type Workspace = domain.Workspace

type InteractionPattern = domain.InteractionPattern

type PatternQuery = domain.PatternQuery

// ColdStartSolution is a policy recommendation for a workspace and user.
type ColdStartSolution = domain.ColdStartSolution

type SolutionType = domain.SolutionType

const (
	SolutionTransferLearning = domain.SolutionTransferLearning
	SolutionSimilarWorkspace = domain.SolutionSimilarWorkspace
	SolutionDefaultStrategy  = domain.SolutionDefaultStrategy
	SolutionSyntheticData    = domain.SolutionSyntheticData
)

type SparsityResult = domain.SparsityResult

// ColdStartStats counts resolutions by solution type, cache hits, feedback
// samples and sparsity checks.
type ColdStartStats = domain.ColdStartStats

type SimilarityMatch = domain.SimilarityMatch

// DispatchError reports why a dispatch could not reach a work unit.
type DispatchError = domain.DispatchError

var (
	ErrNoInstancesAvailable = domain.ErrNoInstancesAvailable
	ErrNoEligibleInstances  = domain.ErrNoEligibleInstances
	ErrUnknownAlgorithm     = domain.ErrUnknownAlgorithm
	ErrWorkPanicked         = domain.ErrWorkPanicked
	ErrCapabilityNotFound   = domain.ErrCapabilityNotFound
	ErrInstanceNotFound     = domain.ErrInstanceNotFound
	ErrInvalidInput         = domain.ErrInvalidInput
	ErrInvalidConfig        = domain.ErrInvalidConfig
	ErrAlreadyStarted       = domain.ErrAlreadyStarted
	ErrNotStarted           = domain.ErrNotStarted
)

// New creates a manager from config. A nil config uses DefaultConfig.
func New(config *Config) (*Manager, error) {
	return core.New(config)
}

// NewWithCollaborators creates a manager that uses the given store and
// directory instead of the configured storage backend.
func NewWithCollaborators(config *Config, collab Collaborators) (*Manager, error) {
	return core.NewWithCollaborators(config, collab)
}

// NewAgentInstance returns an idle instance with a success rate of 1.
func NewAgentInstance(id, agentType string, maxLoad float64) AgentInstance {
	return domain.NewAgentInstance(id, agentType, maxLoad)
}
