package ports

import (
	"context"

	"github.com/eleven-am/agentpool/internal/domain"
)

// AgentCapability runs one unit of work on a chosen instance. Implementations
// are keyed by the agent type they serve.
type AgentCapability interface {
	AgentType() string
	Execute(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error)
}

// CapabilityFunc adapts a function to AgentCapability.
type CapabilityFunc struct {
	Type string
	Fn   func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error)
}

func (c CapabilityFunc) AgentType() string {
	return c.Type
}

func (c CapabilityFunc) Execute(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
	return c.Fn(ctx, instance, dispatch)
}
