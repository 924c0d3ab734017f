package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/eleven-am/agentpool"
)

var errSimulatedFailure = errors.New("simulated failure")

type simulateOptions struct {
	agentTypes  []string
	instances   int
	dispatches  int
	concurrency int
	failureRate float64
	maxLatency  time.Duration
	algorithm   string
	seed        uint64
}

type simulateReport struct {
	Dispatches int                                        `json:"dispatches"`
	Succeeded  int64                                      `json:"succeeded"`
	Failures   map[string]int64                           `json:"failures"`
	Metrics    agentpool.SystemMetrics                    `json:"metrics"`
	History    []agentpool.SystemMetrics                  `json:"history"`
	Instances  []agentpool.AgentInstance                  `json:"instances"`
	Strategies map[string]agentpool.LoadBalancingStrategy `json:"strategies"`
}

func (a *app) simulateCommand() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run synthetic dispatches through the pool and report metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			report, err := runSimulation(cmd.Context(), pool, opts)
			if err != nil {
				return err
			}
			return a.printJSON(report)
		},
	}

	flags := cmd.Flags()
	bindSimulateFlags(flags, &opts)
	flags.IntVar(&opts.dispatches, "dispatches", 200, "total dispatches")
	flags.IntVar(&opts.concurrency, "concurrency", 16, "concurrent dispatches")
	return cmd
}

func bindSimulateFlags(flags *pflag.FlagSet, opts *simulateOptions) {
	flags.StringSliceVar(&opts.agentTypes, "agent-types", []string{"summarizer", "retriever", "writer"}, "agent types to register")
	flags.IntVar(&opts.instances, "instances", 3, "instances per agent type")
	flags.Float64Var(&opts.failureRate, "failure-rate", 0.05, "probability that a work unit fails")
	flags.DurationVar(&opts.maxLatency, "max-latency", 20*time.Millisecond, "upper bound of simulated work latency")
	flags.StringVar(&opts.algorithm, "algorithm", "", "load balancing algorithm for every agent type")
	flags.Uint64Var(&opts.seed, "seed", 1, "random seed")
}

// syntheticCapabilities registers instances and a random latency and failure
// capability for every agent type in opts.
func syntheticCapabilities(pool *agentpool.Manager, opts simulateOptions) error {
	if len(opts.agentTypes) == 0 || opts.instances <= 0 {
		return fmt.Errorf("%w: at least one agent type and one instance are required", agentpool.ErrInvalidInput)
	}

	var rngMu sync.Mutex
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	draw := func() (time.Duration, bool) {
		rngMu.Lock()
		defer rngMu.Unlock()
		var latency time.Duration
		if opts.maxLatency > 0 {
			latency = time.Duration(rng.Int64N(int64(opts.maxLatency)))
		}
		return latency, rng.Float64() < opts.failureRate
	}

	for _, agentType := range opts.agentTypes {
		for i := 0; i < opts.instances; i++ {
			instance := agentpool.NewAgentInstance(fmt.Sprintf("%s-%d", agentType, i+1), agentType, 10)
			if err := pool.RegisterAgentInstance(agentType, instance); err != nil {
				return err
			}
		}

		if opts.algorithm != "" {
			strategy := agentpool.LoadBalancingStrategy{Algorithm: agentpool.LoadBalancingAlgorithm(opts.algorithm)}
			if err := pool.SetLoadBalancingStrategy(agentType, strategy); err != nil {
				return err
			}
		}

		if err := pool.RegisterCapability(agentpool.CapabilityFunc{
			Type: agentType,
			Fn: func(ctx context.Context, instance agentpool.AgentInstance, _ agentpool.DispatchContext) (interface{}, error) {
				latency, fail := draw()
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(latency):
				}
				if fail {
					return nil, errSimulatedFailure
				}
				return instance.ID, nil
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func syntheticDispatch() agentpool.DispatchContext {
	return agentpool.DispatchContext{
		Priority:     1,
		Requirements: agentpool.ResourceRequirements{CPU: 1},
	}
}

func runSimulation(ctx context.Context, pool *agentpool.Manager, opts simulateOptions) (*simulateReport, error) {
	if opts.concurrency <= 0 {
		opts.concurrency = 1
	}
	if err := syntheticCapabilities(pool, opts); err != nil {
		return nil, err
	}

	if err := pool.Start(ctx); err != nil {
		return nil, err
	}
	defer pool.Stop()

	var succeeded atomic.Int64
	var failMu sync.Mutex
	failures := make(map[string]int64)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i := 0; i < opts.dispatches; i++ {
		agentType := opts.agentTypes[i%len(opts.agentTypes)]
		g.Go(func() error {
			_, err := pool.Execute(gctx, agentType, syntheticDispatch())
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			failMu.Lock()
			failures[failureKind(err)]++
			failMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sweep := pool.SweepHealth(ctx)

	report := &simulateReport{
		Dispatches: opts.dispatches,
		Succeeded:  succeeded.Load(),
		Failures:   failures,
		Metrics:    sweep.Metrics,
		History:    pool.GetMetricsHistory(),
		Instances:  []agentpool.AgentInstance{},
		Strategies: make(map[string]agentpool.LoadBalancingStrategy, len(opts.agentTypes)),
	}
	for _, agentType := range opts.agentTypes {
		report.Instances = append(report.Instances, pool.Instances(agentType)...)
		report.Strategies[agentType] = pool.GetLoadBalancingStrategy(agentType)
	}
	return report, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, errSimulatedFailure):
		return "work"
	case errors.Is(err, agentpool.ErrNoEligibleInstances):
		return "no_eligible_instances"
	case errors.Is(err, agentpool.ErrNoInstancesAvailable):
		return "no_instances"
	case errors.Is(err, agentpool.ErrWorkPanicked):
		return "panic"
	default:
		return "other"
	}
}
