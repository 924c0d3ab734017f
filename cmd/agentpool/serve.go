package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/eleven-am/agentpool"
	"github.com/eleven-am/agentpool/internal/adapters/observability"
)

func (a *app) serveCommand() *cobra.Command {
	opts := simulateOptions{}
	var addr string
	var perSecond float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool under synthetic load and expose health and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			pool, err := agentpool.New(cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := syntheticCapabilities(pool, opts); err != nil {
				return err
			}
			if err := pool.Start(ctx); err != nil {
				return err
			}
			defer pool.Stop()

			server := observability.NewServer(observability.Config{Addr: addr}, pool, cfg.Logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Start(gctx)
			})
			g.Go(func() error {
				driveLoad(gctx, pool, opts.agentTypes, perSecond)
				return nil
			})
			return g.Wait()
		},
	}

	flags := cmd.Flags()
	bindSimulateFlags(flags, &opts)
	flags.StringVar(&addr, "addr", observability.DefaultConfig().Addr, "listen address of the status server")
	flags.Float64Var(&perSecond, "rate", 20, "synthetic dispatches per second, 0 disables load")
	return cmd
}

// driveLoad dispatches synthetic units at perSecond, rotating through agent
// types, until ctx is done. It returns once every dispatched unit finished.
func driveLoad(ctx context.Context, pool *agentpool.Manager, agentTypes []string, perSecond float64) {
	if perSecond <= 0 || len(agentTypes) == 0 {
		<-ctx.Done()
		return
	}

	var inflight errgroup.Group
	defer func() { _ = inflight.Wait() }()

	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	for i := 0; ; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		agentType := agentTypes[i%len(agentTypes)]
		inflight.Go(func() error {
			_, _ = pool.Execute(ctx, agentType, syntheticDispatch())
			return nil
		})
	}
}
