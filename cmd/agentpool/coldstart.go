package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/agentpool"
)

func (a *app) coldStartCommand() *cobra.Command {
	var workspaceID, userID, query string

	cmd := &cobra.Command{
		Use:   "coldstart",
		Short: "Resolve the cold start solution for a workspace and user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			return a.printJSON(pool.GetColdStartSolution(cmd.Context(), workspaceID, userID, query))
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&query, "query", "", "query text")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func (a *app) sparsityCommand() *cobra.Command {
	var workspaceID, userID, queryType string

	cmd := &cobra.Command{
		Use:   "sparsity",
		Short: "Check history density and pad sparse history with synthetic patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			result := pool.HandleDataSparsity(cmd.Context(), workspaceID, userID, queryType)
			return a.printJSON(struct {
				Sparse       bool                         `json:"sparse"`
				PatternCount int                          `json:"pattern_count"`
				Confidence   float64                      `json:"confidence"`
				Synthetic    int                          `json:"synthetic_patterns"`
				Solution     *agentpool.ColdStartSolution `json:"solution"`
			}{result.Sparse, result.PatternCount, result.Confidence, len(result.SyntheticPatterns), result.Solution})
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "workspace id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&queryType, "query-type", "", "query intent")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func (a *app) feedbackCommand() *cobra.Command {
	var solutionID string
	var success bool
	var satisfaction float64

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Apply one feedback sample to a persisted cold start solution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			var rating *float64
			if cmd.Flags().Changed("satisfaction") {
				rating = &satisfaction
			}

			updated := pool.UpdateSolutionEffectiveness(cmd.Context(), solutionID, success, rating)
			if updated == nil {
				return fmt.Errorf("cold start solution %s not found", solutionID)
			}
			return a.printJSON(updated)
		},
	}

	cmd.Flags().StringVar(&solutionID, "id", "", "solution id")
	cmd.Flags().BoolVar(&success, "success", false, "whether the policy led to a successful outcome")
	cmd.Flags().Float64Var(&satisfaction, "satisfaction", 0, "user satisfaction rating, 0 to 5")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// fixture is the YAML layout accepted by the seed command.
type fixture struct {
	Workspaces []struct {
		agentpool.Workspace `yaml:",inline"`
		ConnectionTypes     []string `yaml:"connection_types"`
	} `yaml:"workspaces"`
	Patterns []agentpool.InteractionPattern `yaml:"patterns"`
}

func (a *app) seedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load workspaces and interaction history from a YAML fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			var fx fixture
			if err := yaml.Unmarshal(data, &fx); err != nil {
				return fmt.Errorf("parse fixture %s: %w", file, err)
			}

			pool, err := a.openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			for _, ws := range fx.Workspaces {
				if err := pool.RegisterWorkspace(cmd.Context(), ws.Workspace, ws.ConnectionTypes...); err != nil {
					return err
				}
			}
			if err := pool.RecordInteractions(cmd.Context(), fx.Patterns...); err != nil {
				return err
			}

			return a.printJSON(map[string]int{
				"workspaces": len(fx.Workspaces),
				"patterns":   len(fx.Patterns),
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
