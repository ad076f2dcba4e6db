package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/ripple"
	"github.com/jward/ripple/internal/impact"
)

func (a *app) impactCmd() *cobra.Command {
	var failOn string
	cmd := &cobra.Command{
		Use:   "impact <name>",
		Short: "Report what a change to an entity would affect",
		Long:  "Computes the blast radius of the entity, splits it into production and test code and scores the risk. With --fail-on the command exits non-zero when the risk is above the given level.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var threshold ripple.RiskLevel
			if failOn != "" {
				l, ok := impact.ParseRiskLevel(failOn)
				if !ok {
					return a.outputError("impact", fmt.Errorf("invalid risk level %q: must be low, medium, high or critical", failOn))
				}
				threshold = l
			}

			e, err := a.openEngine(cmd.Context())
			if err != nil {
				return a.outputError("impact", err)
			}
			report, err := e.Query().AnalyzeImpact(cmd.Context(), args[0])
			if err != nil {
				return a.outputError("impact", err)
			}
			if err := a.output(CLIResult{Command: "impact", Results: report}); err != nil {
				return err
			}
			if threshold != "" && report.RiskLevel.Exceeds(threshold) {
				a.errorHandled = true
				err := fmt.Errorf("risk %s exceeds %s", report.RiskLevel, threshold)
				fmt.Fprintf(a.stderr, "Error: %s\n", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit 1 when the risk level is above this level (low|medium|high|critical)")
	return cmd
}

func (a *app) blastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blast <name>",
		Short: "List every entity with a path into an entity",
		Long:  "Lists the blast radius of the entity with the hop depth and the relationship through which each member was reached, ordered by depth then location.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "blast", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				target, err := resolveName(qb, args[0])
				if err != nil {
					return CLIResult{}, err
				}
				members, err := qb.BlastRadiusDetailed(target.Hash)
				if err != nil {
					return CLIResult{}, err
				}
				out := make([]CLIImpacted, 0, len(members))
				for _, m := range members {
					n, err := qb.Node(m.Hash)
					if err != nil {
						return CLIResult{}, err
					}
					out = append(out, CLIImpacted{
						CLIEntity:    entityToCLI(n),
						Relationship: m.Via.String(),
						Depth:        m.Depth,
					})
				}
				sort.Slice(out, func(i, j int) bool {
					if out[i].Depth != out[j].Depth {
						return out[i].Depth < out[j].Depth
					}
					if out[i].File != out[j].File {
						return out[i].File < out[j].File
					}
					if out[i].Line != out[j].Line {
						return out[i].Line < out[j].Line
					}
					return out[i].Signature < out[j].Signature
				})
				return CLIResult{Results: out, TotalCount: intPtr(len(out))}, nil
			})
		},
	}
}
