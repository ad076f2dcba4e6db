package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/ripple"
)

// parseAt splits a "file:line" argument.
func parseAt(at string) (string, int, error) {
	i := strings.LastIndex(at, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid location %q: want file:line", at)
	}
	line, err := strconv.Atoi(at[i+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid line in %q: must be a positive integer", at)
	}
	return at[:i], line, nil
}

func detailToCLI(d *ripple.EntityDetail) CLIDetail {
	return CLIDetail{
		Entity:   entityResultToCLI(d.Entity),
		Incoming: relationsToCLI(d.Incoming),
		Outgoing: relationsToCLI(d.Outgoing),
	}
}

func (a *app) detailCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "detail [name]",
		Short: "Show an entity with its direct relationships",
		Long:  "Shows the entity and every edge into and out of it. Name the entity, or use --at file:line to pick the entity whose definition encloses that line.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (at == "") == (len(args) == 0) {
				return a.outputError("detail", fmt.Errorf("requires either a name or --at file:line"))
			}
			return a.runQuery(cmd, "detail", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				if at != "" {
					file, line, err := parseAt(at)
					if err != nil {
						return CLIResult{}, err
					}
					d, err := qb.EntityDetailAt(file, line)
					if err != nil {
						return CLIResult{}, err
					}
					if d == nil {
						return CLIResult{}, fmt.Errorf("no entity found at %s:%d", file, line)
					}
					return CLIResult{Results: detailToCLI(d)}, nil
				}
				n, err := resolveName(qb, args[0])
				if err != nil {
					return CLIResult{}, err
				}
				d, err := qb.EntityDetail(n.Hash)
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: detailToCLI(d)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "file:line of the entity")
	return cmd
}

func (a *app) hierarchyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy <name>",
		Short: "Show what a type implements and what implements or uses it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "hierarchy", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				n, err := resolveName(qb, args[0])
				if err != nil {
					return CLIResult{}, err
				}
				h, err := qb.TypeHierarchy(n.Hash)
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: CLIHierarchy{
					Entity:        entityResultToCLI(h.Entity),
					Implements:    entitiesToCLI(h.Implements),
					ImplementedBy: entitiesToCLI(h.ImplementedBy),
					UsedBy:        entitiesToCLI(h.UsedBy),
				}}, nil
			})
		},
	}
}

func (a *app) packagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "Show the directory-level dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "packages", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				g, err := qb.PackageDependencyGraph()
				if err != nil {
					return CLIResult{}, err
				}
				out := CLIPackageGraph{
					Packages: make([]CLIPackage, 0, len(g.Packages)),
					Edges:    make([]CLIPackageEdge, 0, len(g.Edges)),
				}
				for _, p := range g.Packages {
					out.Packages = append(out.Packages, CLIPackage{Name: p.Name, FileCount: p.FileCount, EntityCount: p.EntityCount})
				}
				for _, e := range g.Edges {
					out.Edges = append(out.Edges, CLIPackageEdge{From: e.FromPackage, To: e.ToPackage, Count: e.EdgeCount})
				}
				return CLIResult{Results: out}, nil
			})
		},
	}
}

func (a *app) cyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "List circular dependencies between directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "cycles", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				cycles, err := qb.CircularDependencies()
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: cycles}, nil
			})
		},
	}
}
