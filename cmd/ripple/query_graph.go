package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/ripple"
)

// neighborCmd builds callers, implementors and users, which differ only in
// the lookup they run.
func (a *app) neighborCmd(use, short string, lookup func(*ripple.QueryBuilder, ripple.SignatureHash) ([]ripple.Node, error)) *cobra.Command {
	name := use
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, name, func(qb *ripple.QueryBuilder) (CLIResult, error) {
				target, err := resolveName(qb, args[0])
				if err != nil {
					return CLIResult{}, err
				}
				nodes, err := lookup(qb, target.Hash)
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: entitiesToCLI(nodes), TotalCount: intPtr(len(nodes))}, nil
			})
		},
	}
}

func (a *app) callersCmd() *cobra.Command {
	return a.neighborCmd("callers", "List the direct callers of an entity", (*ripple.QueryBuilder).Callers)
}

func (a *app) implementorsCmd() *cobra.Command {
	return a.neighborCmd("implementors", "List the entities implementing an interface or trait", (*ripple.QueryBuilder).Implementors)
}

func (a *app) usersCmd() *cobra.Command {
	return a.neighborCmd("users", "List the entities using a type", (*ripple.QueryBuilder).Users)
}

func (a *app) callGraphCmd() *cobra.Command {
	var (
		depth   int
		callees bool
	)
	cmd := &cobra.Command{
		Use:   "callgraph <name>",
		Short: "Show transitive callers (or callees) of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "callgraph", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				root, err := resolveName(qb, args[0])
				if err != nil {
					return CLIResult{}, err
				}
				walk := qb.TransitiveCallers
				if callees {
					walk = qb.TransitiveCallees
				}
				cg, err := walk(root.Hash, depth)
				if err != nil {
					return CLIResult{}, err
				}
				out := CLICallGraph{Root: entityToCLI(cg.Root), Depth: cg.Depth}
				for _, n := range cg.Nodes {
					out.Nodes = append(out.Nodes, CLICallGraphNode{CLIEntity: entityToCLI(n.Entity), Depth: n.Depth})
				}
				return CLIResult{Results: out}, nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 5, "maximum number of hops")
	cmd.Flags().BoolVar(&callees, "callees", false, "walk callees instead of callers")
	return cmd
}

func (a *app) hotspotsCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "List the most referenced entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "hotspots", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				hs, err := qb.Hotspots(top)
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: hotspotsToCLI(hs)}, nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of entities to list")
	return cmd
}

func (a *app) unusedCmd() *cobra.Command {
	var (
		kinds      []string
		pathPrefix string
	)
	cmd := &cobra.Command{
		Use:   "unused",
		Short: "List entities nothing references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "unused", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				filter, err := buildFilter(kinds, pathPrefix)
				if err != nil {
					return CLIResult{}, err
				}
				page, err := qb.UnusedEntities(filter, a.buildSort(), a.buildPagination())
				if err != nil {
					return CLIResult{}, err
				}
				return CLIResult{Results: entityResultsToCLI(page.Items), TotalCount: intPtr(page.TotalCount)}, nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to these entity kinds")
	cmd.Flags().StringVar(&pathPrefix, "path", "", "restrict to files under this path")
	return cmd
}
