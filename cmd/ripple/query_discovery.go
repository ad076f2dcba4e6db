package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/ripple"
)

func (a *app) whereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where <name>...",
		Short: "Show where entities are defined",
		Long:  "Looks up every name concurrently. A name with several definitions reports the first in (file, line) order; use path::Name to pick another.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context())
			if err != nil {
				return a.outputError("where", err)
			}
			results, err := e.BatchWhereDefined(cmd.Context(), args)
			if err != nil {
				return a.outputError("where", err)
			}
			locs := make([]CLILocation, 0, len(results))
			for _, r := range results {
				locs = append(locs, CLILocation{Name: r.Name, File: r.Location.FilePath, Line: r.Location.Line, Found: r.Found})
			}
			return a.output(CLIResult{Command: "where", Results: locs})
		},
	}
}

func (a *app) fileCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "List the entities defined in a file",
		Long:  "Lists the entities of a file in line order. The path is relative to the indexed root, e.g. src/services/user.rs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "file", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				var kp *ripple.EntityKind
				if kind != "" {
					k, ok := ripple.ParseEntityKind(kind)
					if !ok {
						return CLIResult{}, fmt.Errorf("unknown entity kind %q", kind)
					}
					kp = &k
				}
				nodes := qb.EntitiesInFile(args[0], kp)
				return CLIResult{Results: entitiesToCLI(nodes), TotalCount: intPtr(len(nodes))}, nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "restrict to one entity kind")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		kinds      []string
		pathPrefix string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "list", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				filter, err := buildFilter(kinds, pathPrefix)
				if err != nil {
					return CLIResult{}, err
				}
				page, err := qb.ListEntities(filter, a.buildSort(), a.buildPagination())
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

func (a *app) searchCmd() *cobra.Command {
	var (
		kinds      []string
		pathPrefix string
	)
	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search entity names with a glob pattern",
		Long:  "Matches entity names against a glob pattern: '*' matches any run of characters, '?' a single one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "search", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				filter, err := buildFilter(kinds, pathPrefix)
				if err != nil {
					return CLIResult{}, err
				}
				page, err := qb.SearchEntities(args[0], filter, a.buildSort(), a.buildPagination())
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

func (a *app) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files [prefix]",
		Short: "List indexed files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}
			return a.runQuery(cmd, "files", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				page, err := qb.ListFiles(prefix, a.buildPagination())
				if err != nil {
					return CLIResult{}, err
				}
				files := make([]CLIFile, 0, len(page.Items))
				for _, f := range page.Items {
					files = append(files, CLIFile{Path: f.Path, EntityCount: f.EntityCount})
				}
				return CLIResult{Results: files, TotalCount: intPtr(page.TotalCount)}, nil
			})
		},
	}
}

func kindCountsToCLI(kcs []ripple.KindCount) []CLIKindCount {
	out := make([]CLIKindCount, 0, len(kcs))
	for _, kc := range kcs {
		out = append(out, CLIKindCount{Kind: string(kc.Kind), Count: kc.Count})
	}
	return out
}

func (a *app) kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "Count entities per kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, "kinds", func(qb *ripple.QueryBuilder) (CLIResult, error) {
				return CLIResult{Results: kindCountsToCLI(qb.ListEntityKinds())}, nil
			})
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the indexed project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context())
			if err != nil {
				return a.outputError("stats", err)
			}
			summary, err := e.Query().ProjectSummary(top)
			if err != nil {
				return a.outputError("stats", err)
			}
			// A degraded engine still answers; the status says so.
			health, _ := e.HealthCheck()

			stats := CLIStats{
				Files:      summary.Files,
				Entities:   summary.Entities,
				Edges:      summary.Edges,
				Kinds:      kindCountsToCLI(summary.KindCounts),
				EdgeCounts: make(map[string]int, len(summary.EdgeCounts)),
				Hotspots:   hotspotsToCLI(summary.Hotspots),
				Status:     health.Status,
			}
			for k, c := range summary.EdgeCounts {
				stats.EdgeCounts[k.String()] = c
			}
			return a.output(CLIResult{Command: "stats", Results: stats})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of hotspots to include")
	return cmd
}
