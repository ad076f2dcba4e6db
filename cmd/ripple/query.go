package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/ripple"
	"github.com/jward/ripple/internal/store"
)

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the relationship graph",
		Long:  "Load the indexed database into memory and run queries against it. Entities are named by their bare name or by path::Name to pick a definition in one file.",
	}
	pf := cmd.PersistentFlags()
	pf.IntVar(&a.limit, "limit", 50, "pagination limit (max 500)")
	pf.IntVar(&a.offset, "offset", 0, "pagination offset")
	pf.StringVar(&a.sortBy, "sort", "", "sort field: name|kind|file|ref_count|external_ref_count")
	pf.StringVar(&a.order, "order", "asc", "sort order: asc|desc")

	cmd.AddCommand(
		a.impactCmd(),
		a.blastCmd(),
		a.callersCmd(),
		a.implementorsCmd(),
		a.usersCmd(),
		a.callGraphCmd(),
		a.whereCmd(),
		a.fileCmd(),
		a.listCmd(),
		a.searchCmd(),
		a.filesCmd(),
		a.kindsCmd(),
		a.statsCmd(),
		a.hotspotsCmd(),
		a.unusedCmd(),
		a.detailCmd(),
		a.hierarchyCmd(),
		a.packagesCmd(),
		a.cyclesCmd(),
	)
	return cmd
}

// --- Helpers ---

// openEngine loads the database found from the --db flag (or default) into
// a fresh Engine.
func (a *app) openEngine(ctx context.Context) (*ripple.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := a.resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'ripple index' first)", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	e := ripple.New(ripple.WithConfig(a.cfg), ripple.WithLogger(a.logger))
	if _, err := e.LoadFrom(ctx, s); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dbPath, err)
	}
	return e, nil
}

// resolveName maps a user-supplied name to one entity.
func resolveName(qb *ripple.QueryBuilder, name string) (ripple.Node, error) {
	n, _, err := qb.Resolve(name)
	return n, err
}

// output marshals a CLIResult to stdout in the selected format.
func (a *app) output(result CLIResult) error {
	if a.format == "text" {
		return outputResultText(a.stdout, result)
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func (a *app) outputError(command string, err error) error {
	a.errorHandled = true
	msg := ripple.NotFoundMessage(err)
	if a.format == "text" {
		fmt.Fprintf(a.stderr, "Error: %s\n", msg)
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: msg})
	return err
}

// buildPagination creates a Pagination from CLI flags.
func (a *app) buildPagination() ripple.Pagination {
	return ripple.Pagination{Limit: a.limit, Offset: a.offset}
}

// buildSort creates a Sort from CLI flags.
func (a *app) buildSort() ripple.Sort {
	var field ripple.SortField
	switch a.sortBy {
	case "kind":
		field = ripple.SortByKind
	case "file":
		field = ripple.SortByFile
	case "ref_count":
		field = ripple.SortByRefCount
	case "external_ref_count":
		field = ripple.SortByExternalRefCount
	default:
		field = ripple.SortByName
	}

	order := ripple.Asc
	if a.order == "desc" {
		order = ripple.Desc
	}
	return ripple.Sort{Field: field, Order: order}
}

// buildFilter creates an EntityFilter from the --kind and --path flags.
func buildFilter(kinds []string, pathPrefix string) (ripple.EntityFilter, error) {
	var f ripple.EntityFilter
	for _, k := range kinds {
		kind, ok := ripple.ParseEntityKind(k)
		if !ok {
			return f, fmt.Errorf("unknown entity kind %q", k)
		}
		f.Kinds = append(f.Kinds, kind)
	}
	if pathPrefix != "" {
		f.PathPrefix = &pathPrefix
	}
	return f, nil
}

// runQuery opens the engine and hands it to fn. Any error is reported under
// the command's name.
func (a *app) runQuery(cmd *cobra.Command, name string, fn func(qb *ripple.QueryBuilder) (CLIResult, error)) error {
	e, err := a.openEngine(cmd.Context())
	if err != nil {
		return a.outputError(name, err)
	}
	result, err := fn(e.Query())
	if err != nil {
		return a.outputError(name, err)
	}
	result.Command = name
	return a.output(result)
}

func intPtr(n int) *int { return &n }
