package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/ripple"
)

// formatEntitiesText formats CLIEntity results as aligned columns.
func formatEntitiesText(w io.Writer, ents []CLIEntity) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tREFS")
	for _, e := range ents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.Name, e.Kind, e.File, e.Line, e.RefCount)
	}
	tw.Flush()
}

// formatImpactedText formats blast radius members as aligned columns.
func formatImpactedText(w io.Writer, ents []CLIImpacted) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tVIA\tDEPTH")
	for _, e := range ents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n", e.Name, e.Kind, e.File, e.Line, e.Relationship, e.Depth)
	}
	tw.Flush()
}

// formatLocationsText formats where results as "file:line" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		if !loc.Found {
			fmt.Fprintf(w, "%s: not found\n", loc.Name)
			continue
		}
		fmt.Fprintf(w, "%s:%d\t%s\n", loc.File, loc.Line, loc.Name)
	}
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tENTITIES")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\n", f.Path, f.EntityCount)
	}
	tw.Flush()
}

func formatKindsText(w io.Writer, kinds []CLIKindCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOUNT")
	for _, k := range kinds {
		fmt.Fprintf(tw, "%s\t%d\n", k.Kind, k.Count)
	}
	tw.Flush()
}

func formatHotspotsText(w io.Writer, hs []CLIHotspot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tEXTERNAL\tCALLERS\tCALLEES")
	for _, h := range hs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			h.Name, h.Kind, h.File, h.Line, h.ExternalRefCount, h.CallerCount, h.CalleeCount)
	}
	tw.Flush()
}

// formatStatsText formats CLIStats as readable text.
func formatStatsText(w io.Writer, s CLIStats) {
	fmt.Fprintln(w, "Project Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Status:   %s\n", s.Status)
	fmt.Fprintf(w, "Files:    %d\n", s.Files)
	fmt.Fprintf(w, "Entities: %d\n", s.Entities)
	fmt.Fprintf(w, "Edges:    %d\n", s.Edges)
	fmt.Fprintln(w)

	if len(s.Kinds) > 0 {
		fmt.Fprintln(w, "Entity Kinds:")
		for _, k := range s.Kinds {
			fmt.Fprintf(w, "  %s: %d\n", k.Kind, k.Count)
		}
		fmt.Fprintln(w)
	}

	if len(s.EdgeCounts) > 0 {
		fmt.Fprintln(w, "Relationships:")
		kinds := make([]string, 0, len(s.EdgeCounts))
		for k := range s.EdgeCounts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", k, s.EdgeCounts[k])
		}
		fmt.Fprintln(w)
	}

	if len(s.Hotspots) > 0 {
		fmt.Fprintln(w, "Top Entities by External References:")
		for _, h := range s.Hotspots {
			fmt.Fprintf(w, "  %s (%s) - %d refs\n", h.Name, h.Kind, h.ExternalRefCount)
		}
	}
}

func formatDetailText(w io.Writer, d CLIDetail) {
	fmt.Fprintf(w, "%s (%s) %s:%d\n", d.Entity.Name, d.Entity.Kind, d.Entity.File, d.Entity.Line)
	fmt.Fprintf(w, "  %s\n", d.Entity.Signature)
	writeRelations(w, "Incoming", d.Incoming)
	writeRelations(w, "Outgoing", d.Outgoing)
}

func writeRelations(w io.Writer, title string, rs []CLIRelation) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(rs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, r := range rs {
		fmt.Fprintf(w, "  %-10s %s (%s) %s:%d\n", r.Kind, r.Entity.Name, r.Entity.Kind, r.Entity.File, r.Entity.Line)
	}
}

func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "%s (%s) %s:%d\n", h.Entity.Name, h.Entity.Kind, h.Entity.File, h.Entity.Line)
	writeEntityList(w, "Implements", h.Implements)
	writeEntityList(w, "Implemented by", h.ImplementedBy)
	writeEntityList(w, "Used by", h.UsedBy)
}

func writeEntityList(w io.Writer, title string, es []CLIEntity) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(es) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range es {
		fmt.Fprintf(w, "  %s (%s) %s:%d\n", e.Name, e.Kind, e.File, e.Line)
	}
}

func formatCallGraphText(w io.Writer, cg CLICallGraph) {
	for _, n := range cg.Nodes {
		fmt.Fprintf(w, "%s%s (%s) %s:%d\n", strings.Repeat("  ", n.Depth), n.Name, n.Kind, n.File, n.Line)
	}
}

func formatPackageGraphText(w io.Writer, g CLIPackageGraph) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tFILES\tENTITIES")
	for _, p := range g.Packages {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", p.Name, p.FileCount, p.EntityCount)
	}
	tw.Flush()
	if len(g.Edges) == 0 {
		return
	}
	fmt.Fprintln(w, "\nDependencies:")
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s -> %s (%d)\n", e.From, e.To, e.Count)
	}
}

func formatCyclesText(w io.Writer, cycles [][]string) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No circular dependencies")
		return
	}
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c, " -> "))
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case *ripple.ImpactReport:
		io.WriteString(w, v.Summary())
	case []CLIEntity:
		formatEntitiesText(w, v)
	case CLIEntity:
		formatEntitiesText(w, []CLIEntity{v})
	case []CLIImpacted:
		formatImpactedText(w, v)
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIKindCount:
		formatKindsText(w, v)
	case []CLIHotspot:
		formatHotspotsText(w, v)
	case CLIStats:
		formatStatsText(w, v)
	case CLIDetail:
		formatDetailText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case CLICallGraph:
		formatCallGraphText(w, v)
	case CLIPackageGraph:
		formatPackageGraphText(w, v)
	case [][]string:
		formatCyclesText(w, v)
	case CLIIndexSummary:
		fmt.Fprintf(w, "%d scanned, %d indexed, %d unchanged, %d removed, %d relationships\n",
			v.Scanned, v.Indexed, v.Unchanged, v.Removed, v.Relationships)
	case nil:
	default:
		// Script results are arbitrary values.
		fmt.Fprintf(w, "%v\n", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIEntity:
		return len(r)
	case []CLIImpacted:
		return len(r)
	case []CLILocation:
		return len(r)
	case []CLIFile:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
