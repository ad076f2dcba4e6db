package impact

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/ripple/internal/graph"
)

// EntityRef identifies an entity the way a reader would: by name and
// location. It never carries the signature hash.
type EntityRef struct {
	Name      string           `json:"name"`
	Kind      graph.EntityKind `json:"kind"`
	FilePath  string           `json:"file_path"`
	Line      int              `json:"line"`
	Signature string           `json:"signature"`
}

func newEntityRef(n graph.Node) EntityRef {
	return EntityRef{
		Name:      n.Name,
		Kind:      n.Kind,
		FilePath:  n.FilePath,
		Line:      n.Line,
		Signature: n.Signature,
	}
}

// ImpactedEntity is one member of a blast radius. Relationship is the direct
// edge to the target, or Uses when there is none. EntryRelationship is the
// edge through which the member entered the radius.
type ImpactedEntity struct {
	EntityRef
	Relationship      graph.EdgeKind `json:"relationship"`
	EntryRelationship graph.EdgeKind `json:"entry_relationship"`
	Depth             int            `json:"depth"`
}

func newImpactedEntity(n graph.Node, rel graph.EdgeKind, m graph.BlastMember) ImpactedEntity {
	return ImpactedEntity{
		EntityRef:         newEntityRef(n),
		Relationship:      rel,
		EntryRelationship: m.Via,
		Depth:             m.Depth,
	}
}

func sortImpacted(es []ImpactedEntity) {
	sort.Slice(es, func(a, b int) bool {
		if es[a].FilePath != es[b].FilePath {
			return es[a].FilePath < es[b].FilePath
		}
		if es[a].Line != es[b].Line {
			return es[a].Line < es[b].Line
		}
		return es[a].Signature < es[b].Signature
	})
}

// Report is the result of an impact analysis.
type Report struct {
	Entity       EntityRef   `json:"entity"`
	Alternatives []EntityRef `json:"alternatives,omitempty"`

	RiskLevel        RiskLevel `json:"risk_level"`
	TotalImpactCount int       `json:"total_impact_count"`

	ProductionImpacts []ImpactedEntity            `json:"production_impacts"`
	TestImpacts       []ImpactedEntity            `json:"test_impacts"`
	ByRelationship    map[string][]ImpactedEntity `json:"by_relationship"`

	ProductionImpactPercentage float64 `json:"production_impact_percentage"`
	IsHighRiskForProduction    bool    `json:"is_high_risk_for_production"`
}

// Summary renders the report as plain text. Sections always appear in the
// same order: header, risk, totals, per-relationship counts, production
// detail, test detail.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Impact analysis: %s (%s) at %s:%d\n", r.Entity.Name, r.Entity.Kind, r.Entity.FilePath, r.Entity.Line)
	if len(r.Alternatives) > 0 {
		fmt.Fprintf(&b, "  %d other definition(s) share this name:\n", len(r.Alternatives))
		for _, alt := range r.Alternatives {
			fmt.Fprintf(&b, "    %s:%d\n", alt.FilePath, alt.Line)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Risk level: %s\n", r.RiskLevel)
	if r.IsHighRiskForProduction {
		b.WriteString("  High risk for production code\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Total impacted entities: %d\n", r.TotalImpactCount)
	fmt.Fprintf(&b, "  production: %d (%.1f%%)\n", len(r.ProductionImpacts), r.ProductionImpactPercentage)
	fmt.Fprintf(&b, "  test:       %d\n", len(r.TestImpacts))
	b.WriteString("\n")

	b.WriteString("By relationship:\n")
	for _, k := range relationshipOrder {
		fmt.Fprintf(&b, "  %-10s %d\n", k.String()+":", len(r.ByRelationship[k.String()]))
	}
	b.WriteString("\n")

	writeSection(&b, "Production impact", r.ProductionImpacts)
	b.WriteString("\n")
	writeSection(&b, "Test impact", r.TestImpacts)

	return b.String()
}

func writeSection(b *strings.Builder, title string, es []ImpactedEntity) {
	fmt.Fprintf(b, "%s:\n", title)
	if len(es) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, e := range es {
		fmt.Fprintf(b, "  - %s (%s) %s:%d [%s]\n", e.Name, e.Kind, e.FilePath, e.Line, e.Relationship)
	}
}

// NotFoundMessage converts a name-resolution failure into the message shown
// to users. Other errors are returned verbatim.
func NotFoundMessage(err error) string {
	var nf *graph.EntityNotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("could not find %s", nf.Name)
	}
	return err.Error()
}
