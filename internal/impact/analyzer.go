package impact

import (
	"fmt"

	"github.com/jward/ripple/internal/graph"
)

// Source is the read side of the graph the analyzer needs.
// *graph.QueryEngine satisfies it.
type Source interface {
	ResolveEntity(name string, strict bool) (graph.Node, []graph.Node, error)
	BlastRadiusDetailed(target graph.SignatureHash) ([]graph.BlastMember, error)
	DetectRelationshipType(source, candidate graph.SignatureHash) (graph.EdgeKind, error)
	Lookup(hashes []graph.SignatureHash) []graph.Node
}

// Analyzer turns a blast radius into a Report.
//
// # Thread Safety
//
// Analyzer holds no mutable state. It is as safe for concurrent use as the
// Source it reads from.
type Analyzer struct {
	src    Source
	strict bool
}

// NewAnalyzer creates an Analyzer over src. With strict set, ambiguous
// entity names fail instead of resolving to the first candidate.
func NewAnalyzer(src Source, strict bool) *Analyzer {
	return &Analyzer{src: src, strict: strict}
}

// relationshipOrder is the fixed order relationship buckets are reported in.
var relationshipOrder = []graph.EdgeKind{graph.Calls, graph.Implements, graph.Uses}

// AnalyzeBlastRadius resolves name, computes its blast radius and classifies
// the result.
//
// Every member is labelled with DetectRelationshipType, so members with no
// direct edge to the target are grouped under Uses. The kind of the hop
// through which a member entered the radius is kept in EntryRelationship.
func (a *Analyzer) AnalyzeBlastRadius(name string) (*Report, error) {
	target, alts, err := a.src.ResolveEntity(name, a.strict)
	if err != nil {
		return nil, err
	}

	members, err := a.src.BlastRadiusDetailed(target.Hash)
	if err != nil {
		return nil, fmt.Errorf("blast radius of %s: %w", name, err)
	}

	hashes := make([]graph.SignatureHash, len(members))
	for i, m := range members {
		hashes[i] = m.Hash
	}
	nodes := a.src.Lookup(hashes)
	if len(nodes) != len(members) {
		return nil, fmt.Errorf("blast radius of %s: %d members but %d nodes", name, len(members), len(nodes))
	}

	impacted := make([]ImpactedEntity, len(members))
	for i, m := range members {
		rel, err := a.src.DetectRelationshipType(target.Hash, m.Hash)
		if err != nil {
			return nil, fmt.Errorf("label %s: %w", nodes[i].Name, err)
		}
		impacted[i] = newImpactedEntity(nodes[i], rel, m)
	}
	sortImpacted(impacted)

	return buildReport(target, alts, impacted), nil
}

// buildReport partitions, groups and scores impacted entities.
func buildReport(target graph.Node, alts []graph.Node, impacted []ImpactedEntity) *Report {
	r := &Report{
		Entity:            newEntityRef(target),
		TotalImpactCount:  len(impacted),
		ProductionImpacts: []ImpactedEntity{},
		TestImpacts:       []ImpactedEntity{},
		ByRelationship:    make(map[string][]ImpactedEntity),
	}
	for _, alt := range alts {
		r.Alternatives = append(r.Alternatives, newEntityRef(alt))
	}

	for _, e := range impacted {
		if IsTestFile(e.FilePath) {
			r.TestImpacts = append(r.TestImpacts, e)
		} else {
			r.ProductionImpacts = append(r.ProductionImpacts, e)
		}
		key := e.Relationship.String()
		r.ByRelationship[key] = append(r.ByRelationship[key], e)
	}

	r.RiskLevel = FromImpactCount(r.TotalImpactCount)
	if r.TotalImpactCount > 0 {
		r.ProductionImpactPercentage = float64(len(r.ProductionImpacts)) / float64(r.TotalImpactCount) * 100
	}
	r.IsHighRiskForProduction = (r.RiskLevel == RiskHigh || r.RiskLevel == RiskCritical) &&
		len(r.ProductionImpacts) > productionRiskThreshold
	return r
}
