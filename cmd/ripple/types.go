package main

import "github.com/jward/ripple"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIEntity is a JSON-friendly entity. The signature hash is internal and
// never printed.
type CLIEntity struct {
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	File             string `json:"file"`
	Line             int    `json:"line"`
	Signature        string `json:"signature"`
	RefCount         int    `json:"ref_count,omitempty"`
	ExternalRefCount int    `json:"external_ref_count,omitempty"`
	InternalRefCount int    `json:"internal_ref_count,omitempty"`
}

// CLIImpacted is a blast radius member.
type CLIImpacted struct {
	CLIEntity
	Relationship string `json:"relationship"`
	Depth        int    `json:"depth"`
}

// CLILocation answers a where query.
type CLILocation struct {
	Name  string `json:"name"`
	File  string `json:"file,omitempty"`
	Line  int    `json:"line,omitempty"`
	Found bool   `json:"found"`
}

// CLIFile is an indexed file.
type CLIFile struct {
	Path        string `json:"path"`
	EntityCount int    `json:"entity_count"`
}

// CLIKindCount is the number of entities of one kind.
type CLIKindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// CLIHotspot is a heavily referenced entity.
type CLIHotspot struct {
	CLIEntity
	CallerCount int `json:"caller_count"`
	CalleeCount int `json:"callee_count"`
}

// CLIStats is the project summary.
type CLIStats struct {
	Files      int            `json:"files"`
	Entities   int            `json:"entities"`
	Edges      int            `json:"edges"`
	Kinds      []CLIKindCount `json:"kinds"`
	EdgeCounts map[string]int `json:"edge_counts"`
	Hotspots   []CLIHotspot   `json:"hotspots"`
	Status     string         `json:"status"`
}

// CLIRelation is one edge seen from an entity.
type CLIRelation struct {
	Kind   string    `json:"kind"`
	Entity CLIEntity `json:"entity"`
}

// CLIDetail is an entity with its direct neighbours.
type CLIDetail struct {
	Entity   CLIEntity     `json:"entity"`
	Incoming []CLIRelation `json:"incoming"`
	Outgoing []CLIRelation `json:"outgoing"`
}

// CLIHierarchy is a type's position in the implements graph.
type CLIHierarchy struct {
	Entity        CLIEntity   `json:"entity"`
	Implements    []CLIEntity `json:"implements"`
	ImplementedBy []CLIEntity `json:"implemented_by"`
	UsedBy        []CLIEntity `json:"used_by"`
}

// CLICallGraphNode is a call graph member with its distance from the root.
type CLICallGraphNode struct {
	CLIEntity
	Depth int `json:"depth"`
}

// CLICallGraph is the Calls-only neighbourhood of an entity.
type CLICallGraph struct {
	Root  CLIEntity          `json:"root"`
	Nodes []CLICallGraphNode `json:"nodes"`
	Depth int                `json:"depth"`
}

// CLIPackage is a directory in the package dependency graph.
type CLIPackage struct {
	Name        string `json:"name"`
	FileCount   int    `json:"file_count"`
	EntityCount int    `json:"entity_count"`
}

// CLIPackageEdge is a dependency between two directories.
type CLIPackageEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// CLIPackageGraph is the directory-level dependency graph.
type CLIPackageGraph struct {
	Packages []CLIPackage     `json:"packages"`
	Edges    []CLIPackageEdge `json:"edges"`
}

// CLIIndexSummary reports one index run.
type CLIIndexSummary struct {
	Root          string   `json:"root"`
	Database      string   `json:"database"`
	Scanned       int      `json:"scanned"`
	Indexed       int      `json:"indexed"`
	Unchanged     int      `json:"unchanged"`
	Removed       int      `json:"removed"`
	Affected      []string `json:"affected"`
	Relationships int      `json:"relationships"`
	Unresolved    int      `json:"unresolved"`
	ElapsedMS     int64    `json:"elapsed_ms"`
}

func entityToCLI(n ripple.Node) CLIEntity {
	return CLIEntity{
		Name:      n.Name,
		Kind:      string(n.Kind),
		File:      n.FilePath,
		Line:      n.Line,
		Signature: n.Signature,
	}
}

func entitiesToCLI(nodes []ripple.Node) []CLIEntity {
	out := make([]CLIEntity, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entityToCLI(n))
	}
	return out
}

func entityResultToCLI(r ripple.EntityResult) CLIEntity {
	c := entityToCLI(r.Node)
	c.RefCount = r.RefCount
	c.ExternalRefCount = r.ExternalRefCount
	c.InternalRefCount = r.InternalRefCount
	return c
}

func entityResultsToCLI(rs []ripple.EntityResult) []CLIEntity {
	out := make([]CLIEntity, 0, len(rs))
	for _, r := range rs {
		out = append(out, entityResultToCLI(r))
	}
	return out
}

func relationsToCLI(rs []ripple.Relation) []CLIRelation {
	out := make([]CLIRelation, 0, len(rs))
	for _, r := range rs {
		out = append(out, CLIRelation{Kind: r.Kind.String(), Entity: entityToCLI(r.Entity)})
	}
	return out
}

func hotspotsToCLI(hs []*ripple.HotspotResult) []CLIHotspot {
	out := make([]CLIHotspot, 0, len(hs))
	for _, h := range hs {
		out = append(out, CLIHotspot{
			CLIEntity:   entityResultToCLI(h.Entity),
			CallerCount: h.CallerCount,
			CalleeCount: h.CalleeCount,
		})
	}
	return out
}
