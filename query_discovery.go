package ripple

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jward/ripple/internal/graph"
)

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName             SortField = "name"
	SortByKind             SortField = "kind"
	SortByFile             SortField = "file"
	SortByRefCount         SortField = "ref_count"
	SortByExternalRefCount SortField = "external_ref_count"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// EntityResult extends Node with computed fields useful for discovery.
type EntityResult struct {
	Node
	RefCount         int // incoming edges of any kind
	ExternalRefCount int // incoming edges from other files
	InternalRefCount int // incoming edges from the same file
	OutCount         int // outgoing edges of any kind
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// EntityFilter specifies which entities to include. All fields are optional.
type EntityFilter struct {
	Kinds      []EntityKind // match any of these kinds
	PathPrefix *string      // restrict to entities in files under this path
	File       *string      // restrict to one file
}

// --- Internal Helpers ---

// normalizePathPrefix ensures a path prefix ends with "/" so that
// "internal/store" does not match "internal/store_utils/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

func (f EntityFilter) matches(n Node) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if n.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.File != nil && n.FilePath != *f.File {
		return false
	}
	if f.PathPrefix != nil {
		if prefix := normalizePathPrefix(*f.PathPrefix); prefix != "" && !strings.HasPrefix(n.FilePath, prefix) {
			return false
		}
	}
	return true
}

// entityResult computes ref counts for n. Caller holds the read lock.
func (e *Engine) entityResult(n Node) EntityResult {
	r := EntityResult{Node: n}
	in, err := e.g.InEdges(n.Hash)
	if err != nil {
		return r
	}
	r.RefCount = len(in)
	for _, edge := range in {
		src, err := e.g.Node(edge.From)
		if err != nil {
			continue
		}
		if src.FilePath == n.FilePath {
			r.InternalRefCount++
		} else {
			r.ExternalRefCount++
		}
	}
	_, r.OutCount = e.g.Degree(n.Hash)
	return r
}

// sortEntityResults orders items by s. Ties fall back to (file, line,
// signature) so output is deterministic.
func sortEntityResults(items []EntityResult, s Sort) {
	tiebreak := func(a, b EntityResult) bool {
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Signature < b.Signature
	}
	cmp := func(a, b EntityResult) int {
		switch s.Field {
		case SortByKind:
			return strings.Compare(string(a.Kind), string(b.Kind))
		case SortByFile:
			return strings.Compare(a.FilePath, b.FilePath)
		case SortByRefCount:
			return a.RefCount - b.RefCount
		case SortByExternalRefCount:
			return a.ExternalRefCount - b.ExternalRefCount
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if s.Order == Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return tiebreak(items[i], items[j])
	})
}

// paginate slices one page out of items.
func paginate[T any](items []T, p Pagination) *PagedResult[T] {
	p = p.normalize()
	total := len(items)
	if p.Offset >= total {
		return &PagedResult[T]{Items: []T{}, TotalCount: total}
	}
	end := min(p.Offset+p.Limit, total)
	return &PagedResult[T]{Items: items[p.Offset:end], TotalCount: total}
}

// listLocked collects, sorts and pages every entity accepted by keep.
func (e *Engine) listLocked(keep func(Node) bool, s Sort, p Pagination) *PagedResult[EntityResult] {
	var items []EntityResult
	e.g.Each(func(n Node) bool {
		if keep(n) {
			items = append(items, e.entityResult(n))
		}
		return true
	})
	sortEntityResults(items, s)
	return paginate(items, p)
}

// --- Enumeration Endpoints ---

// ListEntities is the primary listing/filtering endpoint.
func (q *QueryBuilder) ListEntities(filter EntityFilter, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	defer q.e.view(ClassListing, "ListEntities")()
	return q.e.listLocked(filter.matches, sort, page), nil
}

// SearchEntities performs glob-style search on entity names ('*' matches any
// run of characters, '?' a single one).
func (q *QueryBuilder) SearchEntities(pattern string, filter EntityFilter, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("search entities: bad pattern %q: %w", pattern, err)
	}
	defer q.e.view(ClassListing, "SearchEntities")()
	keep := func(n Node) bool {
		if !filter.matches(n) {
			return false
		}
		if pattern == "" || pattern == "*" {
			return true
		}
		ok, _ := path.Match(pattern, n.Name)
		return ok
	}
	return q.e.listLocked(keep, sort, page), nil
}

// FileSummary is one indexed file.
type FileSummary struct {
	Path        string
	EntityCount int
}

// ListFiles lists indexed files in lexical order, optionally under a path
// prefix.
func (q *QueryBuilder) ListFiles(pathPrefix string, page Pagination) (*PagedResult[FileSummary], error) {
	defer q.e.view(ClassListing, "ListFiles")()
	prefix := normalizePathPrefix(pathPrefix)
	var items []FileSummary
	for _, f := range q.e.ix.Files.Files() {
		if prefix != "" && !strings.HasPrefix(f, prefix) {
			continue
		}
		items = append(items, FileSummary{Path: f, EntityCount: q.e.ix.Files.Count(f)})
	}
	return paginate(items, page), nil
}

// EntitiesInFile returns the entities defined in file in ascending line
// order, optionally restricted to one kind. An unknown file yields an empty
// slice.
func (q *QueryBuilder) EntitiesInFile(file string, kind *EntityKind) []Node {
	defer q.e.view(ClassListing, "EntitiesInFile")()
	return q.e.q.EntitiesInFile(file, kind)
}

// WhereDefined returns the location of name. With several candidates the
// first in (file, line) order wins; use Candidates to see them all.
func (q *QueryBuilder) WhereDefined(name string) (FileLocation, bool) {
	defer q.e.view(ClassWhereDefined, "WhereDefined")()
	return q.e.q.WhereDefined(name)
}

// KindCount is the number of entities of one kind.
type KindCount struct {
	Kind  EntityKind
	Count int
}

// ListEntityKinds counts entities per kind. Kinds with no entities are
// omitted; the order follows graph.AllEntityKinds with unknown kinds last.
func (q *QueryBuilder) ListEntityKinds() []KindCount {
	defer q.e.view(ClassListing, "ListEntityKinds")()
	return q.e.kindCountsLocked()
}

func (e *Engine) kindCountsLocked() []KindCount {
	counts := make(map[EntityKind]int)
	e.g.Each(func(n Node) bool {
		counts[n.Kind]++
		return true
	})
	out := make([]KindCount, 0, len(counts))
	for _, k := range graph.AllEntityKinds {
		if c, ok := counts[k]; ok {
			out = append(out, KindCount{Kind: k, Count: c})
			delete(counts, k)
		}
	}
	var rest []KindCount
	for k, c := range counts {
		rest = append(rest, KindCount{Kind: k, Count: c})
	}
	sort.Slice(rest, func(a, b int) bool { return rest[a].Kind < rest[b].Kind })
	return append(out, rest...)
}

// --- Digest Endpoints ---

// ProjectSummary is a high-level overview of the indexed code.
type ProjectSummary struct {
	Files      int
	Entities   int
	Edges      int
	KindCounts []KindCount
	EdgeCounts map[EdgeKind]int
	Hotspots   []*HotspotResult
}

// ProjectSummary returns counts plus the topN most referenced entities.
func (q *QueryBuilder) ProjectSummary(topN int) (*ProjectSummary, error) {
	if topN < 0 {
		return nil, fmt.Errorf("project summary: topN must be non-negative, got %d", topN)
	}
	defer q.e.view(ClassListing, "ProjectSummary")()

	s := &ProjectSummary{
		Files:      len(q.e.ix.Files.Files()),
		Entities:   q.e.g.NodeCount(),
		Edges:      q.e.g.EdgeCount(),
		KindCounts: q.e.kindCountsLocked(),
		EdgeCounts: make(map[EdgeKind]int),
	}
	for _, edge := range q.e.g.Edges() {
		s.EdgeCounts[edge.Kind]++
	}
	s.Hotspots = q.e.hotspotsLocked(topN)
	return s, nil
}
