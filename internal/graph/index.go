package graph

import (
	"slices"
	"sort"
)

// NameIndex maps an entity name to every hash carrying that name. Names are
// not unique across a codebase, so lookups always return a set.
type NameIndex struct {
	byName map[string]map[SignatureHash]struct{}
}

// NewNameIndex returns an empty NameIndex.
func NewNameIndex() *NameIndex {
	return &NameIndex{byName: make(map[string]map[SignatureHash]struct{})}
}

func (ix *NameIndex) add(n Node) {
	set, ok := ix.byName[n.Name]
	if !ok {
		set = make(map[SignatureHash]struct{}, 1)
		ix.byName[n.Name] = set
	}
	set[n.Hash] = struct{}{}
}

func (ix *NameIndex) remove(n Node) {
	set, ok := ix.byName[n.Name]
	if !ok {
		return
	}
	delete(set, n.Hash)
	if len(set) == 0 {
		delete(ix.byName, n.Name)
	}
}

// Lookup returns the hashes named name in ascending order. Unknown names
// yield an empty slice.
func (ix *NameIndex) Lookup(name string) []SignatureHash {
	set := ix.byName[name]
	out := make([]SignatureHash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of distinct names.
func (ix *NameIndex) Len() int { return len(ix.byName) }

// fileEntry is one entity inside a file, kept ordered by line.
type fileEntry struct {
	line int
	kind EntityKind
	hash SignatureHash
}

func entryLess(a, b fileEntry) bool {
	if a.line != b.line {
		return a.line < b.line
	}
	return a.hash < b.hash
}

// FileIndex maps a file path to its entities ordered by line. A lookup costs
// time proportional to the entities in that file only.
type FileIndex struct {
	byFile map[string][]fileEntry
}

// NewFileIndex returns an empty FileIndex.
func NewFileIndex() *FileIndex {
	return &FileIndex{byFile: make(map[string][]fileEntry)}
}

func (ix *FileIndex) add(n Node) {
	e := fileEntry{line: n.Line, kind: n.Kind, hash: n.Hash}
	entries := ix.byFile[n.FilePath]
	at := sort.Search(len(entries), func(i int) bool { return !entryLess(entries[i], e) })
	entries = slices.Insert(entries, at, e)
	ix.byFile[n.FilePath] = entries
}

func (ix *FileIndex) remove(n Node) {
	entries := ix.byFile[n.FilePath]
	for i, e := range entries {
		if e.hash == n.Hash {
			entries = slices.Delete(entries, i, i+1)
			break
		}
	}
	if len(entries) == 0 {
		delete(ix.byFile, n.FilePath)
		return
	}
	ix.byFile[n.FilePath] = entries
}

// Lookup returns the hashes defined in path in ascending line order,
// optionally restricted to one kind. Unknown paths yield an empty slice.
func (ix *FileIndex) Lookup(path string, kind *EntityKind) []SignatureHash {
	entries := ix.byFile[path]
	out := make([]SignatureHash, 0, len(entries))
	for _, e := range entries {
		if kind != nil && e.kind != *kind {
			continue
		}
		out = append(out, e.hash)
	}
	return out
}

// Files returns every indexed path in lexical order.
func (ix *FileIndex) Files() []string {
	files := make([]string, 0, len(ix.byFile))
	for f := range ix.byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Count returns how many entities path holds.
func (ix *FileIndex) Count(path string) int { return len(ix.byFile[path]) }

// Indexes bundles the derived lookup structures. They are rebuilt from the
// graph on invalidation and maintained incrementally on single upserts.
type Indexes struct {
	Names *NameIndex
	Files *FileIndex
}

// BuildIndexes derives fresh indexes from every live node in g.
func BuildIndexes(g *Graph) *Indexes {
	ix := &Indexes{Names: NewNameIndex(), Files: NewFileIndex()}
	for _, s := range g.slots {
		if !s.alive {
			continue
		}
		n := s.node
		ix.Names.add(n)
		ix.Files.byFile[n.FilePath] = append(ix.Files.byFile[n.FilePath],
			fileEntry{line: n.Line, kind: n.Kind, hash: n.Hash})
	}
	for _, entries := range ix.Files.byFile {
		sort.Slice(entries, func(a, b int) bool { return entryLess(entries[a], entries[b]) })
	}
	return ix
}

// Add indexes a node that was just inserted.
func (ix *Indexes) Add(n Node) {
	ix.Names.add(n)
	ix.Files.add(n)
}

// Remove drops a node that was just removed (or is about to be replaced).
func (ix *Indexes) Remove(n Node) {
	ix.Names.remove(n)
	ix.Files.remove(n)
}
