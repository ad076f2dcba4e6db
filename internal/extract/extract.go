// Package extract turns Go and Rust source into entity and reference records
// using tree-sitter, and drives the per-directory indexing pipeline that
// stores them.
package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/ripple/internal/graph"
	"github.com/jward/ripple/internal/store"
)

// Extract parses src as lang and writes the entities it declares and the
// references they make to ds. path is the repository-relative path recorded
// in canonical signatures.
func Extract(ctx context.Context, lang, path string, src []byte, ds store.DataStore) error {
	grammar, ok := GrammarForLanguage(lang)
	if !ok {
		return fmt.Errorf("extract %s: unsupported language %q", path, lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("extract %s: parse: %w", path, err)
	}
	defer tree.Close()

	w := &walker{path: path, src: src, ds: ds, seen: make(map[string]int)}
	switch lang {
	case "go":
		(&goWalker{w}).walk(tree.RootNode(), "")
	case "rust":
		(&rustWalker{walker: w}).walk(tree.RootNode(), "")
	}
	return w.err
}

// walker holds what both language walkers share: the source, the sink and
// the first write error.
type walker struct {
	path string
	src  []byte
	ds   store.DataStore
	err  error

	// seen counts the declarations recorded per signature.
	seen map[string]int
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// headerBefore returns the declaration text of n up to (not including) body,
// or all of n when body is nil. Trailing ';' and '{' are dropped.
func (w *walker) headerBefore(n, body *sitter.Node) string {
	end := n.EndByte()
	if body != nil {
		end = body.StartByte()
	}
	h := graph.NormalizeHeader(string(w.src[n.StartByte():end]))
	for len(h) > 0 && (h[len(h)-1] == ';' || h[len(h)-1] == '{') {
		h = graph.NormalizeHeader(h[:len(h)-1])
	}
	return h
}

// entity records a declaration and returns its canonical signature. A header
// repeated within the file, such as a second Go init, gets an ordinal suffix
// ("#2") in source order.
func (w *walker) entity(kind graph.EntityKind, name, header string, at *sitter.Node) string {
	sig := graph.CanonicalSignature(w.path, header)
	w.seen[sig]++
	if n := w.seen[sig]; n > 1 {
		sig = fmt.Sprintf("%s #%d", sig, n)
	}
	if w.err != nil {
		return sig
	}
	_, w.err = w.ds.InsertEntity(&store.Entity{
		Kind:      string(kind),
		Name:      name,
		Signature: sig,
		Line:      line(at),
	})
	return sig
}

// ref records that the entity with signature from mentions name.
func (w *walker) ref(from, name string, kind store.RefKind, at *sitter.Node) {
	if w.err != nil || from == "" || name == "" {
		return
	}
	_, w.err = w.ds.InsertReference(&store.Reference{
		FromSignature: from,
		Name:          name,
		Kind:          kind,
		Line:          line(at),
	})
}

// refFromName is ref for a referrer known only by name, e.g. the type of a
// Rust impl block declared in another file.
func (w *walker) refFromName(fromName, name string, kind store.RefKind, at *sitter.Node) {
	if w.err != nil || fromName == "" || name == "" {
		return
	}
	_, w.err = w.ds.InsertReference(&store.Reference{
		FromName: fromName,
		Name:     name,
		Kind:     kind,
		Line:     line(at),
	})
}

func (w *walker) children(n *sitter.Node, owner string, visit func(*sitter.Node, string)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i), owner)
	}
}
