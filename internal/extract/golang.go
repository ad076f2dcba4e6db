package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/ripple/internal/graph"
	"github.com/jward/ripple/internal/store"
)

// goBuiltins are predeclared identifiers that never resolve to an entity.
var goBuiltins = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true,
	"complex128": true, "error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true, "rune": true,
	"string": true, "uint": true, "uint8": true, "uint16": true, "uint32": true,
	"uint64": true, "uintptr": true,
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

type goWalker struct {
	*walker
}

// walk visits n. owner is the signature of the innermost enclosing entity,
// or "" at file scope.
func (w *goWalker) walk(n *sitter.Node, owner string) {
	switch n.Type() {
	case "package_clause":
		if id := n.NamedChild(0); id != nil {
			name := w.text(id)
			w.entity(graph.KindModule, name, "package "+name, n)
		}
		return

	case "function_declaration", "method_declaration":
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		kind := graph.KindFunction
		if n.Type() == "method_declaration" {
			kind = graph.KindMethod
		}
		body := n.ChildByFieldName("body")
		sig := w.entity(kind, w.text(name), w.headerBefore(n, body), n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() != "identifier" && c.Type() != "field_identifier" {
				w.walk(c, sig)
			}
		}
		return

	case "type_spec":
		w.typeSpec(n)
		return

	case "type_alias":
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		sig := w.entity(graph.KindTypeAlias, w.text(name), "type "+w.headerBefore(n, nil), n)
		if t := n.ChildByFieldName("type"); t != nil {
			w.walk(t, sig)
		}
		return

	case "const_spec":
		if owner != "" {
			break
		}
		if name := n.ChildByFieldName("name"); name != nil {
			w.entity(graph.KindConstant, w.text(name), "const "+w.text(name), n)
		}
		return

	case "call_expression":
		if name := goCallee(w.walker, n.ChildByFieldName("function")); name != "" && !goBuiltins[name] {
			w.ref(owner, name, store.RefCall, n)
		}

	case "type_identifier":
		if name := w.text(n); !goBuiltins[name] {
			w.ref(owner, name, store.RefType, n)
		}
		return

	case "qualified_type":
		// pkg.Name: only Name can match an entity.
		if name := n.ChildByFieldName("name"); name != nil {
			w.ref(owner, w.text(name), store.RefType, n)
		}
		return
	}

	w.children(n, owner, w.walk)
}

func (w *goWalker) typeSpec(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	typ := n.ChildByFieldName("type")
	if name == nil || typ == nil {
		return
	}

	decl := "type " + w.headerBefore(n, typ)
	var kind graph.EntityKind
	switch typ.Type() {
	case "struct_type":
		kind = graph.KindStruct
		decl += " struct"
	case "interface_type":
		kind = graph.KindInterface
		decl += " interface"
	default:
		kind = graph.KindTypeAlias
		decl += " " + graph.NormalizeHeader(w.text(typ))
	}
	sig := w.entity(kind, w.text(name), decl, n)

	if params := n.ChildByFieldName("type_parameters"); params != nil {
		w.walk(params, sig)
	}
	if kind == graph.KindStruct {
		w.structFields(typ, sig)
		return
	}
	w.walk(typ, sig)
}

// structFields records field types as uses and embedded types as
// implements, which resolves to Implements for an embedded interface.
func (w *goWalker) structFields(structType *sitter.Node, owner string) {
	var visit func(n *sitter.Node, _ string)
	visit = func(n *sitter.Node, _ string) {
		if n.Type() != "field_declaration" {
			w.children(n, owner, visit)
			return
		}
		if n.ChildByFieldName("name") != nil {
			if t := n.ChildByFieldName("type"); t != nil {
				w.walk(t, owner)
			}
			return
		}
		if embedded := goTypeName(w.walker, n.ChildByFieldName("type")); embedded != "" {
			w.ref(owner, embedded, store.RefImplements, n)
		}
	}
	visit(structType, owner)
}

// goTypeName unwraps pointers and package qualifiers down to a type name.
func goTypeName(w *walker, n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "type_identifier":
			return w.text(n)
		case "qualified_type":
			n = n.ChildByFieldName("name")
		case "pointer_type":
			n = n.NamedChild(0)
		case "generic_type":
			n = n.ChildByFieldName("type")
		default:
			return ""
		}
	}
	return ""
}

// goCallee names the function a call expression invokes: f(), x.f() and
// pkg.f() all yield "f".
func goCallee(w *walker, fn *sitter.Node) string {
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return w.text(fn)
	case "selector_expression":
		if f := fn.ChildByFieldName("field"); f != nil {
			return w.text(f)
		}
	case "generic_function":
		return goCallee(w, fn.ChildByFieldName("function"))
	case "parenthesized_expression":
		return goCallee(w, fn.NamedChild(0))
	}
	return ""
}
