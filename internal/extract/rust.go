package extract

import (
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/ripple/internal/graph"
	"github.com/jward/ripple/internal/store"
)

// rustPrelude are std names that are referenced everywhere and never
// declared in the indexed code.
var rustPrelude = map[string]bool{
	"Self": true, "String": true, "Vec": true, "Option": true, "Result": true,
	"Box": true, "Rc": true, "Arc": true, "HashMap": true, "HashSet": true,
	"BTreeMap": true, "Some": true, "None": true, "Ok": true, "Err": true,
}

type rustWalker struct {
	*walker

	// container is the header of the enclosing impl or trait block, and
	// implType the type an impl block is for.
	container string
	implType  string

	// module is the path of the enclosing inline modules, e.g.
	// "mod tests" or "mod a::mod b", or "" at file scope.
	module string
}

// entity records a declaration with its header qualified by the enclosing
// module path, so an item inside "mod tests" never collides with a
// top-level item of the same header.
func (w *rustWalker) entity(kind graph.EntityKind, name, header string, at *sitter.Node) string {
	if w.module != "" {
		header = w.module + "::" + header
	}
	return w.walker.entity(kind, name, header, at)
}

// nested returns a walker for items declared inside w's module.
func (w *rustWalker) nested(container, implType string) *rustWalker {
	return &rustWalker{walker: w.walker, container: container, implType: implType, module: w.module}
}

func (w *rustWalker) walk(n *sitter.Node, owner string) {
	switch n.Type() {
	case "use_declaration", "attribute_item", "inner_attribute_item",
		"macro_invocation", "macro_definition", "line_comment", "block_comment":
		return

	case "function_item", "function_signature_item":
		w.function(n)
		return

	case "struct_item", "union_item", "enum_item", "trait_item":
		w.typeItem(n)
		return

	case "impl_item":
		w.implItem(n)
		return

	case "mod_item":
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		header := "mod " + w.text(name)
		w.entity(graph.KindModule, w.text(name), header, n)
		if body := n.ChildByFieldName("body"); body != nil {
			inner := w.nested("", "")
			if w.module != "" {
				header = w.module + "::" + header
			}
			inner.module = header
			inner.children(body, "", inner.walk)
		}
		return

	case "type_item":
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		sig := w.entity(graph.KindTypeAlias, w.text(name), w.headerBefore(n, nil), n)
		if t := n.ChildByFieldName("type"); t != nil {
			w.walk(t, sig)
		}
		return

	case "const_item", "static_item":
		name := n.ChildByFieldName("name")
		if name == nil || owner != "" {
			break
		}
		word := "const "
		if n.Type() == "static_item" {
			word = "static "
		}
		sig := w.entity(graph.KindConstant, w.text(name), word+w.text(name), n)
		for _, field := range []string{"type", "value"} {
			if c := n.ChildByFieldName(field); c != nil {
				w.walk(c, sig)
			}
		}
		return

	case "call_expression":
		name, typ := rustCallee(w.walker, n.ChildByFieldName("function"))
		if name != "" && !rustPrelude[name] {
			w.ref(owner, name, store.RefCall, n)
		}
		// Type::new() calls the constructor and depends on Type.
		if typ != "" && !rustPrelude[typ] {
			w.ref(owner, typ, store.RefCall, n)
		}

	case "type_identifier":
		if name := w.text(n); !rustPrelude[name] {
			w.ref(owner, name, store.RefType, n)
		}
		return

	case "scoped_type_identifier":
		if name := rustTypeName(w.walker, n); name != "" && !rustPrelude[name] {
			w.ref(owner, name, store.RefType, n)
		}
		return
	}

	w.children(n, owner, w.walk)
}

func (w *rustWalker) function(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	body := n.ChildByFieldName("body")
	header := w.headerBefore(n, body)
	kind := graph.KindFunction
	if w.container != "" {
		kind = graph.KindMethod
		header = w.container + " " + header
	}
	sig := w.entity(kind, w.text(name), header, n)
	if w.implType != "" {
		w.ref(sig, w.implType, store.RefType, n)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "identifier" {
			continue
		}
		// Nested items are declarations of their own, not members of the
		// enclosing impl.
		if c.Type() == "block" {
			w.nested("", "").walk(c, sig)
			continue
		}
		w.walk(c, sig)
	}
}

func (w *rustWalker) typeItem(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	kind := graph.KindStruct
	switch n.Type() {
	case "enum_item":
		kind = graph.KindEnum
	case "trait_item":
		kind = graph.KindInterface
	}

	body := n.ChildByFieldName("body")
	header := w.headerBefore(n, body)
	sig := w.entity(kind, w.text(name), header, n)

	for _, field := range []string{"type_parameters", "bounds"} {
		if c := n.ChildByFieldName(field); c != nil {
			w.walk(c, sig)
		}
	}
	if body == nil {
		return
	}
	if kind != graph.KindInterface {
		w.walk(body, sig)
		return
	}
	inner := w.nested(header, "")
	inner.children(body, sig, inner.walk)
}

// implItem records "impl Trait for Type" as Type implementing Trait and
// walks the methods with the impl header as their container.
func (w *rustWalker) implItem(n *sitter.Node) {
	typeName := rustTypeName(w.walker, n.ChildByFieldName("type"))
	if trait := n.ChildByFieldName("trait"); trait != nil {
		w.refFromName(typeName, rustTypeName(w.walker, trait), store.RefImplements, n)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := w.nested(w.headerBefore(n, body), typeName)
	inner.children(body, "", inner.walk)
}

// rustTypeName unwraps references, generics and paths down to the bare
// type name.
func rustTypeName(w *walker, n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "type_identifier", "identifier":
			return w.text(n)
		case "scoped_type_identifier", "scoped_identifier":
			n = n.ChildByFieldName("name")
		case "generic_type", "reference_type", "pointer_type":
			n = n.ChildByFieldName("type")
		default:
			return ""
		}
	}
	return ""
}

// rustCallee names the function a call expression invokes. For
// Type::function() it also returns Type.
func rustCallee(w *walker, fn *sitter.Node) (name, typ string) {
	if fn == nil {
		return "", ""
	}
	switch fn.Type() {
	case "identifier":
		return w.text(fn), ""
	case "field_expression":
		if f := fn.ChildByFieldName("field"); f != nil {
			return w.text(f), ""
		}
	case "scoped_identifier":
		if f := fn.ChildByFieldName("name"); f != nil {
			name = w.text(f)
		}
		if t := rustTypeName(w, fn.ChildByFieldName("path")); isTypeName(t) {
			typ = t
		}
		return name, typ
	case "generic_function":
		return rustCallee(w, fn.ChildByFieldName("function"))
	}
	return "", ""
}

func isTypeName(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
