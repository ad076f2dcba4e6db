package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/risor-io/risor/object"

	"github.com/jward/ripple"
)

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, slog.String("source", "script"))
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, slog.String("source", "script"))
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, slog.String("source", "script"))
}

// --- Conversion helpers ---

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// nodeToObject renders an entity as a Risor map.
func nodeToObject(n ripple.Node) object.Object {
	return object.NewMap(nodeMap(n))
}

func nodeMap(n ripple.Node) map[string]object.Object {
	return map[string]object.Object{
		"name":      object.NewString(n.Name),
		"kind":      object.NewString(string(n.Kind)),
		"file":      object.NewString(n.FilePath),
		"line":      object.NewInt(int64(n.Line)),
		"signature": object.NewString(n.Signature),
		"hash":      object.NewString(n.Hash.String()),
	}
}

func nodesToList(nodes []ripple.Node) object.Object {
	items := make([]object.Object, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, nodeToObject(n))
	}
	return object.NewList(items)
}

// jsonToObject converts v to Risor objects through its JSON form, so
// struct tags decide the key names scripts see.
func jsonToObject(v any) (object.Object, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return goToObject(generic), nil
}

// goToObject converts decoded JSON values. Whole numbers become ints.
func goToObject(v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case bool:
		return object.NewBool(val)
	case string:
		return object.NewString(val)
	case float64:
		if val == float64(int64(val)) {
			return object.NewInt(int64(val))
		}
		return object.NewFloat(val)
	case []any:
		items := make([]object.Object, 0, len(val))
		for _, item := range val {
			items = append(items, goToObject(item))
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(val))
		for k, item := range val {
			m[k] = goToObject(item)
		}
		return object.NewMap(m)
	}
	return object.NewString(fmt.Sprint(v))
}

// objectToGo is the inverse of goToObject for the values scripts produce.
func objectToGo(obj object.Object) any {
	switch val := obj.(type) {
	case nil, *object.NilType:
		return nil
	case *object.Bool:
		return val.Value()
	case *object.Int:
		return val.Value()
	case *object.Float:
		return val.Value()
	case *object.String:
		return val.Value()
	case *object.List:
		out := make([]any, 0, len(val.Value()))
		for _, item := range val.Value() {
			out = append(out, objectToGo(item))
		}
		return out
	case *object.Map:
		m := val.Value()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(m))
		for _, k := range keys {
			out[k] = objectToGo(m[k])
		}
		return out
	}
	return obj.Inspect()
}
