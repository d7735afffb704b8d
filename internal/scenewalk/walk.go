// Package scenewalk implements the depth-first, pre-order traversal over a
// scene document's dicObject tree: a forest of polymorphic object records
// (Character/Item/Light/Folder/Route/Camera/Text) linked by a recursive
// "child" relation.
package scenewalk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brentp/intintmap"

	"github.com/koikatu-go/kkcard/value"
)

// ObjectType is the polymorphic dicObject tag.
type ObjectType int64

const (
	TypeCharacter ObjectType = 0
	TypeItem      ObjectType = 1
	TypeLight     ObjectType = 2
	TypeFolder    ObjectType = 3
	TypeRoute     ObjectType = 4
	TypeCamera    ObjectType = 5
	TypeText      ObjectType = 7
)

// Object is one node of the dicObject tree.
type Object struct {
	ID       int64
	Type     ObjectType
	Data     value.Value
	Children []Object
}

const (
	keyID    = "id"
	keyType  = "type"
	keyChild = "child"
)

// ParseForest parses a dicObject value (expected to be an Array of Maps,
// or a Map of id->object) into an ordered forest of root Objects.
func ParseForest(root value.Value) ([]Object, error) {
	switch root.Kind {
	case value.KindArray:
		out := make([]Object, 0, len(root.Array))
		for i, item := range root.Array {
			o, err := parseObject(item)
			if err != nil {
				return nil, fmt.Errorf("scenewalk: root object %d: %w", i, err)
			}
			out = append(out, o)
		}
		return out, nil
	case value.KindMap:
		out := make([]Object, 0, len(root.Map))
		for _, p := range root.Map {
			o, err := parseObject(p.Val)
			if err != nil {
				return nil, fmt.Errorf("scenewalk: root object %q: %w", p.Key.String(), err)
			}
			out = append(out, o)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("scenewalk: dicObject root must be array or map, got %s", root.Kind)
	}
}

func parseObject(v value.Value) (Object, error) {
	if v.Kind != value.KindMap {
		return Object{}, fmt.Errorf("object record must be a map, got %s", v.Kind)
	}
	id := fieldInt(v, keyID)
	typ := ObjectType(fieldInt(v, keyType))

	var children []Object
	if childField, ok := v.GetString(keyChild); ok && childField.Kind == value.KindArray {
		for i, c := range childField.Array {
			child, err := parseObject(c)
			if err != nil {
				return Object{}, fmt.Errorf("child %d: %w", i, err)
			}
			children = append(children, child)
		}
	}
	return Object{ID: id, Type: typ, Data: v, Children: children}, nil
}

func fieldInt(v value.Value, key string) int64 {
	f, ok := v.GetString(key)
	if !ok {
		return 0
	}
	switch f.Kind {
	case value.KindInt:
		return f.Int
	case value.KindUint:
		return int64(f.Uint)
	default:
		return 0
	}
}

// Entry is one yielded step of a Walk: the dotted path of object ids from
// a forest root down to this node, the node itself, and its depth (0 for
// a root).
type Entry struct {
	CompositeKey string
	Object       Object
	Depth        int
}

type frame struct {
	obj      Object
	path     string
	depth    int
	childIdx int
}

// Walk performs a depth-first, pre-order traversal of forest using an
// explicit stack (not recursion) so that deeply nested scenes never risk a
// native call-stack overflow. When typeFilter is non-nil, only objects
// whose Type matches are yielded, though the whole tree is still walked so
// that descendants of a filtered-out node are still visited.
func Walk(forest []Object, typeFilter *ObjectType) []Entry {
	var entries []Entry
	// ids seen so far this call, id -> depth, built fresh per Walk since
	// traversals must be restartable and independent of one another.
	seen := intintmap.New(64, 0.6)

	var stack []*frame
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, &frame{obj: forest[i], path: strconv.FormatInt(forest[i].ID, 10), depth: 0})
	}
	// Push in forest order by walking the slice in reverse above, then
	// popping from the end below restores original order.
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		seen.Put(top.obj.ID, int64(top.depth))
		if typeFilter == nil || top.obj.Type == *typeFilter {
			entries = append(entries, Entry{CompositeKey: top.path, Object: top.obj, Depth: top.depth})
		}
		for i := len(top.obj.Children) - 1; i >= 0; i-- {
			child := top.obj.Children[i]
			stack = append(stack, &frame{
				obj:   child,
				path:  top.path + "." + strconv.FormatInt(child.ID, 10),
				depth: top.depth + 1,
			})
		}
	}
	return entries
}

// Depth returns the depth of id within forest (0 for a root). It builds a
// fresh id -> depth index from forest on every call, independent of any
// Walk; when an id occurs more than once, the last occurrence in pre-order
// wins.
func Depth(forest []Object, id int64) (int64, bool) {
	seen := intintmap.New(64, 0.6)
	index(forest, seen, 0)
	return seen.Get(id)
}

func index(forest []Object, m *intintmap.Map, depth int64) {
	for _, o := range forest {
		m.Put(o.ID, depth)
		index(o.Children, m, depth+1)
	}
}

// ParseID extracts the trailing integer id from a composite key, the
// inverse of the dotted-path construction used by Walk.
func ParseID(compositeKey string) (int64, error) {
	parts := strings.Split(compositeKey, ".")
	last := parts[len(parts)-1]
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scenewalk: invalid composite key %q: %w", compositeKey, err)
	}
	return id, nil
}
