package kkcard

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/scenewalk"
	"github.com/koikatu-go/kkcard/value"
)

// ObjectType is the polymorphic dicObject tag used by scene files.
type ObjectType = scenewalk.ObjectType

const (
	ObjectCharacter ObjectType = scenewalk.TypeCharacter
	ObjectItem      ObjectType = scenewalk.TypeItem
	ObjectLight     ObjectType = scenewalk.TypeLight
	ObjectFolder    ObjectType = scenewalk.TypeFolder
	ObjectRoute     ObjectType = scenewalk.TypeRoute
	ObjectCamera    ObjectType = scenewalk.TypeCamera
	ObjectText      ObjectType = scenewalk.TypeText
)

// WalkEntry is one node yielded by SceneDocument.Walk.
type WalkEntry struct {
	// CompositeKey is the dotted path of integer object ids from a
	// forest root down to this node.
	CompositeKey string
	Type         ObjectType
	Data         value.Value
	Depth        int
}

const dicObjectKey = "dicObject"

// SceneDocument is a Document whose variant carries the dicObject tree
// (see internal/variantconf.Descriptor.Scene).
type SceneDocument struct {
	*Document
	forest []scenewalk.Object
}

// AsScene returns a SceneDocument view of d if its variant is a scene
// variant, or false otherwise.
func (d *Document) AsScene() (*SceneDocument, bool) {
	if !d.descriptor.Scene {
		return nil, false
	}
	forest, ok := parseSceneForest(d)
	if !ok {
		return nil, false
	}
	return &SceneDocument{Document: d, forest: forest}, true
}

func parseSceneForest(d *Document) ([]scenewalk.Object, bool) {
	for _, b := range d.blocks {
		if !b.decoded {
			continue
		}
		root, ok := b.value.GetString(dicObjectKey)
		if !ok {
			continue
		}
		forest, err := scenewalk.ParseForest(root)
		if err != nil {
			continue
		}
		return forest, true
	}
	return nil, false
}

// Walk performs a depth-first, pre-order traversal of the scene's object
// forest. When typeFilter is non-nil, only matching objects are yielded
// (their descendants are still visited and may themselves be yielded).
// The traversal is restartable: calling Walk again replays it from the
// start and always terminates, since the underlying tree is finite.
func (s *SceneDocument) Walk(typeFilter *ObjectType) []WalkEntry {
	raw := scenewalk.Walk(s.forest, typeFilter)
	out := make([]WalkEntry, len(raw))
	for i, e := range raw {
		out[i] = WalkEntry{
			CompositeKey: e.CompositeKey,
			Type:         e.Object.Type,
			Data:         e.Object.Data,
			Depth:        e.Depth,
		}
	}
	return out
}

// Len returns the total number of nodes in the object forest, including
// nested children, matching len(list(scene.walk())) in the testable
// properties when no type filter is applied.
func (s *SceneDocument) Len() int {
	return len(scenewalk.Walk(s.forest, nil))
}

// String renders an entry's composite key, object type name and depth for
// diagnostics.
func (e WalkEntry) String() string {
	return fmt.Sprintf("%s %s depth=%d", e.CompositeKey, objectTypeName(e.Type), e.Depth)
}

func objectTypeName(t ObjectType) string {
	switch t {
	case ObjectCharacter:
		return "Character"
	case ObjectItem:
		return "Item"
	case ObjectLight:
		return "Light"
	case ObjectFolder:
		return "Folder"
	case ObjectRoute:
		return "Route"
	case ObjectCamera:
		return "Camera"
	case ObjectText:
		return "Text"
	default:
		return fmt.Sprintf("ObjectType(%d)", int64(t))
	}
}
