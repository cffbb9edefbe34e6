package entities

import (
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// KeyIndex maps normalized business keys to surrogate ids for the currently
// visible (not soft-deleted) rows of one table.
type KeyIndex struct {
	byKey map[string]int64
	ids   map[int64]struct{}
}

func NewKeyIndex(capacity int) *KeyIndex {
	return &KeyIndex{
		byKey: make(map[string]int64, capacity),
		ids:   make(map[int64]struct{}, capacity),
	}
}

// Add registers key -> id. The key is normalized here.
func (k *KeyIndex) Add(key string, id int64) {
	k.byKey[schema.NormalizeKey(key)] = id
	k.ids[id] = struct{}{}
}

func (k *KeyIndex) Len() int { return len(k.ids) }

// HasID reports whether id belongs to a visible row.
func (k *KeyIndex) HasID(id int64) bool {
	_, ok := k.ids[id]
	return ok
}

// ByKey looks up a business key.
func (k *KeyIndex) ByKey(key string) (int64, bool) {
	id, ok := k.byKey[schema.NormalizeKey(key)]
	return id, ok
}

// Resolve turns a reference into an id: the business key wins, and a numeric
// reference that is not a key falls back to a surrogate id when that id exists.
func (k *KeyIndex) Resolve(ref string) (int64, bool) {
	if id, ok := k.ByKey(ref); ok {
		return id, true
	}
	if id, ok := schema.ID(ref); ok && k.HasID(id) {
		return id, true
	}
	return 0, false
}
