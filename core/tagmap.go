package core

import "reflect"

// TagChoice maps one discriminator value to the branch that handles it.
type TagChoice struct {
	Tag    any
	Schema Schema
}

// TagMap is the ordered tag to branch mapping of a tagged union. Several tags
// may share one branch; they then hold the same Schema pointer.
type TagMap struct {
	entries []TagChoice
	index   map[any]int
}

// NewTagMap returns an empty mapping.
func NewTagMap() *TagMap { return &TagMap{index: map[any]int{}} }

// Len returns the number of tags.
func (m *TagMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the branch registered for tag. Tags that cannot be map keys,
// such as slices or maps read from untrusted input, are never registered.
func (m *TagMap) Get(tag any) (Schema, bool) {
	if m == nil || !hashable(tag) {
		return nil, false
	}
	i, ok := m.index[normalizeTag(tag)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Schema, true
}

// Set registers or replaces the branch for tag, keeping first-insertion order.
func (m *TagMap) Set(tag any, s Schema) {
	k := normalizeTag(tag)
	if i, ok := m.index[k]; ok {
		m.entries[i].Schema = s
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, TagChoice{Tag: tag, Schema: s})
}

// Entries returns the tag/branch pairs in insertion order.
func (m *TagMap) Entries() []TagChoice {
	if m == nil {
		return nil
	}
	out := make([]TagChoice, len(m.entries))
	copy(out, m.entries)
	return out
}

// Tags returns the registered tag values in insertion order.
func (m *TagMap) Tags() []any {
	out := make([]any, 0, m.Len())
	for _, e := range m.Entries() {
		out = append(out, e.Tag)
	}
	return out
}

// Branches returns the distinct branches, deduplicated by identity.
func (m *TagMap) Branches() []Schema {
	seen := map[Schema]struct{}{}
	var out []Schema
	for _, e := range m.Entries() {
		if _, ok := seen[e.Schema]; ok {
			continue
		}
		seen[e.Schema] = struct{}{}
		out = append(out, e.Schema)
	}
	return out
}

// Clone returns a copy sharing the branch pointers.
func (m *TagMap) Clone() *TagMap {
	c := NewTagMap()
	for _, e := range m.Entries() {
		c.Set(e.Tag, e.Schema)
	}
	return c
}

// normalizeTag folds numeric kinds so that 1, int64(1) and json.Number("1")
// style inputs collide the way they would after decoding.
func normalizeTag(tag any) any {
	switch v := tag.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint:
		return int64(v)
	case uint32:
		return int64(v)
	case uint16:
		return int64(v)
	case uint8:
		return int64(v)
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
	}
	return tag
}

// hashable reports whether tag can be used as a map key without panicking.
func hashable(tag any) bool {
	return tag == nil || reflect.ValueOf(tag).Comparable()
}
