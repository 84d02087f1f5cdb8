package builder

import (
	"github.com/reoring/schemagen/core"
)

// Definitions is the table of ref-carrying schemas of one build. seen
// holds the refs currently under construction; meeting one of them again
// means the type is recursive and yields a reference instead.
type Definitions struct {
	seen  map[string]bool
	order []string
	table map[string]core.Schema
}

func newDefinitions() *Definitions {
	return &Definitions{seen: map[string]bool{}, table: map[string]core.Schema{}}
}

// SchemaOrRef returns a reference to ref when it is being built or was
// already defined.
func (d *Definitions) SchemaOrRef(ref string) (core.Schema, bool) {
	if d.seen[ref] {
		return core.DefinitionRef(ref), true
	}
	if _, ok := d.table[ref]; ok {
		return core.DefinitionRef(ref), true
	}
	return nil, false
}

// Enter marks ref as under construction until leave is called.
func (d *Definitions) Enter(ref string) (leave func()) {
	d.seen[ref] = true
	return func() { delete(d.seen, ref) }
}

// Set stores s under ref.
func (d *Definitions) Set(ref string, s core.Schema) {
	if _, ok := d.table[ref]; !ok {
		d.order = append(d.order, ref)
	}
	d.table[ref] = s
}

// Get returns the definition stored under ref.
func (d *Definitions) Get(ref string) (core.Schema, bool) {
	s, ok := d.table[ref]
	return s, ok
}

// Len returns the number of definitions.
func (d *Definitions) Len() int { return len(d.order) }

// Values returns the definitions in insertion order.
func (d *Definitions) Values() []core.Schema {
	out := make([]core.Schema, 0, len(d.order))
	for _, r := range d.order {
		out = append(out, d.table[r])
	}
	return out
}

// Map returns the table keyed by ref.
func (d *Definitions) Map() map[string]core.Schema {
	out := make(map[string]core.Schema, len(d.table))
	for k, v := range d.table {
		out[k] = v
	}
	return out
}

// Merge adds every ref-carrying schema of defs that is not defined yet.
func (d *Definitions) Merge(defs []core.Schema) {
	for _, s := range defs {
		if r := core.Ref(s); r != "" {
			if _, ok := d.table[r]; !ok {
				d.Set(r, s)
			}
		}
	}
}
