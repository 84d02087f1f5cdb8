package jsonschema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"
)

const maxRemapIterations = 100

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// normalizeName makes a core ref usable as a URI fragment.
func normalizeName(name string) string {
	return strings.ReplaceAll(invalidNameChars.ReplaceAllString(name, "_"), ".", "__")
}

// splitRef cuts a core ref such as "app.Box:7[app.Item:3,int:9f]" into its
// names and the bracket and comma delimiters between them.
func splitRef(ref string) []string {
	var out []string
	start := 0
	for i, r := range ref {
		switch r {
		case '[', ']', ',':
			out = append(out, ref[start:i], string(r))
			start = i + 1
		}
	}
	return append(out, ref[start:])
}

// refNames returns a core ref without the declaration ids, and the same
// with module paths dropped as well.
func refNames(ref string) (qualified, short string) {
	var q, s strings.Builder
	for _, c := range splitRef(ref) {
		if i := strings.LastIndexByte(c, ':'); i >= 0 {
			c = c[:i]
		}
		q.WriteString(c)
		if i := strings.LastIndexByte(c, '.'); i > 0 && i < len(c)-1 {
			c = c[i+1:]
		}
		s.WriteString(c)
	}
	return q.String(), s.String()
}

// defsRef names the definition of ref in mode. The returned name is the
// most qualified candidate; the shorter ones are recorded and chosen from
// once the document is complete.
func (g *Generator) defsRef(ref string, mode Mode) string {
	qualified, short := refNames(ref)
	title := modeTitles[mode]

	name := normalizeName(short)
	nameMode := name + "-" + title
	mq := normalizeName(qualified)
	mqMode := mq + "-" + title
	mqID := normalizeName(ref)

	idx, ok := g.collisionIndex[mqID]
	if !ok {
		g.collisionCounter[mq]++
		idx = g.collisionCounter[mq]
		g.collisionIndex[mqID] = idx
	}
	occurrence := fmt.Sprintf("%s__%d", mq, idx)
	occurrenceMode := fmt.Sprintf("%s__%d", mqMode, idx)
	g.choices[occurrenceMode] = []string{name, nameMode, mq, mqMode, occurrence, occurrenceMode}
	return occurrenceMode
}

// cacheDefsRef returns the definition name and JSON reference of ref in
// the current mode, allocating them on first use.
func (g *Generator) cacheDefsRef(ref string) (defsRef, jsonRef string) {
	key := coreModeRef{ref: ref, mode: g.mode}
	if d, ok := g.coreToDefs[key]; ok {
		return d, g.coreToJSON[key]
	}
	defsRef = g.defsRef(ref, g.mode)
	jsonRef = g.jsonRef(defsRef)
	g.coreToDefs[key] = defsRef
	g.coreToJSON[key] = jsonRef
	g.jsonToDefs[jsonRef] = defsRef
	return defsRef, jsonRef
}

func (g *Generator) jsonRef(defsRef string) string {
	return strings.ReplaceAll(g.refTemplate, "{model}", defsRef)
}

// refCounts counts the references reachable from js. A definition is
// followed the first time it is referenced.
func (g *Generator) refCounts(js map[string]any) (map[string]int, error) {
	counts := map[string]int{}
	var walk func(v any) error
	walk = func(v any) error {
		switch x := v.(type) {
		case map[string]any:
			if ref, ok := x["$ref"].(string); ok {
				seen := counts[ref] > 0
				counts[ref]++
				if !seen {
					d := g.jsonToDefs[ref]
					if err, ok := g.invalidDefs[d]; ok {
						return err
					}
					if def, ok := g.definitions[d]; ok {
						if err := walk(def); err != nil {
							return err
						}
					}
				}
			}
			for k, val := range x {
				if k == "$ref" {
					continue
				}
				if err := walk(val); err != nil {
					return err
				}
			}
		case []any:
			for _, val := range x {
				if err := walk(val); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return counts, walk(js)
}

// collectGarbage drops the definitions js does not reach.
func (g *Generator) collectGarbage(js map[string]any) {
	visited := map[string]bool{}
	var queue deque.Deque[string]
	for _, r := range jsonRefs(js) {
		queue.PushBack(r)
	}
	for queue.Len() > 0 {
		d, ok := g.jsonToDefs[queue.PopFront()]
		if !ok || visited[d] {
			continue
		}
		visited[d] = true
		for _, r := range jsonRefs(g.definitions[d]) {
			queue.PushBack(r)
		}
	}
	for d := range g.definitions {
		if !visited[d] {
			delete(g.definitions, d)
		}
	}
}

func jsonRefs(v any) []string {
	var out []string
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			if r, ok := val.(string); ok && k == "$ref" {
				out = append(out, r)
				continue
			}
			out = append(out, jsonRefs(val)...)
		}
	case []any:
		for _, val := range x {
			out = append(out, jsonRefs(val)...)
		}
	}
	return out
}

// remapping renames definitions and the references to them.
type remapping struct {
	defs map[string]string
	json map[string]string
}

// buildRemapping picks the final name of every definition: the first
// candidate that only definitions with an identical rendering claim.
// Renaming can make definitions that referenced different names identical,
// so the choice is repeated until nothing changes.
func (g *Generator) buildRemapping() (*remapping, error) {
	defsToJSON := map[string]string{}
	for _, alts := range g.choices {
		for _, d := range alts {
			defsToJSON[d] = g.jsonRef(d)
		}
	}
	copied := make(map[string]any, len(g.definitions))
	for k, v := range g.definitions {
		copied[k] = v
	}
	prev := canonical(map[string]any{"$defs": copied})
	for i := 0; i < maxRemapIterations; i++ {
		claims := map[string]map[string]struct{}{}
		for d, def := range copied {
			c := canonical(def)
			for _, alt := range g.choices[d] {
				if claims[alt] == nil {
					claims[alt] = map[string]struct{}{}
				}
				claims[alt][c] = struct{}{}
			}
		}
		r := &remapping{defs: map[string]string{}, json: map[string]string{}}
		for d := range g.definitions {
			for _, alt := range g.choices[d] {
				if len(claims[alt]) == 1 {
					r.defs[d] = alt
					r.json[defsToJSON[d]] = defsToJSON[alt]
					break
				}
			}
		}
		renamed := make(map[string]any, len(copied))
		for k, v := range copied {
			copied[k] = r.value(v)
			renamed[r.defName(k)] = copied[k]
		}
		next := canonical(map[string]any{"$defs": renamed})
		if next == prev {
			return r, nil
		}
		prev = next
	}
	return nil, errors.New("failed to simplify the JSON schema definitions")
}

func (r *remapping) value(v any) any {
	switch x := v.(type) {
	case string:
		if n, ok := r.json[x]; ok {
			return n
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = r.value(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if defs, ok := val.(map[string]any); ok && k == "$defs" {
				renamed := make(map[string]any, len(defs))
				for dk, dv := range defs {
					renamed[r.defName(dk)] = r.value(dv)
				}
				out[k] = renamed
				continue
			}
			out[k] = r.value(val)
		}
		return out
	}
	return v
}

func (r *remapping) defName(d string) string {
	if n, ok := r.defs[d]; ok {
		return n
	}
	return d
}
