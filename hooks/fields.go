package hooks

import (
	"github.com/reoring/schemagen/core"
)

// Targets reports whether a hook selecting fields applies to field.
func (t *fieldTargets) Targets(field string) bool {
	for _, f := range t.Fields {
		if f == "*" || f == field {
			return true
		}
	}
	for _, g := range t.patterns {
		if g.Match(field) {
			return true
		}
	}
	return false
}

func (t *fieldTargets) checks() bool { return t.CheckFields == nil || *t.CheckFields }

// CheckFieldsExist fails when a hook names a field that is not in fields.
// Hooks selecting "*" or declared with CheckFields(false) are skipped; a
// glob pattern must match at least one field.
func CheckFieldsExist[I FieldInfo](decorators []*Decorator[I], fields []string) error {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	for _, d := range decorators {
		t := d.Info.targets()
		if !t.checks() {
			continue
		}
		for _, f := range t.Fields {
			if f == "*" {
				break
			}
			if isPattern(f) {
				if !anyMatch(t, f, fields) {
					return missingField(d.ClsRef, d.Name)
				}
				continue
			}
			if _, ok := known[f]; !ok {
				return missingField(d.ClsRef, d.Name)
			}
		}
	}
	return nil
}

func anyMatch(t *fieldTargets, pattern string, fields []string) bool {
	g, ok := t.patterns[pattern]
	if !ok {
		return false
	}
	for _, f := range fields {
		if g.Match(f) {
			return true
		}
	}
	return false
}

func missingField(cls, name string) error {
	return core.Errorf(core.CodeDecoratorMissingField,
		"decorators defined with incorrect fields: %s.%s (use CheckFields(false) if you're inheriting from the model and intended this)", cls, name)
}

// ForField returns the decorators of ds that apply to field, in order.
func ForField[I FieldInfo](ds []*Decorator[I], field string) []*Decorator[I] {
	var out []*Decorator[I]
	for _, d := range ds {
		if d.Info.targets().Targets(field) {
			out = append(out, d)
		}
	}
	return out
}
