package hooks

import (
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// Decorator is a hook bound to the record it was collected for. Name is
// the attribute name the hook was declared under, not a field name.
type Decorator[I Info] struct {
	ClsRef string
	Name   string
	// Func is the function placed in the schema, after any shim.
	Func any
	Info I
	// InfoArg is set when Func takes a trailing info argument.
	InfoArg bool
	// IsFieldSerializer is set for field serializers taking the instance.
	IsFieldSerializer bool
}

// Ordered keeps decorators by bound name in declaration order.
type Ordered[I Info] struct {
	names  []string
	byName map[string]*Decorator[I]
}

func (o *Ordered[I]) set(d *Decorator[I]) {
	if o.byName == nil {
		o.byName = map[string]*Decorator[I]{}
	}
	if _, ok := o.byName[d.Name]; !ok {
		o.names = append(o.names, d.Name)
	}
	o.byName[d.Name] = d
}

func (o *Ordered[I]) remove(name string) {
	if _, ok := o.byName[name]; !ok {
		return
	}
	delete(o.byName, name)
	for i, n := range o.names {
		if n == name {
			o.names = append(o.names[:i:i], o.names[i+1:]...)
			return
		}
	}
}

// Get returns the decorator bound to name.
func (o *Ordered[I]) Get(name string) (*Decorator[I], bool) {
	d, ok := o.byName[name]
	return d, ok
}

// Len returns the number of decorators.
func (o *Ordered[I]) Len() int { return len(o.names) }

// Values returns the decorators in order.
func (o *Ordered[I]) Values() []*Decorator[I] {
	out := make([]*Decorator[I], 0, len(o.names))
	for _, n := range o.names {
		out = append(out, o.byName[n])
	}
	return out
}

// Infos is every hook of a record, by kind.
type Infos struct {
	Validators       Ordered[*ValidatorInfo]
	FieldValidators  Ordered[*FieldValidatorInfo]
	RootValidators   Ordered[*RootValidatorInfo]
	FieldSerializers Ordered[*FieldSerializerInfo]
	ModelSerializers Ordered[*ModelSerializerInfo]
	ModelValidators  Ordered[*ModelValidatorInfo]
	ComputedFields   Ordered[*ComputedFieldInfo]
}

// Empty reports whether no hooks were collected.
func (in *Infos) Empty() bool {
	return in.Validators.Len()+in.FieldValidators.Len()+in.RootValidators.Len()+in.FieldSerializers.Len()+
		in.ModelSerializers.Len()+in.ModelValidators.Len()+in.ComputedFields.Len() == 0
}

func (in *Infos) remove(name string) {
	in.Validators.remove(name)
	in.FieldValidators.remove(name)
	in.RootValidators.remove(name)
	in.FieldSerializers.remove(name)
	in.ModelSerializers.remove(name)
	in.ModelValidators.remove(name)
	in.ComputedFields.remove(name)
}

// Collect gathers the hooks of rec and its ancestors. Records are visited
// from the root of the linearization to rec; a hook redeclared under the
// same name replaces the inherited one in its original position, and a
// plain attribute under that name drops it.
func Collect(rec *typeexpr.Record) (*Infos, error) {
	mro, err := rec.MRO()
	if err != nil {
		return nil, err
	}
	ref := rec.QualName()
	in := &Infos{}
	for i := len(mro) - 1; i >= 0; i-- {
		for _, a := range mro[i].Attrs {
			p, ok := a.Value.(*Proxy)
			if !ok {
				in.remove(a.Name)
				continue
			}
			if p.err != nil {
				return nil, p.err
			}
			if err := in.add(ref, a.Name, p); err != nil {
				return nil, err
			}
		}
	}
	if err := in.checkFieldSerializers(); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *Infos) add(ref, name string, p *Proxy) error {
	fn := p.Func
	if p.Shim != nil {
		fn = p.Shim(p.Func)
	}
	switch info := p.Info.(type) {
	case *ValidatorInfo:
		in.removeOther(name, &in.Validators)
		in.Validators.set(&Decorator[*ValidatorInfo]{ClsRef: ref, Name: name, Func: fn, Info: info, InfoArg: true})
	case *FieldValidatorInfo:
		infoArg, err := InspectValidator(fn, info.Mode)
		if err != nil {
			return err
		}
		in.removeOther(name, &in.FieldValidators)
		in.FieldValidators.set(&Decorator[*FieldValidatorInfo]{ClsRef: ref, Name: name, Func: fn, Info: info, InfoArg: infoArg})
	case *RootValidatorInfo:
		in.removeOther(name, &in.RootValidators)
		in.RootValidators.set(&Decorator[*RootValidatorInfo]{ClsRef: ref, Name: name, Func: fn, Info: info})
	case *FieldSerializerInfo:
		isField, infoArg, err := InspectFieldSerializer(fn, info.Mode)
		if err != nil {
			return err
		}
		in.removeOther(name, &in.FieldSerializers)
		in.FieldSerializers.set(&Decorator[*FieldSerializerInfo]{ClsRef: ref, Name: name, Func: fn, Info: info, InfoArg: infoArg, IsFieldSerializer: isField})
	case *ModelSerializerInfo:
		infoArg, err := InspectModelSerializer(fn, info.Mode)
		if err != nil {
			return err
		}
		in.removeOther(name, &in.ModelSerializers)
		in.ModelSerializers.set(&Decorator[*ModelSerializerInfo]{ClsRef: ref, Name: name, Func: fn, Info: info, InfoArg: infoArg})
	case *ModelValidatorInfo:
		infoArg, err := InspectValidator(fn, info.Mode)
		if err != nil {
			return err
		}
		in.removeOther(name, &in.ModelValidators)
		in.ModelValidators.set(&Decorator[*ModelValidatorInfo]{ClsRef: ref, Name: name, Func: fn, Info: info, InfoArg: infoArg})
	case *ComputedFieldInfo:
		in.removeOther(name, &in.ComputedFields)
		in.ComputedFields.set(&Decorator[*ComputedFieldInfo]{ClsRef: ref, Name: name, Func: fn, Info: info})
	default:
		return core.Errorf(core.CodeValidatorSignature, "unknown hook kind %T for %s", p.Info, name)
	}
	return nil
}

// removeOther drops name from every kind except keep, so a name changing
// kind in a subclass does not leave the inherited hook behind while keep
// retains its position.
func (in *Infos) removeOther(name string, keep any) {
	if keep != any(&in.Validators) {
		in.Validators.remove(name)
	}
	if keep != any(&in.FieldValidators) {
		in.FieldValidators.remove(name)
	}
	if keep != any(&in.RootValidators) {
		in.RootValidators.remove(name)
	}
	if keep != any(&in.FieldSerializers) {
		in.FieldSerializers.remove(name)
	}
	if keep != any(&in.ModelSerializers) {
		in.ModelSerializers.remove(name)
	}
	if keep != any(&in.ModelValidators) {
		in.ModelValidators.remove(name)
	}
	if keep != any(&in.ComputedFields) {
		in.ComputedFields.remove(name)
	}
}

// checkFieldSerializers rejects two serializers bound to different names
// that target the same literal field.
func (in *Infos) checkFieldSerializers() error {
	owner := map[string]string{}
	for _, d := range in.FieldSerializers.Values() {
		for _, f := range d.Info.Fields {
			if f == "*" || isPattern(f) {
				continue
			}
			if prev, ok := owner[f]; ok && prev != d.Name {
				return core.Errorf(core.CodeMultipleFieldSerializers, "multiple field serializer functions were defined for field %q, this is not allowed", f)
			}
			owner[f] = d.Name
		}
	}
	return nil
}
