package validator

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/codec"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// serState carries one serialization call through the node graph.
type serState struct {
	v    *Validator
	opts SerializeOptions
	// self is the record instance whose fields are being serialized.
	self    *core.Instance
	field   string
	configs []*core.CoreConfig
}

func (ss *serState) serialize(s core.Schema, value any) (any, error) {
	if s == nil {
		return ss.infer(value)
	}
	if ser := s.Base().Serialization; ser != nil && ss.applies(ser, value) {
		return ss.custom(s, ser, value)
	}
	return ss.standard(s, value)
}

func (ss *serState) applies(ser core.SerSchema, value any) bool {
	var when string
	switch x := ser.(type) {
	case *core.PlainSerializerFunctionSerSchema:
		when = x.WhenUsed
	case *core.WrapSerializerFunctionSerSchema:
		when = x.WhenUsed
	case *core.ToStringSerSchema:
		when = x.WhenUsed
	}
	switch when {
	case core.WhenUnlessNone:
		return value != nil
	case core.WhenJSON:
		return ss.opts.JSON
	case core.WhenJSONUnlessNone:
		return ss.opts.JSON && value != nil
	}
	return true
}

func (ss *serState) custom(s core.Schema, ser core.SerSchema, value any) (any, error) {
	var (
		fn           any
		args         []any
		infoArg      bool
		returnSchema core.Schema
	)
	switch x := ser.(type) {
	case *core.ToStringSerSchema:
		if value == nil {
			return nil, nil
		}
		return fmt.Sprint(value), nil
	case *core.PlainSerializerFunctionSerSchema:
		fn, infoArg, returnSchema = x.Function, x.InfoArg, x.ReturnSchema
		if x.IsFieldSerializer {
			args = append(args, ss.self)
		}
		args = append(args, value)
	case *core.WrapSerializerFunctionSerSchema:
		fn, infoArg, returnSchema = x.Function, x.InfoArg, x.ReturnSchema
		inner := x.Schema
		handler := core.SerializerHandler(func(v any) (any, error) {
			if inner != nil {
				return ss.serialize(inner, v)
			}
			return ss.standard(s, v)
		})
		if x.IsFieldSerializer {
			args = append(args, ss.self)
		}
		args = append(args, value, handler)
	default:
		return nil, core.Errorf(core.CodeInvalidCoreSchema, "unknown serializer %s", ser.SerType())
	}
	if infoArg {
		args = append(args, &serializationInfo{ss: ss, field: ss.field})
	}
	out, err := core.Invoke(fn, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "serializer %s", core.FuncName(fn))
	}
	if returnSchema != nil {
		return ss.standard(returnSchema, out)
	}
	return ss.infer(out)
}

// standard serializes value following the node, ignoring the node's own
// serializer.
func (ss *serState) standard(s core.Schema, value any) (any, error) {
	switch n := s.(type) {
	case *core.ModelSchema:
		return ss.model(n, value)
	case *core.ModelFieldsSchema:
		return ss.modelFields(n, value)
	case *core.TypedDictSchema:
		return ss.typedDict(n, value)
	case *core.DataclassSchema:
		return ss.dataclass(n, value)
	case *core.DataclassArgsSchema:
		return ss.dataclassArgs(n, value)
	case *core.FunctionBeforeSchema, *core.FunctionAfterSchema, *core.FunctionWrapSchema,
		*core.DefinitionsSchema:
		return ss.serialize(core.InnerSchema(s), value)
	case *core.DefaultSchema:
		return ss.serialize(n.Schema, value)
	case *core.NullableSchema:
		if value == nil {
			return nil, nil
		}
		return ss.serialize(n.Schema, value)
	case *core.DefinitionReferenceSchema:
		def, err := ss.v.definition(n.SchemaRef)
		if err != nil {
			return nil, err
		}
		return ss.serialize(def, value)
	case *core.ChainSchema:
		if len(n.Steps) == 0 {
			return ss.infer(value)
		}
		return ss.serialize(n.Steps[len(n.Steps)-1], value)
	case *core.UnionSchema:
		return ss.union(n.Schemas(), value)
	case *core.TaggedUnionSchema:
		return ss.union(n.Choices.Branches(), value)
	case *core.ListSchema:
		return ss.items(value, func(int, int) core.Schema { return n.ItemsSchema })
	case *core.SetSchema:
		return ss.items(value, func(int, int) core.Schema { return n.ItemsSchema })
	case *core.FrozenSetSchema:
		return ss.items(value, func(int, int) core.Schema { return n.ItemsSchema })
	case *core.TupleSchema:
		return ss.items(value, func(i, total int) core.Schema { return tupleItem(n, i, total) })
	case *core.DictSchema:
		return ss.dict(n, value)
	case *core.DateSchema:
		return ss.timeValue(value, codec.Date())
	case *core.TimeSchema:
		return ss.timeValue(value, codec.TimeOfDay())
	}
	return ss.infer(value)
}

func tupleItem(n *core.TupleSchema, i, total int) core.Schema {
	if n.VariadicItemIndex == nil {
		if i < len(n.ItemsSchema) {
			return n.ItemsSchema[i]
		}
		return nil
	}
	vi := *n.VariadicItemIndex
	suffix := len(n.ItemsSchema) - vi - 1
	switch {
	case i < vi:
		return n.ItemsSchema[i]
	case i >= total-suffix:
		return n.ItemsSchema[len(n.ItemsSchema)-(total-i)]
	}
	return n.ItemsSchema[vi]
}

func (ss *serState) pushConfig(c *core.CoreConfig) func() {
	if c == nil {
		return func() {}
	}
	ss.configs = append(ss.configs, c)
	return func() { ss.configs = ss.configs[:len(ss.configs)-1] }
}

func (ss *serState) model(n *core.ModelSchema, value any) (any, error) {
	inst, ok := value.(*core.Instance)
	if !ok {
		return ss.serialize(n.Schema, value)
	}
	restore := ss.pushConfig(n.Config)
	defer restore()
	if firstBool(n.RootModel) {
		return ss.serialize(n.Schema, inst.Fields[typeexpr.RootField])
	}
	return ss.serialize(n.Schema, inst)
}

func (ss *serState) modelFields(n *core.ModelFieldsSchema, value any) (any, error) {
	inst, ok := value.(*core.Instance)
	if !ok {
		m, isMap := value.(map[string]any)
		if !isMap {
			return ss.infer(value)
		}
		inst = &core.Instance{Class: n.ModelName, Fields: m}
	}
	out := map[string]any{}
	prevSelf, prevField := ss.self, ss.field
	ss.self = inst
	defer func() { ss.self, ss.field = prevSelf, prevField }()
	for _, f := range n.Fields {
		v, ok := inst.Fields[f.Name]
		if !ok || firstBool(f.SerializationExclude) || ss.skip(inst, f.Name, f.Schema, v) {
			continue
		}
		ss.field = f.Name
		sv, err := ss.serialize(f.Schema, v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		out[ss.key(f.Name, f.SerializationAlias)] = sv
	}
	if err := ss.computed(n.ComputedFields, inst, out); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(inst.Extra) {
		v := inst.Extra[k]
		if ss.opts.ExcludeNone && v == nil {
			continue
		}
		sv, err := ss.serialize(n.ExtrasSchema, v)
		if err != nil {
			return nil, errors.Wrapf(err, "extra %q", k)
		}
		out[k] = sv
	}
	return out, nil
}

func (ss *serState) dataclass(n *core.DataclassSchema, value any) (any, error) {
	restore := ss.pushConfig(n.Config)
	defer restore()
	return ss.serialize(n.Schema, value)
}

// dataclassArgs serializes the stored fields of a dataclass instance.
// Init-only fields were never stored and are skipped.
func (ss *serState) dataclassArgs(n *core.DataclassArgsSchema, value any) (any, error) {
	inst, ok := value.(*core.Instance)
	if !ok {
		m, isMap := value.(map[string]any)
		if !isMap {
			return ss.infer(value)
		}
		inst = &core.Instance{Class: n.DataclassName, Fields: m}
	}
	out := map[string]any{}
	prevSelf, prevField := ss.self, ss.field
	ss.self = inst
	defer func() { ss.self, ss.field = prevSelf, prevField }()
	for _, f := range n.Fields {
		if firstBool(f.InitOnly) {
			continue
		}
		v, ok := inst.Fields[f.Name]
		if !ok || firstBool(f.SerializationExclude) || ss.skip(inst, f.Name, f.Schema, v) {
			continue
		}
		ss.field = f.Name
		sv, err := ss.serialize(f.Schema, v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		out[ss.key(f.Name, f.SerializationAlias)] = sv
	}
	if err := ss.computed(n.ComputedFields, inst, out); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(inst.Extra) {
		v := inst.Extra[k]
		if ss.opts.ExcludeNone && v == nil {
			continue
		}
		sv, err := ss.infer(v)
		if err != nil {
			return nil, errors.Wrapf(err, "extra %q", k)
		}
		out[k] = sv
	}
	return out, nil
}

func (ss *serState) typedDict(n *core.TypedDictSchema, value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return ss.infer(value)
	}
	restore := ss.pushConfig(n.Config)
	defer restore()
	inst := &core.Instance{Class: className(n.Cls), Fields: m}
	prevSelf, prevField := ss.self, ss.field
	ss.self = inst
	defer func() { ss.self, ss.field = prevSelf, prevField }()
	out := map[string]any{}
	known := map[string]struct{}{}
	for _, f := range n.Fields {
		known[f.Name] = struct{}{}
		v, ok := m[f.Name]
		if !ok || firstBool(f.SerializationExclude) || ss.skip(nil, f.Name, f.Schema, v) {
			continue
		}
		ss.field = f.Name
		sv, err := ss.serialize(f.Schema, v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		out[ss.key(f.Name, f.SerializationAlias)] = sv
	}
	if err := ss.computed(n.ComputedFields, inst, out); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(m) {
		if _, ok := known[k]; ok {
			continue
		}
		sv, err := ss.serialize(n.ExtrasSchema, m[k])
		if err != nil {
			return nil, err
		}
		out[k] = sv
	}
	return out, nil
}

// skip applies the exclude_none, exclude_unset and exclude_defaults
// options to one field.
func (ss *serState) skip(inst *core.Instance, name string, s core.Schema, v any) bool {
	if ss.opts.ExcludeNone && v == nil {
		return true
	}
	if ss.opts.ExcludeUnset && inst != nil && !slices.Contains(inst.FieldsSet, name) {
		return true
	}
	if ss.opts.ExcludeDefaults {
		if d := defaultOf(s); d != nil && d.DefaultFactory == nil && reflect.DeepEqual(d.Default, v) {
			return true
		}
	}
	return false
}

func (ss *serState) key(name, alias string) string {
	if ss.opts.ByAlias && alias != "" {
		return alias
	}
	return name
}

func (ss *serState) computed(cfs []*core.ComputedField, inst *core.Instance, out map[string]any) error {
	for _, c := range cfs {
		v, err := core.Invoke(c.Function, inst)
		if err != nil {
			return errors.Wrapf(err, "computed field %q", c.PropertyName)
		}
		if ss.opts.ExcludeNone && v == nil {
			continue
		}
		ss.field = c.PropertyName
		sv, err := ss.serialize(c.ReturnSchema, v)
		if err != nil {
			return errors.Wrapf(err, "computed field %q", c.PropertyName)
		}
		out[ss.key(c.PropertyName, c.Alias)] = sv
	}
	return nil
}

// union serializes value with the first choice that accepts it as is.
func (ss *serState) union(choices []core.Schema, value any) (any, error) {
	for _, c := range choices {
		st := &state{v: ss.v, ctx: context.Background(), mode: ModePython, forceStrict: true}
		if _, err := st.validate(c, value); err == nil {
			return ss.serialize(c, value)
		}
	}
	return ss.infer(value)
}

func (ss *serState) items(value any, schemaAt func(i, total int) core.Schema) (any, error) {
	items, ok := asSlice(value)
	if !ok {
		return ss.infer(value)
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := ss.serialize(schemaAt(i, len(items)), item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func (ss *serState) dict(n *core.DictSchema, value any) (any, error) {
	entries, ok := mapEntries(value)
	if !ok {
		return ss.infer(value)
	}
	if ss.opts.JSON {
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			k, err := ss.serialize(n.KeysSchema, e.key)
			if err != nil {
				return nil, err
			}
			v, err := ss.serialize(n.ValuesSchema, e.value)
			if err != nil {
				return nil, errors.Wrapf(err, "key %v", e.key)
			}
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	}
	if m, ok := value.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for _, e := range entries {
			v, err := ss.serialize(n.ValuesSchema, e.value)
			if err != nil {
				return nil, errors.Wrapf(err, "key %v", e.key)
			}
			out[e.key.(string)] = v
		}
		return out, nil
	}
	out := make(map[any]any, len(entries))
	for _, e := range entries {
		v, err := ss.serialize(n.ValuesSchema, e.value)
		if err != nil {
			return nil, errors.Wrapf(err, "key %v", e.key)
		}
		out[e.key] = v
	}
	return out, nil
}

func (ss *serState) timeValue(value any, c codec.Codec[string, time.Time]) (any, error) {
	t, ok := value.(time.Time)
	if !ok || !ss.opts.JSON {
		return ss.infer(value)
	}
	return c.Encode(t)
}

// infer serializes a value by its Go type.
func (ss *serState) infer(value any) (any, error) {
	switch x := value.(type) {
	case nil, bool, string, int, int64, json.Number:
		return x, nil
	case float64:
		if ss.opts.JSON && (math.IsNaN(x) || math.IsInf(x, 0)) {
			return nil, nil
		}
		return x, nil
	case *core.Instance:
		m := make(map[string]any, len(x.Fields)+len(x.Extra))
		for k, v := range x.Extra {
			m[k] = v
		}
		for k, v := range x.Fields {
			m[k] = v
		}
		return ss.infer(m)
	case *ArgsKwargs:
		return ss.infer(x.Args)
	}
	if !ss.opts.JSON {
		return ss.inferPython(value)
	}
	switch x := value.(type) {
	case time.Time:
		return codec.DateTime().Encode(x)
	case time.Duration:
		if ss.timedeltaMode() == "float" {
			return x.Seconds(), nil
		}
		return codec.Duration().Encode(x)
	case uuid.UUID:
		return codec.UUID().Encode(x)
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		if reflect.TypeOf(value).Kind() != reflect.Struct {
			return x.String(), nil
		}
	}
	if items, ok := asSlice(value); ok {
		out := make([]any, len(items))
		for i, item := range items {
			v, err := ss.infer(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	if entries, ok := mapEntries(value); ok {
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			v, err := ss.infer(e.value)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(e.key)] = v
		}
		return out, nil
	}
	return value, nil
}

func (ss *serState) inferPython(value any) (any, error) {
	switch x := value.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			v, err := ss.infer(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			v, err := ss.infer(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return value, nil
}

func (ss *serState) timedeltaMode() string {
	for i := len(ss.configs) - 1; i >= 0; i-- {
		if m := ss.configs[i].SerJSONTimedelta; m != "" {
			return m
		}
	}
	return "iso8601"
}
