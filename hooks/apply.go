package hooks

import (
	"github.com/reoring/schemagen/core"
)

// ValidatorLike is implemented by the hook kinds that become validator
// function nodes.
type ValidatorLike interface {
	Info
	validatorMode() string
}

// ValidatorNode wraps s in the function node for mode. Plain validators
// replace s entirely.
func ValidatorNode(mode string, fn any, infoArg bool, s core.Schema, fieldName string) core.Schema {
	vf := core.ValidatorFunc{Type: core.NoInfo, Function: fn}
	if infoArg {
		vf.Type = core.WithInfo
		vf.FieldName = fieldName
	}
	switch mode {
	case ModeBefore:
		return &core.FunctionBeforeSchema{Function: vf, Schema: s}
	case ModeWrap:
		return &core.FunctionWrapSchema{Function: vf, Schema: s}
	case ModePlain:
		return &core.FunctionPlainSchema{Function: vf}
	}
	return &core.FunctionAfterSchema{Function: vf, Schema: s}
}

// ApplyValidators wraps s in one function node per decorator, in order,
// so the last decorator ends up outermost.
func ApplyValidators[I ValidatorLike](s core.Schema, ds []*Decorator[I], fieldName string) core.Schema {
	for _, d := range ds {
		s = ValidatorNode(d.Info.validatorMode(), d.Func, d.InfoArg, s, fieldName)
	}
	return s
}

// Which model validators ApplyModelValidators applies.
const (
	ModelInner = "inner" // Only before validators, around the fields node.
	ModelOuter = "outer" // Everything but before validators, around the model node.
	ModelAll   = "all"
)

// ApplyModelValidators applies the model validators selected by which.
func ApplyModelValidators(s core.Schema, ds []*Decorator[*ModelValidatorInfo], which string) core.Schema {
	for _, d := range ds {
		if which == ModelInner && d.Info.Mode != ModeBefore {
			continue
		}
		if which == ModelOuter && d.Info.Mode == ModeBefore {
			continue
		}
		s = ValidatorNode(d.Info.Mode, d.Func, d.InfoArg, s, "")
	}
	return s
}

// SplitEachItem separates legacy validators that apply to collection items.
func SplitEachItem(ds []*Decorator[*ValidatorInfo]) (eachItem, rest []*Decorator[*ValidatorInfo]) {
	for _, d := range ds {
		if d.Info.EachItem {
			eachItem = append(eachItem, d)
		} else {
			rest = append(rest, d)
		}
	}
	return eachItem, rest
}

// ApplyEachItemValidators applies ds to the items of a list, set,
// frozenset or tuple, to the values of a dict, or to the inner schema of a
// nullable. Other shapes are a usage error.
func ApplyEachItemValidators(s core.Schema, ds []*Decorator[*ValidatorInfo], fieldName string) (core.Schema, error) {
	if len(ds) == 0 {
		return s, nil
	}
	out := core.Copy(s)
	switch n := out.(type) {
	case *core.NullableSchema:
		inner, err := ApplyEachItemValidators(n.Schema, ds, fieldName)
		if err != nil {
			return nil, err
		}
		n.Schema = inner
	case *core.ListSchema:
		n.ItemsSchema = ApplyValidators(itemsOrAny(n.ItemsSchema), ds, fieldName)
	case *core.SetSchema:
		n.ItemsSchema = ApplyValidators(itemsOrAny(n.ItemsSchema), ds, fieldName)
	case *core.FrozenSetSchema:
		n.ItemsSchema = ApplyValidators(itemsOrAny(n.ItemsSchema), ds, fieldName)
	case *core.TupleSchema:
		items := make([]core.Schema, len(n.ItemsSchema))
		for i, it := range n.ItemsSchema {
			items[i] = ApplyValidators(it, ds, fieldName)
		}
		n.ItemsSchema = items
	case *core.DictSchema:
		n.ValuesSchema = ApplyValidators(itemsOrAny(n.ValuesSchema), ds, fieldName)
	default:
		return nil, core.Errorf(core.CodeValidatorEachItem, "Validator(..., EachItem()) cannot be applied to fields with a schema of %s", s.Type())
	}
	return out, nil
}

func itemsOrAny(s core.Schema) core.Schema {
	if s == nil {
		return &core.AnySchema{}
	}
	return s
}

// RequireValidateDefault reports whether a legacy validator asked for
// defaults to be validated.
func RequireValidateDefault(ds []*Decorator[*ValidatorInfo]) bool {
	for _, d := range ds {
		if d.Info.Always {
			return true
		}
	}
	return false
}

// FieldSerSchema builds the serialization of a field from its serializer.
// returnSchema may be nil.
func FieldSerSchema(d *Decorator[*FieldSerializerInfo], returnSchema core.Schema) core.SerSchema {
	if d.Info.Mode == ModeWrap {
		return &core.WrapSerializerFunctionSerSchema{
			Function:          d.Func,
			IsFieldSerializer: d.IsFieldSerializer,
			InfoArg:           d.InfoArg,
			ReturnSchema:      returnSchema,
			WhenUsed:          d.Info.WhenUsed,
		}
	}
	return &core.PlainSerializerFunctionSerSchema{
		Function:          d.Func,
		IsFieldSerializer: d.IsFieldSerializer,
		InfoArg:           d.InfoArg,
		ReturnSchema:      returnSchema,
		WhenUsed:          d.Info.WhenUsed,
	}
}

// ModelSerSchema builds the serialization of a record from its model
// serializer. The instance is the serialized value itself.
func ModelSerSchema(d *Decorator[*ModelSerializerInfo], returnSchema core.Schema) core.SerSchema {
	if d.Info.Mode == ModeWrap {
		return &core.WrapSerializerFunctionSerSchema{
			Function:     d.Func,
			InfoArg:      d.InfoArg,
			ReturnSchema: returnSchema,
			WhenUsed:     d.Info.WhenUsed,
		}
	}
	return &core.PlainSerializerFunctionSerSchema{
		Function:     d.Func,
		InfoArg:      d.InfoArg,
		ReturnSchema: returnSchema,
		WhenUsed:     d.Info.WhenUsed,
	}
}
