package core

import "reflect"

// ValidateCoreSchema checks the structural invariants the backend relies
// on: required variant fields are set, every reference resolves and
// definitions nodes only appear at the top. It returns s unchanged when the
// graph is well formed.
func ValidateCoreSchema(s Schema) (Schema, error) {
	if s == nil {
		return nil, Errorf(CodeInvalidCoreSchema, "core schema is nil")
	}
	defs, err := CollectDefinitions(s)
	if err != nil {
		return nil, err
	}
	top := s
	depth := 0
	var check WalkFunc
	check = func(n Schema, recurse Recurse) (Schema, error) {
		if err := checkNode(n, defs); err != nil {
			return nil, err
		}
		if _, ok := n.(*DefinitionsSchema); ok && n != top {
			return nil, Errorf(CodeInvalidCoreSchema, "definitions must not be nested (found under depth %d)", depth)
		}
		depth++
		defer func() { depth-- }()
		return recurse(n, check)
	}
	if _, err := Walk(s, check); err != nil {
		return nil, err
	}
	return s, nil
}

func checkNode(n Schema, defs map[string]Schema) error {
	missing := func(field string) error {
		return Errorf(CodeInvalidCoreSchema, "%s schema is missing required key %q", n.Type(), field)
	}
	switch v := n.(type) {
	case *DefinitionReferenceSchema:
		if v.SchemaRef == "" {
			return missing("schema_ref")
		}
		if _, ok := defs[v.SchemaRef]; !ok {
			return Errorf(CodeInvalidCoreSchema, "definition-ref %q does not resolve to a definition", v.SchemaRef)
		}
	case *FunctionBeforeSchema:
		if v.Schema == nil {
			return missing("schema")
		}
		if v.Function.Function == nil {
			return missing("function")
		}
	case *FunctionAfterSchema:
		if v.Schema == nil {
			return missing("schema")
		}
		if v.Function.Function == nil {
			return missing("function")
		}
	case *FunctionWrapSchema:
		if v.Schema == nil {
			return missing("schema")
		}
		if v.Function.Function == nil {
			return missing("function")
		}
	case *FunctionPlainSchema:
		if v.Function.Function == nil {
			return missing("function")
		}
	case *DefaultSchema:
		if v.Schema == nil {
			return missing("schema")
		}
	case *NullableSchema:
		if v.Schema == nil {
			return missing("schema")
		}
	case *ModelSchema:
		if v.Schema == nil {
			return missing("schema")
		}
	case *DataclassSchema:
		if v.Schema == nil {
			return missing("schema")
		}
		if v.PostInit != nil && reflect.ValueOf(v.PostInit).Kind() != reflect.Func {
			return Errorf(CodeInvalidCoreSchema, "post_init of %s is %T, not a function", v.Type(), v.PostInit)
		}
	case *LiteralSchema:
		if len(v.Expected) == 0 {
			return missing("expected")
		}
	case *UnionSchema:
		if len(v.Choices) == 0 {
			return missing("choices")
		}
	case *TaggedUnionSchema:
		if v.Choices.Len() == 0 {
			return missing("choices")
		}
		if v.Discriminator == nil {
			return missing("discriminator")
		}
	case *ChainSchema:
		if len(v.Steps) == 0 {
			return missing("steps")
		}
	case *CallSchema:
		if v.ArgumentsSchema == nil {
			return missing("arguments_schema")
		}
		if v.Function == nil {
			return missing("function")
		}
	case *DefinitionsSchema:
		if v.Schema == nil {
			return missing("schema")
		}
		for _, d := range v.Definitions {
			if Ref(d) == "" {
				return Errorf(CodeInvalidCoreSchema, "definition of type %q has no ref", d.Type())
			}
		}
	case *ModelFieldsSchema:
		for _, f := range v.Fields {
			if f.Schema == nil {
				return Errorf(CodeInvalidCoreSchema, "model field %q has no schema", f.Name)
			}
		}
	case *TypedDictSchema:
		for _, f := range v.Fields {
			if f.Schema == nil {
				return Errorf(CodeInvalidCoreSchema, "typed-dict field %q has no schema", f.Name)
			}
		}
	case *DataclassArgsSchema:
		for _, f := range v.Fields {
			if f.Schema == nil {
				return Errorf(CodeInvalidCoreSchema, "dataclass field %q has no schema", f.Name)
			}
		}
	}
	return nil
}
