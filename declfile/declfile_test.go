package declfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/builder"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
	"github.com/reoring/schemagen/validator"
)

func declared(t *testing.T, name string) *Declared {
	t.Helper()
	f, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	d, err := f.Declare()
	require.NoError(t, err)
	return d
}

func validatorFor(t *testing.T, d *Declared, record string) *validator.Validator {
	t.Helper()
	rec, err := d.Record(record)
	require.NoError(t, err)
	s, err := builder.Resolve(rec, builder.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	v, err := validator.New(s)
	require.NoError(t, err)
	return v
}

func TestDeclare_ForwardReferencesAndDiscriminator(t *testing.T) {
	d := declared(t, "zoo.yaml")
	assert.Equal(t, []string{"Owner", "Animal", "Cat", "Dog"}, d.Order)
	assert.Equal(t, "zoo.Owner", d.Records["Owner"].QualName())
	assert.Equal(t, "A person with one pet.", d.Records["Owner"].Doc)
	require.Len(t, d.Records["Cat"].Bases, 1)
	assert.Same(t, d.Records["Animal"], d.Records["Cat"].Bases[0])

	nick := d.Records["Owner"].Field("nickname")
	require.NotNil(t, nick)
	assert.True(t, nick.Info.HasDefault)
	assert.Nil(t, nick.Info.Default)

	v := validatorFor(t, d, "Owner")
	ctx := context.Background()

	got, err := v.ValidateJSON(ctx, []byte(`{"name":"  ann ","pet":{"kind":"dog","breed":"lab"}}`))
	require.NoError(t, err)
	owner := got.(*core.Instance)
	assert.Equal(t, "ann", owner.Fields["name"])
	pet := owner.Fields["pet"].(*core.Instance)
	assert.Equal(t, "zoo.Dog", pet.Class)
	assert.Equal(t, "s", pet.Fields["size"])

	_, err = v.ValidateJSON(ctx, []byte(`{"name":"ann","pet":{"kind":"fish"}}`))
	iss, ok := validator.AsIssues(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, iss, 1)
	assert.Equal(t, validator.CodeDiscriminatorUnknown, iss[0].Code)
	assert.Equal(t, "/pet", iss[0].Path)
	assert.Contains(t, iss[0].Message, "'fish'")

	_, err = v.ValidateJSON(ctx, []byte(`{"name":"ann","pet":{"kind":"cat","lives":10,"size":"m"}}`))
	iss, ok = validator.AsIssues(err)
	require.True(t, ok, "got %v", err)
	paths := make([]string, len(iss))
	for i, is := range iss {
		paths[i] = is.Path
	}
	assert.ElementsMatch(t, []string{"/pet/size", "/pet/lives"}, paths)
}

func TestDeclare_ExprDiscriminatorPredicateAndAliases(t *testing.T) {
	d := declared(t, "shapes.yaml")
	v := validatorFor(t, d, "Shape")
	ctx := context.Background()

	got, err := v.Validate(ctx, map[string]any{"shapeName": "c", "body": map[string]any{"radius": 2.5}})
	require.NoError(t, err)
	body := got.(*core.Instance).Fields["body"].(*core.Instance)
	assert.Equal(t, "shapes.Circle", body.Class)

	got, err = v.Validate(ctx, map[string]any{"shapeName": "s", "body": map[string]any{"sideLength": 3}})
	require.NoError(t, err)
	body = got.(*core.Instance).Fields["body"].(*core.Instance)
	assert.Equal(t, map[string]any{"side_length": 3.0}, body.Fields)

	_, err = v.Validate(ctx, map[string]any{"shapeName": "c", "body": map[string]any{"radius": 200}})
	iss, ok := validator.AsIssues(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, validator.CodePredicateFailed, iss[0].Code)
	assert.Equal(t, "/body/radius", iss[0].Path)

	_, err = v.Validate(ctx, map[string]any{"shape_name": "c", "body": map[string]any{"radius": 1}})
	iss, ok = validator.AsIssues(err)
	require.True(t, ok, "got %v", err)
	codes := map[string]string{}
	for _, is := range iss {
		codes[is.Path] = is.Code
	}
	assert.Empty(t, cmp.Diff(map[string]string{
		"/shapeName":  validator.CodeRequired,
		"/shape_name": validator.CodeUnknownKey,
	}, codes))
}

func TestDeclare_GenericAndRootModel(t *testing.T) {
	d := declared(t, "shapes.yaml")
	box := d.Records["Box"]
	require.True(t, box.IsGeneric())
	assert.Equal(t, "T", box.Parameters()[0].Name)

	e, err := d.Type("Box[int]")
	require.NoError(t, err)
	p, ok := e.(*typeexpr.Parametrized)
	require.True(t, ok, "got %T", e)
	assert.Same(t, box, p.Origin)

	tags := d.Records["Tags"]
	assert.Equal(t, typeexpr.KindRootModel, tags.Kind)
	v := validatorFor(t, d, "Tags")
	got, err := v.Validate(context.Background(), []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got.(*core.Instance).Fields[typeexpr.RootField])
}

func TestDeclare_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown kind": `
records:
  - {name: A, kind: table}`,
		"late base": `
records:
  - {name: A, bases: [B]}
  - {name: B}`,
		"alias generator": `
config: {alias_generator: kebab}
records:
  - {name: A}`,
		"type and union": `
records:
  - name: A
    fields:
      - {name: x, type: int, union: [{type: str}]}`,
		"missing type": `
records:
  - name: A
    fields:
      - {name: x}`,
		"bad predicate": `
records:
  - name: A
    fields:
      - {name: x, type: int, predicate: "value >"}`,
		"bad type": `
records:
  - name: A
    fields:
      - {name: x, type: "list[int"}`,
		"root without type": `
records:
  - {name: A, kind: root_model}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(src))
			require.NoError(t, err)
			_, err = f.Declare()
			assert.Error(t, err)
		})
	}
}

func TestDeclare_Dataclass(t *testing.T) {
	f, err := Parse([]byte(`
module: geo
records:
  - name: Point
    kind: dataclass
    fields:
      - {name: x, type: int}
      - {name: y, type: int, default: 0}
      - {name: label, type: str, kw_only: true, default: ""}
      - {name: norm, type: int, init: false, default: -1}
`))
	require.NoError(t, err)
	d, err := f.Declare()
	require.NoError(t, err)
	assert.Equal(t, typeexpr.KindDataclass, d.Records["Point"].Kind)

	v := validatorFor(t, d, "Point")
	got, err := v.ValidateJSON(context.Background(), []byte(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2, "label": "", "norm": -1}, got.(*core.Instance).Fields)

	_, err = v.ValidateJSON(context.Background(), []byte(`[1, 2, "p"]`))
	iss, ok := validator.AsIssues(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "/2", iss[0].Path)
	assert.Equal(t, validator.CodeUnknownKey, iss[0].Code)
}

func TestParse_DefaultsModule(t *testing.T) {
	f, err := Parse([]byte("records: []"))
	require.NoError(t, err)
	assert.Equal(t, "main", f.Module)

	_, err = Parse([]byte("records: {"))
	assert.Error(t, err)
}

func TestFromGoSource(t *testing.T) {
	f, err := FromGoSource(filepath.Join("testdata", "gosrc"), "Order")
	require.NoError(t, err)
	assert.Equal(t, "shop", f.Module)

	names := make([]string, len(f.Records))
	byName := map[string]RecordDecl{}
	for i, r := range f.Records {
		names[i] = r.Name
		byName[r.Name] = r
	}
	assert.Equal(t, []string{"Audit", "Order", "Customer", "Line"}, names)

	order := byName["Order"]
	assert.Equal(t, "Order is a customer order.", order.Doc)
	assert.Equal(t, []string{"Audit"}, order.Bases)
	want := []FieldDecl{
		{Name: "id", Type: "int"},
		{Name: "customer", Type: "Customer | None", HasDefault: true},
		{Name: "lines", Type: "list[Line]"},
		{Name: "note", Type: "str", HasDefault: true, Default: "", Description: "free text"},
		{Name: "labels", Type: "dict[str, int]", HasDefault: true},
	}
	assert.Empty(t, cmp.Diff(want, order.Fields))

	line := byName["Line"]
	assert.Equal(t, "Stock Keeping Unit", line.Fields[0].Title)
	assert.Equal(t, "tuple[int, int]", line.Fields[2].Type)
	assert.Equal(t, "bytes", line.Fields[3].Type)
	assert.Equal(t, "datetime", byName["Audit"].Fields[0].Type)
	assert.Empty(t, byName["Audit"].Doc)
	assert.Equal(t, "Customer places orders.", byName["Customer"].Doc)

	d, err := f.Declare()
	require.NoError(t, err)
	v := validatorFor(t, d, "Order")
	got, err := v.ValidateJSON(context.Background(), []byte(`{
		"created_at": "2025-01-02T03:04:05Z",
		"id": 7,
		"lines": [{"sku": "x", "qty": 1, "pos": [1, 2], "raw": "ab"}]
	}`))
	require.NoError(t, err)
	inst := got.(*core.Instance)
	assert.Nil(t, inst.Fields["customer"])
	assert.Equal(t, "", inst.Fields["note"])

	_, err = FromGoSource(filepath.Join("testdata", "gosrc"), "Missing")
	assert.Error(t, err)
}
