// Package schemagen builds core schemas from record declarations and puts
// them to work.
//
// - Model completes a record (resolving forward references and deferred
//   builds) and validates, serializes and renders it as JSON Schema.
// - Adapter does the same for any type expression that is not a record.
// - Parametrize applies a generic record to type arguments through a shared
//   instantiation cache.
//
// Design policy:
// - The root package only wires the builder, the reference validator and
//   the JSON Schema renderer together; the work lives in those packages.
// - Compiled validators are cached per schema and shared across goroutines.
//
// Typical usage:
//
//	ns := typeexpr.NewNamespace("app")
//	pair := typeexpr.Model("app", "Pair").
//		Field("left", typeexpr.Int).Required().
//		Field("right", typeexpr.Ref("Pair | None")).Default(nil).
//		In(ns).MustBuild()
//
//	m := schemagen.NewModel(pair)
//	v, err := m.ValidateJSON(ctx, data)
//	js, err := m.JSONSchema(jsonschema.ModeValidation)
package schemagen
