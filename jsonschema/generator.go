// Package jsonschema renders core schemas as Draft 2020-12 JSON Schema
// documents.
//
// A Generator walks a core schema with a dispatch table keyed by node tag.
// Definitions are named independently from core refs: every definition gets
// a list of candidate names from shortest to most qualified, and once the
// document is complete each definition takes the first candidate that no
// other, different definition also claims. Two records called Item from
// different modules therefore render as module__Item definitions while a
// lone Item keeps its short name.
package jsonschema

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/core"
)

// Mode selects which shape of a schema is rendered.
type Mode string

const (
	// ModeValidation renders the accepted input.
	ModeValidation Mode = "validation"
	// ModeSerialization renders the produced output, including computed
	// fields and serializer return types.
	ModeSerialization Mode = "serialization"
)

var modeTitles = map[Mode]string{
	ModeValidation:    "Input",
	ModeSerialization: "Output",
}

// DefaultRefTemplate places definitions under $defs.
const DefaultRefTemplate = "#/$defs/{model}"

// RenderFunc renders one node kind. It is registered by node tag.
type RenderFunc func(g *Generator, s core.Schema) (map[string]any, error)

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger warnings and definition events go to.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRefTemplate sets the template references are rendered with. The
// template must contain {model}.
func WithRefTemplate(t string) Option {
	return func(g *Generator) { g.refTemplate = t }
}

// ByAlias selects whether properties are named by their aliases. It is on
// by default.
func ByAlias(on bool) Option {
	return func(g *Generator) { g.byAlias = on }
}

// Strict makes nodes that cannot be rendered fail the whole document
// instead of being left out with a warning.
func Strict(on bool) Option {
	return func(g *Generator) { g.strict = on }
}

// WithRenderer replaces the rendering of the node kind tag.
func WithRenderer(tag string, fn RenderFunc) Option {
	return func(g *Generator) { g.dispatch[tag] = fn }
}

type coreModeRef struct {
	ref  string
	mode Mode
}

// Generator renders core schemas. A Generator produces one document, or
// one set of documents sharing their definitions, and is then used up.
type Generator struct {
	log         *zap.Logger
	refTemplate string
	byAlias     bool
	strict      bool
	dispatch    map[string]RenderFunc

	mode    Mode
	used    bool
	configs []*core.CoreConfig

	coreToDefs  map[coreModeRef]string
	coreToJSON  map[coreModeRef]string
	jsonToDefs  map[string]string
	definitions map[string]map[string]any
	invalidDefs map[string]error

	collisionCounter map[string]int
	collisionIndex   map[string]int
	choices          map[string][]string

	warnings []Warning
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		log:              zap.NewNop(),
		refTemplate:      DefaultRefTemplate,
		byAlias:          true,
		dispatch:         defaultDispatch(),
		mode:             ModeValidation,
		coreToDefs:       map[coreModeRef]string{},
		coreToJSON:       map[coreModeRef]string{},
		jsonToDefs:       map[string]string{},
		definitions:      map[string]map[string]any{},
		invalidDefs:      map[string]error{},
		collisionCounter: map[string]int{},
		collisionIndex:   map[string]int{},
		choices:          map[string][]string{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Mode returns the mode of the document being rendered.
func (g *Generator) Mode() Mode { return g.mode }

// Warnings returns the problems that made parts of the output be left out.
func (g *Generator) Warnings() []Warning { return g.warnings }

// Generate renders s. Definitions that are referenced get a $defs entry
// and a root that is only a reference used once is replaced by its
// definition.
func (g *Generator) Generate(s core.Schema, mode Mode) (map[string]any, error) {
	if g.used {
		return nil, ErrGeneratorUsed
	}
	g.mode = mode
	js, err := g.GenerateInner(s)
	if err != nil {
		return nil, err
	}
	counts, err := g.refCounts(js)
	if err != nil {
		return nil, err
	}
	if ref, ok := js["$ref"].(string); ok && len(js) == 1 && counts[ref] == 1 {
		def, err := g.fromDefinitions(ref)
		if err != nil {
			return nil, err
		}
		if def != nil {
			js = clone(def)
		}
	}
	g.collectGarbage(js)
	remap, err := g.buildRemapping()
	if err != nil {
		return nil, err
	}
	if len(g.definitions) > 0 {
		js["$defs"] = g.defsValue()
	}
	g.used = true
	return remap.value(js).(map[string]any), nil
}

// Input is one root of GenerateDefinitions.
type Input struct {
	Key    string
	Mode   Mode
	Schema core.Schema
}

// InputKey identifies the rendering of one Input.
type InputKey struct {
	Key  string
	Mode Mode
}

// GenerateDefinitions renders several roots that share one set of
// definitions. It returns the rendering of each root, usually a $ref, and
// the shared $defs.
func (g *Generator) GenerateDefinitions(inputs []Input) (map[InputKey]map[string]any, map[string]any, error) {
	if g.used {
		return nil, nil, ErrGeneratorUsed
	}
	for _, in := range inputs {
		g.mode = in.Mode
		if _, err := g.GenerateInner(in.Schema); err != nil {
			return nil, nil, errors.Wrapf(err, "render %s", in.Key)
		}
	}
	remap, err := g.buildRemapping()
	if err != nil {
		return nil, nil, err
	}
	out := make(map[InputKey]map[string]any, len(inputs))
	for _, in := range inputs {
		g.mode = in.Mode
		js, err := g.GenerateInner(in.Schema)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "render %s", in.Key)
		}
		out[InputKey{Key: in.Key, Mode: in.Mode}] = remap.value(js).(map[string]any)
	}
	g.used = true
	defs := remap.value(map[string]any{"$defs": g.defsValue()}).(map[string]any)
	return out, defs["$defs"].(map[string]any), nil
}

// GenerateInner renders s as part of the document being built. It is the
// entry point for renderers and hooks that render children.
func (g *Generator) GenerateInner(s core.Schema) (map[string]any, error) {
	if ref := core.Ref(s); ref != "" {
		key := coreModeRef{ref: ref, mode: g.mode}
		if d, ok := g.coreToDefs[key]; ok {
			if _, ok := g.definitions[d]; ok {
				return refValue(g.coreToJSON[key]), nil
			}
		}
	}
	var h core.JSONSchemaHandler = &handler{g: g, call: g.render}
	md := s.Base().Metadata
	for _, fn := range md.JSFunctions() {
		h = g.wrapFunction(fn, h)
	}
	for _, fn := range md.JSAnnotationFunctions() {
		h = g.wrapAnnotation(fn, h, true)
	}
	js, err := h.Call(s)
	if err != nil {
		return nil, err
	}
	return g.populateDefs(s, js), nil
}

// render produces the default rendering of s: the serializer output type
// in serialization mode when there is one, otherwise the dispatch table.
func (g *Generator) render(s core.Schema) (map[string]any, error) {
	var js map[string]any
	if ser := s.Base().Serialization; g.mode == ModeSerialization && ser != nil {
		var err error
		if js, err = g.serSchema(ser); err != nil {
			return nil, err
		}
		if _, nullable := s.(*core.NullableSchema); js != nil && nullable && skipsNone(ser) {
			js = flattenedAnyOf([]map[string]any{{"type": "null"}, js})
		}
	}
	if js == nil {
		fn, ok := g.dispatch[s.Type()]
		if !ok {
			return nil, invalidf("core schema type %q", s.Type())
		}
		var err error
		if js, err = fn(g, s); err != nil {
			return nil, err
		}
	}
	return g.populateDefs(s, js), nil
}

// populateDefs stores the rendering of a node that has a ref as its
// definition and returns a reference in its place.
func (g *Generator) populateDefs(s core.Schema, js map[string]any) map[string]any {
	ref := core.Ref(s)
	if ref == "" {
		return js
	}
	defsRef, jsonRef := g.cacheDefsRef(ref)
	if r, _ := js["$ref"].(string); r != jsonRef {
		if _, ok := g.definitions[defsRef]; !ok {
			g.log.Debug("definition rendered", zap.String("ref", ref), zap.String("name", defsRef))
		}
		g.definitions[defsRef] = js
		delete(g.invalidDefs, defsRef)
	}
	return refValue(jsonRef)
}

// wrapFunction applies a node-level hook. Keys the hook adds next to a
// $ref are moved into the referenced definition.
func (g *Generator) wrapFunction(fn core.JSFunc, next core.JSONSchemaHandler) core.JSONSchemaHandler {
	return &handler{g: g, call: func(s core.Schema) (map[string]any, error) {
		js, err := fn(s, next)
		if err != nil {
			return nil, err
		}
		js = g.populateDefs(s, js)
		original, err := g.resolveRef(js)
		if err != nil {
			return nil, err
		}
		if _, ok := js["$ref"]; ok {
			for k, v := range js {
				if k != "$ref" {
					original[k] = v
				}
			}
		}
		return original, nil
	}}
}

// wrapAnnotation applies a hook contributed by annotated metadata.
func (g *Generator) wrapAnnotation(fn core.JSFunc, next core.JSONSchemaHandler, populate bool) core.JSONSchemaHandler {
	return &handler{g: g, call: func(s core.Schema) (map[string]any, error) {
		js, err := fn(s, next)
		if err != nil {
			return nil, err
		}
		if populate {
			js = g.populateDefs(s, js)
		}
		return js, nil
	}}
}

// generateField renders the schema of a field with the hooks attached to
// the field itself. Field hooks never create definitions.
func (g *Generator) generateField(s core.Schema, md core.Metadata) (map[string]any, error) {
	var h core.JSONSchemaHandler = &handler{g: g, call: g.GenerateInner}
	for _, fn := range md.JSFunctions() {
		h = g.wrapAnnotation(fn, h, false)
	}
	for _, fn := range md.JSAnnotationFunctions() {
		h = g.wrapAnnotation(fn, h, false)
	}
	return h.Call(s)
}

// resolveRef follows a reference to its definition. Other values are
// returned as they are.
func (g *Generator) resolveRef(js map[string]any) (map[string]any, error) {
	ref, ok := js["$ref"].(string)
	if !ok {
		return js, nil
	}
	def, err := g.fromDefinitions(ref)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, errors.Errorf("could not find a definition for %s; a hook may have resolved a reference from within a recursive record", ref)
	}
	return def, nil
}

func (g *Generator) fromDefinitions(jsonRef string) (map[string]any, error) {
	d, ok := g.jsonToDefs[jsonRef]
	if !ok {
		return nil, nil
	}
	if err, ok := g.invalidDefs[d]; ok {
		return nil, err
	}
	return g.definitions[d], nil
}

func (g *Generator) defsValue() map[string]any {
	out := make(map[string]any, len(g.definitions))
	for k, v := range g.definitions {
		out[k] = v
	}
	return out
}

// skip records a warning for an omitted part, or returns err when the
// generator is strict.
func (g *Generator) skip(kind string, err *InvalidForJSONSchemaError) error {
	if g.strict {
		return err
	}
	g.warn(kind, err.Message)
	return nil
}

func (g *Generator) warn(kind, detail string) {
	g.warnings = append(g.warnings, Warning{Kind: kind, Detail: detail})
	g.log.Warn("json schema", zap.String("kind", kind), zap.String("detail", detail))
}

func (g *Generator) pushConfig(c *core.CoreConfig) func() {
	if c == nil {
		return func() {}
	}
	g.configs = append(g.configs, c)
	return func() { g.configs = g.configs[:len(g.configs)-1] }
}

func (g *Generator) config() core.CoreConfig {
	if len(g.configs) == 0 {
		return core.CoreConfig{}
	}
	return *g.configs[len(g.configs)-1]
}

type handler struct {
	g    *Generator
	call func(core.Schema) (map[string]any, error)
}

func (h *handler) Call(s core.Schema) (map[string]any, error) { return h.call(s) }

func (h *handler) ResolveRef(js map[string]any) (map[string]any, error) { return h.g.resolveRef(js) }

func (h *handler) Mode() string { return string(h.g.mode) }

func refValue(jsonRef string) map[string]any { return map[string]any{"$ref": jsonRef} }

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
