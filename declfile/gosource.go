package declfile

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FromGoSource declares the struct types typeNames found in the Go package
// in dir, together with the package's struct types they reference. Keys,
// optional-ness and documentation come from the json and schemagen struct
// tags, as for typeexpr.TypeOf.
func FromGoSource(dir string, typeNames ...string) (*File, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, nil, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", dir)
	}
	sc := &sourceScan{types: map[string]*ast.TypeSpec{}, docs: map[string]*ast.CommentGroup{}, done: map[string]bool{}}
	for name, pkg := range pkgs {
		if strings.HasSuffix(name, "_test") {
			continue
		}
		sc.module = name
		for _, f := range pkg.Files {
			for _, decl := range f.Decls {
				gd, ok := decl.(*ast.GenDecl)
				if !ok || gd.Tok != token.TYPE {
					continue
				}
				for _, spec := range gd.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || ts.Name == nil {
						continue
					}
					sc.types[ts.Name.Name] = ts
					// go/parser attaches the comment of an ungrouped
					// declaration to the GenDecl.
					if doc := ts.Doc; doc != nil {
						sc.docs[ts.Name.Name] = doc
					} else if len(gd.Specs) == 1 && gd.Doc != nil {
						sc.docs[ts.Name.Name] = gd.Doc
					}
				}
			}
		}
	}
	for _, name := range typeNames {
		ts, ok := sc.types[name]
		if !ok {
			return nil, errors.Errorf("type %s not found in %s", name, dir)
		}
		if _, ok := ts.Type.(*ast.StructType); !ok {
			return nil, errors.Errorf("type %s is not a struct", name)
		}
		sc.record(name)
	}
	return &File{Module: sc.module, Records: sc.records}, nil
}

type sourceScan struct {
	module  string
	types   map[string]*ast.TypeSpec
	docs    map[string]*ast.CommentGroup
	done    map[string]bool
	records []RecordDecl
}

// record declares the struct type name after its embedded bases, so that
// bases come first in the file.
func (sc *sourceScan) record(name string) {
	if sc.done[name] {
		return
	}
	sc.done[name] = true
	st := sc.types[name].Type.(*ast.StructType)
	rd := RecordDecl{Name: name}
	if doc := sc.docs[name]; doc != nil {
		rd.Doc = strings.TrimSpace(doc.Text())
	}
	var pending []string
	for _, field := range st.Fields.List {
		tag := reflect.StructTag(strings.Trim(fieldTag(field), "`"))
		if len(field.Names) == 0 {
			if base, ok := sc.structName(field.Type); ok && !hasJSONName(tag) {
				sc.record(base)
				rd.Bases = append(rd.Bases, base)
				continue
			}
		}
		goName := fieldGoName(field)
		if goName == "" || !ast.IsExported(goName) {
			continue
		}
		key := structKey(goName, tag)
		if key == "-" {
			continue
		}
		typeSrc, refs := sc.typeSource(field.Type)
		pending = append(pending, refs...)
		fd := FieldDecl{Name: key, Type: typeSrc}
		_, isPtr := field.Type.(*ast.StarExpr)
		if strings.Contains(tag.Get("json"), ",omitempty") || isPtr {
			fd.HasDefault = true
			if !isPtr {
				fd.Default = zeroOf(field.Type)
			}
		}
		applySchemagenTag(&fd, tag)
		rd.Fields = append(rd.Fields, fd)
	}
	sc.records = append(sc.records, rd)
	for _, ref := range pending {
		sc.record(ref)
	}
}

func fieldTag(f *ast.Field) string {
	if f.Tag == nil {
		return ""
	}
	return f.Tag.Value
}

func fieldGoName(f *ast.Field) string {
	if len(f.Names) > 0 && f.Names[0] != nil {
		return f.Names[0].Name
	}
	if id, ok := f.Type.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func hasJSONName(tag reflect.StructTag) bool {
	jt := tag.Get("json")
	return jt != "" && !strings.HasPrefix(jt, ",")
}

// structKey follows typeexpr.ResolveStructKey: schemagen name=, then the
// json name, then the Go name.
func structKey(goName string, tag reflect.StructTag) string {
	for _, p := range strings.Split(tag.Get("schemagen"), ",") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(p), "name="); ok {
			return v
		}
	}
	if jt := tag.Get("json"); jt != "" {
		name, _, _ := strings.Cut(jt, ",")
		if name != "" {
			return name
		}
	}
	return goName
}

func applySchemagenTag(fd *FieldDecl, tag reflect.StructTag) {
	for _, p := range strings.Split(tag.Get("schemagen"), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			if k == "required" {
				fd.Default, fd.HasDefault = nil, false
			}
			continue
		}
		switch k {
		case "title":
			fd.Title = v
		case "description":
			fd.Description = v
		case "alias":
			fd.Alias = v
		}
	}
}

// structName reports whether e names a struct type of the package.
func (sc *sourceScan) structName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return "", false
	}
	ts, ok := sc.types[id.Name]
	if !ok {
		return "", false
	}
	_, isStruct := ts.Type.(*ast.StructType)
	return id.Name, isStruct
}

// typeSource renders a Go type as type source text and lists the package
// struct types it references.
func (sc *sourceScan) typeSource(e ast.Expr) (string, []string) {
	switch t := e.(type) {
	case *ast.Ident:
		if name, ok := sc.structName(t); ok {
			return name, []string{name}
		}
		if ts, ok := sc.types[t.Name]; ok {
			return sc.typeSource(ts.Type)
		}
		return basicSource(t.Name), nil
	case *ast.StarExpr:
		inner, refs := sc.typeSource(t.X)
		return inner + " | None", refs
	case *ast.ArrayType:
		if id, ok := t.Elt.(*ast.Ident); ok && id.Name == "byte" && t.Len == nil {
			return "bytes", nil
		}
		item, refs := sc.typeSource(t.Elt)
		if lit, ok := t.Len.(*ast.BasicLit); ok {
			if n, err := strconv.Atoi(lit.Value); err == nil && n > 0 {
				return "tuple[" + strings.TrimSuffix(strings.Repeat(item+", ", n), ", ") + "]", refs
			}
		}
		return "list[" + item + "]", refs
	case *ast.MapType:
		k, krefs := sc.typeSource(t.Key)
		v, vrefs := sc.typeSource(t.Value)
		return "dict[" + k + ", " + v + "]", append(krefs, vrefs...)
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			switch pkg.Name + "." + t.Sel.Name {
			case "time.Time":
				return "datetime", nil
			case "time.Duration":
				return "timedelta", nil
			case "uuid.UUID":
				return "UUID", nil
			}
		}
	}
	return "Any", nil
}

func basicSource(name string) string {
	switch name {
	case "bool":
		return "bool"
	case "string":
		return "str"
	case "float32", "float64":
		return "float"
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "byte", "rune", "uintptr":
		return "int"
	}
	return "Any"
}

func zeroOf(e ast.Expr) any {
	id, ok := e.(*ast.Ident)
	if !ok {
		return nil
	}
	switch basicSource(id.Name) {
	case "bool":
		return false
	case "str":
		return ""
	case "float":
		return 0.0
	case "int":
		return 0
	}
	return nil
}
