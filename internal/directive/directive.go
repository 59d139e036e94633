// Package directive parses apidoc directives from Go source files.
//
// Directives are line comments in a declaration's doc comment:
//
//	//apidoc:api [METHOD[,METHOD...]] [/path]
//	//apidoc:param name key:"value" ...
//	//apidoc:service Name
//	//apidoc:subtypes property Type...
//
// The api directive marks a function or method as a documented operation.
// Without methods the operation answers to every method. param attaches
// binding annotations, written in struct tag syntax, to a parameter of the
// same function. service names the group of an operation; on a type it applies
// to every api method of that type. subtypes lists the types that may stand in
// for the annotated type.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"slices"
	"strings"
)

const prefix = "//apidoc:"

// Kind represents the type of directive.
type Kind string

const (
	KindAPI      Kind = "api"
	KindParam    Kind = "param"
	KindService  Kind = "service"
	KindSubtypes Kind = "subtypes"
)

// Methods are the HTTP methods accepted by the api directive.
var Methods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "TRACE"}

// API is an operation marked with //apidoc:api.
type API struct {
	FuncName string                       // name of the function or method
	Recv     string                       // receiver base type name, empty for functions
	Methods  []string                     // HTTP methods, empty for all
	Path     string                       // URL path, if given
	Service  string                       // group name from //apidoc:service
	Params   map[string]reflect.StructTag // binding annotations by parameter name
	Pos      token.Position               // source location
}

// Subtypes is a //apidoc:subtypes directive on a type declaration.
type Subtypes struct {
	TypeName string
	Property string
	Types    []string
	Pos      token.Position
}

// Result contains all directives found in a set of files.
type Result struct {
	APIs     []API
	Subtypes []Subtypes
}

type line struct {
	kind Kind
	args string
	pos  token.Position
}

// ParseFile extracts directives from a single file parsed with comments.
// Directives must appear in the doc comment of a function, method or type
// declaration.
func ParseFile(fset *token.FileSet, f *ast.File) (*Result, error) {
	attached := make(map[*ast.CommentGroup]bool)
	result := &Result{}

	services := make(map[string]string)
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && !gen.Lparen.IsValid() {
				doc = gen.Doc
			}
			lines, err := parseGroup(fset, doc)
			if err != nil {
				return nil, err
			}
			if doc != nil {
				attached[doc] = true
			}
			for _, l := range lines {
				switch l.kind {
				case KindService:
					services[ts.Name.Name] = l.args
				case KindSubtypes:
					fields := strings.Fields(l.args)
					if len(fields) < 2 {
						return nil, fmt.Errorf("%s: //apidoc:subtypes needs a property and at least one type", l.pos)
					}
					result.Subtypes = append(result.Subtypes, Subtypes{
						TypeName: ts.Name.Name,
						Property: fields[0],
						Types:    fields[1:],
						Pos:      l.pos,
					})
				default:
					return nil, fmt.Errorf("%s: //apidoc:%s directive must be attached to a function", l.pos, l.kind)
				}
			}
		}
	}

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		attached[fn.Doc] = true
		lines, err := parseGroup(fset, fn.Doc)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			continue
		}
		api, err := parseFunc(fn, lines)
		if err != nil {
			return nil, err
		}
		if api.Service == "" {
			api.Service = services[api.Recv]
		}
		result.APIs = append(result.APIs, *api)
	}

	// Check for unmatched directives
	for _, cg := range f.Comments {
		if attached[cg] {
			continue
		}
		lines, err := parseGroup(fset, cg)
		if err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			return nil, fmt.Errorf("%s: //apidoc:%s directive must be followed by a declaration", lines[0].pos, lines[0].kind)
		}
	}

	return result, nil
}

// Merge appends the directives of other to r.
func (r *Result) Merge(other *Result) {
	r.APIs = append(r.APIs, other.APIs...)
	r.Subtypes = append(r.Subtypes, other.Subtypes...)
}

func parseGroup(fset *token.FileSet, cg *ast.CommentGroup) ([]line, error) {
	if cg == nil {
		return nil, nil
	}
	var lines []line
	for _, c := range cg.List {
		text, ok := strings.CutPrefix(c.Text, prefix)
		if !ok {
			continue
		}
		pos := fset.Position(c.Pos())
		kind, args, _ := strings.Cut(text, " ")
		switch Kind(kind) {
		case KindAPI, KindParam, KindService, KindSubtypes:
		default:
			return nil, fmt.Errorf("%s: unknown directive //apidoc:%s", pos, kind)
		}
		lines = append(lines, line{kind: Kind(kind), args: strings.TrimSpace(args), pos: pos})
	}
	return lines, nil
}

func parseFunc(fn *ast.FuncDecl, lines []line) (*API, error) {
	api := &API{FuncName: fn.Name.Name, Recv: recvName(fn)}
	marked := false
	for _, l := range lines {
		switch l.kind {
		case KindAPI:
			if marked {
				return nil, fmt.Errorf("%s: duplicate //apidoc:api directive", l.pos)
			}
			marked = true
			api.Pos = l.pos
			if err := parseAPIArgs(api, l); err != nil {
				return nil, err
			}
		case KindParam:
			name, tag, _ := strings.Cut(l.args, " ")
			if name == "" {
				return nil, fmt.Errorf("%s: //apidoc:param needs a parameter name", l.pos)
			}
			if !hasParam(fn, name) {
				return nil, fmt.Errorf("%s: %s has no parameter %q", l.pos, fn.Name.Name, name)
			}
			if api.Params == nil {
				api.Params = make(map[string]reflect.StructTag)
			}
			api.Params[name] = reflect.StructTag(strings.TrimSpace(tag))
		case KindService:
			api.Service = l.args
		case KindSubtypes:
			return nil, fmt.Errorf("%s: //apidoc:subtypes directive must be attached to a type", l.pos)
		}
	}
	if !marked {
		return nil, fmt.Errorf("%s: //apidoc:%s without //apidoc:api on %s", lines[0].pos, lines[0].kind, fn.Name.Name)
	}
	return api, nil
}

func parseAPIArgs(api *API, l line) error {
	for _, arg := range strings.Fields(l.args) {
		if strings.HasPrefix(arg, "/") {
			if api.Path != "" {
				return fmt.Errorf("%s: multiple paths in //apidoc:api", l.pos)
			}
			api.Path = arg
			continue
		}
		for _, m := range strings.Split(arg, ",") {
			m = strings.ToUpper(m)
			if !slices.Contains(Methods, m) {
				return fmt.Errorf("%s: unknown method %q in //apidoc:api", l.pos, m)
			}
			if !slices.Contains(api.Methods, m) {
				api.Methods = append(api.Methods, m)
			}
		}
	}
	return nil
}

// recvName returns the base type name of a method receiver.
func recvName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func hasParam(fn *ast.FuncDecl, name string) bool {
	for _, field := range fn.Type.Params.List {
		for _, n := range field.Names {
			if n.Name == name {
				return true
			}
		}
	}
	return false
}
