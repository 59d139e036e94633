package docs

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"sync"

	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"
	"golang.org/x/tools/go/packages"
)

// Loader returns the parsed files of a package, with comments.
type Loader func(ctx context.Context, pkgPath string) ([]*ast.File, error)

// SourceLookup is a Lookup backed by Go source. Packages are parsed lazily on
// first use and memoized; concurrent lookups into the same package share one
// parse. Packages that fail to load are remembered as empty, unless the load
// was cut short by the caller's context.
type SourceLookup struct {
	load  Loader
	group singleflight.Group

	mu   sync.RWMutex
	pkgs map[string]*packageDocs
}

type packageDocs struct {
	types map[string]*TypeDoc
	funcs map[string]*Comment
}

// SourceOption configures a SourceLookup.
type SourceOption func(*SourceLookup)

// WithLoader replaces the go/packages based loader.
func WithLoader(l Loader) SourceOption {
	return func(s *SourceLookup) { s.load = l }
}

// WithDir sets the directory packages are resolved from.
func WithDir(dir string) SourceOption {
	return func(s *SourceLookup) { s.load = packagesLoader(dir) }
}

// NewSourceLookup returns a SourceLookup resolving packages from the current
// directory unless configured otherwise.
func NewSourceLookup(opts ...SourceOption) *SourceLookup {
	s := &SourceLookup{
		load: packagesLoader(""),
		pkgs: make(map[string]*packageDocs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prime records documentation for a package whose syntax is already loaded,
// so later lookups do not parse it again.
func (s *SourceLookup) Prime(pkgPath string, files []*ast.File) {
	d := collect(files)
	s.mu.Lock()
	s.pkgs[pkgPath] = d
	s.mu.Unlock()
}

// Type implements Lookup.
func (s *SourceLookup) Type(ctx context.Context, pkgPath, name string) *TypeDoc {
	if pkgPath == "" {
		return nil
	}
	return s.pkg(ctx, pkgPath).types[name]
}

// Func implements Lookup.
func (s *SourceLookup) Func(ctx context.Context, pkgPath, name string) *Comment {
	if pkgPath == "" {
		return nil
	}
	return s.pkg(ctx, pkgPath).funcs[name]
}

func (s *SourceLookup) pkg(ctx context.Context, pkgPath string) *packageDocs {
	s.mu.RLock()
	d, ok := s.pkgs[pkgPath]
	s.mu.RUnlock()
	if ok {
		return d
	}

	v, _, _ := s.group.Do(pkgPath, func() (any, error) {
		s.mu.RLock()
		d, ok := s.pkgs[pkgPath]
		s.mu.RUnlock()
		if ok {
			return d, nil
		}

		files, err := s.load(ctx, pkgPath)
		if err != nil {
			slogctx.FromCtx(ctx).Debug("documentation unavailable",
				slog.String("package", pkgPath),
				slog.Any("error", err))
		}
		d = collect(files)
		if ctx.Err() != nil {
			return d, nil
		}

		s.mu.Lock()
		s.pkgs[pkgPath] = d
		s.mu.Unlock()
		return d, nil
	})
	return v.(*packageDocs)
}

func packagesLoader(dir string) Loader {
	return func(ctx context.Context, pkgPath string) ([]*ast.File, error) {
		cfg := &packages.Config{
			Context: ctx,
			Dir:     dir,
			Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		}
		pkgs, err := packages.Load(cfg, pkgPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", pkgPath, err)
		}
		if len(pkgs) == 0 {
			return nil, fmt.Errorf("package %s not found", pkgPath)
		}
		if len(pkgs[0].Errors) > 0 {
			return pkgs[0].Syntax, fmt.Errorf("package %s has errors: %v", pkgPath, pkgs[0].Errors)
		}
		return pkgs[0].Syntax, nil
	}
}

// collect extracts every doc comment a lookup can answer from files.
func collect(files []*ast.File) *packageDocs {
	d := &packageDocs{
		types: make(map[string]*TypeDoc),
		funcs: make(map[string]*Comment),
	}
	typeDoc := func(name string) *TypeDoc {
		td, ok := d.types[name]
		if !ok {
			td = &TypeDoc{Members: make(map[string]*Comment), Methods: make(map[string]*Comment)}
			d.types[name] = td
		}
		return td
	}

	for _, file := range files {
		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				c := ParseGroup(decl.Doc)
				if c == nil {
					continue
				}
				if decl.Recv == nil || len(decl.Recv.List) == 0 {
					d.funcs[decl.Name.Name] = c
					continue
				}
				if recv := baseTypeName(decl.Recv.List[0].Type); recv != "" {
					typeDoc(recv).Methods[decl.Name.Name] = c
				}

			case *ast.GenDecl:
				switch decl.Tok {
				case token.TYPE:
					for _, spec := range decl.Specs {
						ts := spec.(*ast.TypeSpec)
						td := typeDoc(ts.Name.Name)
						td.Comment = ParseGroup(specDoc(decl, ts.Doc))
						st, ok := ts.Type.(*ast.StructType)
						if !ok {
							continue
						}
						for _, field := range st.Fields.List {
							cg := field.Doc
							if cg == nil {
								cg = field.Comment
							}
							c := ParseGroup(cg)
							if c == nil {
								continue
							}
							if len(field.Names) == 0 {
								if name := baseTypeName(field.Type); name != "" {
									td.Members[name] = c
								}
							}
							for _, n := range field.Names {
								td.Members[n.Name] = c
							}
						}
					}

				case token.CONST:
					var typeName string
					for _, spec := range decl.Specs {
						vs := spec.(*ast.ValueSpec)
						if vs.Type != nil {
							typeName = baseTypeName(vs.Type)
						} else if len(vs.Values) > 0 {
							typeName = ""
						}
						if typeName == "" {
							continue
						}
						cg := vs.Doc
						if cg == nil {
							cg = vs.Comment
						}
						c := ParseGroup(specDoc(decl, cg))
						if c == nil {
							continue
						}
						td := typeDoc(typeName)
						for _, n := range vs.Names {
							td.Members[n.Name] = c
						}
					}
				}
			}
		}
	}
	return d
}

// specDoc falls back to the declaration's comment for single-spec
// declarations without parentheses.
func specDoc(decl *ast.GenDecl, doc *ast.CommentGroup) *ast.CommentGroup {
	if doc != nil {
		return doc
	}
	if !decl.Lparen.IsValid() {
		return decl.Doc
	}
	return nil
}

// baseTypeName returns "T" for T, *T, pkg.T, T[X] and *T[X, Y].
func baseTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return baseTypeName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return baseTypeName(e.X)
	case *ast.IndexListExpr:
		return baseTypeName(e.X)
	case *ast.ParenExpr:
		return baseTypeName(e.X)
	}
	return ""
}
