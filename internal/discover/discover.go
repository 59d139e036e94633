// Package discover inspects the package the CLI is pointed at.
//
// A package either registers operations at runtime, in which case it has a
// function with one of these signatures:
//   - func() *apidoc.App
//   - func() *apidocgen.Generator
//
// or it declares them with //apidoc:api directives and is analysed from
// source. Find reports which exports exist; SelectExport returns ErrNoExport
// when there are none.
package discover

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"
	"strings"

	"github.com/broady/apidoc/ir"
	"golang.org/x/tools/go/packages"
)

const (
	appPkg = "github.com/broady/apidoc"
	genPkg = "github.com/broady/apidoc/apidocgen"
)

// ErrNoExport is returned by SelectExport when the package has no export
// functions.
var ErrNoExport = errors.New("no export found")

// ExportType is the return type of an export function.
type ExportType int

const (
	ExportTypeApp       ExportType = iota // func() *apidoc.App
	ExportTypeGenerator                   // func() *apidocgen.Generator
)

func (t ExportType) String() string {
	switch t {
	case ExportTypeApp:
		return "*apidoc.App"
	case ExportTypeGenerator:
		return "*apidocgen.Generator"
	default:
		return "unknown"
	}
}

// Export is a discovered export function.
type Export struct {
	Name string
	Type ExportType
	Pos  token.Position
}

// Result describes a scanned package.
type Result struct {
	Exports     []Export
	PackagePath string
	ModulePath  string
	ModuleDir   string
	Dir         string

	// Main reports whether the package is a command.
	Main bool
}

// Find scans the package matching pattern ("." or an import path or
// directory) relative to the current directory.
func Find(pattern string) (*Result, error) {
	return FindDir(pattern, "")
}

// FindDir is like Find but resolves pattern from dir.
func FindDir(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles |
			packages.NeedTypes | packages.NeedModule,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	switch {
	case len(pkgs) == 0:
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	case len(pkgs) > 1:
		return nil, fmt.Errorf("multiple packages found matching %q; specify a single package", pattern)
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkg.Errors[0])
	}

	r := &Result{PackagePath: pkg.PkgPath, Main: pkg.Name == "main"}
	if pkg.Module != nil {
		r.ModulePath = pkg.Module.Path
		r.ModuleDir = pkg.Module.Dir
	}
	if len(pkg.GoFiles) > 0 {
		r.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Recv() != nil || sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			continue
		}
		typ, ok := classify(sig.Results().At(0).Type())
		if !ok {
			continue
		}
		r.Exports = append(r.Exports, Export{
			Name: fn.Name(),
			Type: typ,
			Pos:  pkg.Fset.Position(fn.Pos()),
		})
	}
	return r, nil
}

func classify(t types.Type) (ExportType, bool) {
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return 0, false
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return 0, false
	}
	switch path, name := named.Obj().Pkg().Path(), named.Obj().Name(); {
	case path == appPkg && name == "App":
		return ExportTypeApp, true
	case path == genPkg && name == "Generator":
		return ExportTypeGenerator, true
	}
	return 0, false
}

// SelectExport picks the export named name, or the only export when name is
// empty.
func SelectExport(exports []Export, name string) (*Export, error) {
	if name != "" {
		for i := range exports {
			if exports[i].Name == name {
				return &exports[i], nil
			}
		}
		return nil, fmt.Errorf("export %q not found", name)
	}

	switch len(exports) {
	case 0:
		return nil, ErrNoExport
	case 1:
		return &exports[0], nil
	}
	var b strings.Builder
	b.WriteString("multiple exports found:\n")
	for _, e := range exports {
		fmt.Fprintf(&b, "  - %s() %s\n", e.Name, e.Type)
	}
	b.WriteString("\nSpecify which one: apidoc gen --export <name>")
	return nil, errors.New(b.String())
}

// IncludePrefixes returns the default name prefixes of documented parameter
// types: each module path, or the declaring package of each operation when no
// modules are known.
func IncludePrefixes(modules []string, ops []*ir.Operation) []string {
	var prefixes []string
	if len(modules) > 0 {
		prefixes = append(prefixes, modules...)
	} else {
		for _, op := range ops {
			if op.Package != "" {
				prefixes = append(prefixes, op.Package+".")
			}
		}
	}
	slices.Sort(prefixes)
	return slices.Compact(prefixes)
}

// Select returns the operations whose key or name is in names, in their
// original order. An empty names selects every operation.
func Select(ops []*ir.Operation, names []string) ([]*ir.Operation, error) {
	if len(names) == 0 {
		return ops, nil
	}
	found := make(map[string]bool, len(names))
	var out []*ir.Operation
	for _, op := range ops {
		for _, n := range names {
			if op.Key == n || op.Name == n || strings.HasSuffix(op.Key, "."+n) {
				out = append(out, op)
				found[n] = true
				break
			}
		}
	}
	for _, n := range names {
		if !found[n] {
			return nil, fmt.Errorf("operation %q not found", n)
		}
	}
	return out, nil
}
