package provider

import (
	"context"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"sync"

	"github.com/broady/apidoc/docs"
	"github.com/broady/apidoc/internal/directive"
	"github.com/broady/apidoc/ir"
	"golang.org/x/tools/go/packages"
)

// SourceProvider extracts types and operations by analyzing Go source code.
// Operations are the functions and methods marked with //apidoc:api.
type SourceProvider struct{}

// SourceInputOptions configures source-based extraction.
type SourceInputOptions struct {
	// Packages are the Go package patterns to analyze.
	Packages []string

	// Dir is the directory packages are loaded from. Empty means the
	// current directory.
	Dir string
}

// Load analyzes the packages and returns their operations and type graph.
func (p *SourceProvider) Load(ctx context.Context, opts SourceInputOptions) (*Source, error) {
	if len(opts.Packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo |
			packages.NeedModule,
	}

	pkgs, err := packages.Load(cfg, opts.Packages...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}

	s := &Source{
		pkgs:     pkgs,
		types:    make(map[types.Type]*ir.Type),
		params:   make(map[*types.TypeParam]*ir.TypeParam),
		subtypes: make(map[*types.TypeName]directive.Subtypes),
	}
	for _, pkg := range pkgs {
		if err := s.loadPackage(pkg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Source is the result of analyzing a set of packages. It is safe for
// concurrent use.
type Source struct {
	pkgs []*packages.Package

	mu         sync.Mutex
	types      map[types.Type]*ir.Type
	params     map[*types.TypeParam]*ir.TypeParam
	subtypes   map[*types.TypeName]directive.Subtypes
	operations []*ir.Operation
	warnings   []ir.Warning
}

// Operations returns the discovered operations in source order.
func (s *Source) Operations() []*ir.Operation {
	return slices.Clone(s.operations)
}

// Type returns the named type declared in a loaded package.
func (s *Source) Type(pkgPath, name string) (*ir.Type, error) {
	for _, pkg := range s.pkgs {
		if pkg.PkgPath != pkgPath {
			continue
		}
		tn, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
		if !ok {
			return nil, fmt.Errorf("type %s not found in %s", name, pkgPath)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.convert(tn.Type()), nil
	}
	return nil, fmt.Errorf("package %s not loaded", pkgPath)
}

// Modules returns the paths of the modules containing the loaded packages.
func (s *Source) Modules() []string {
	var mods []string
	for _, pkg := range s.pkgs {
		if pkg.Module != nil && !slices.Contains(mods, pkg.Module.Path) {
			mods = append(mods, pkg.Module.Path)
		}
	}
	return mods
}

// Prime hands the parsed syntax of the loaded packages to a documentation
// lookup so it does not parse them again.
func (s *Source) Prime(l *docs.SourceLookup) {
	for _, pkg := range s.pkgs {
		l.Prime(pkg.PkgPath, pkg.Syntax)
	}
}

// Warnings returns the issues collected while converting types.
func (s *Source) Warnings() []ir.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.warnings)
}

func (s *Source) loadPackage(pkg *packages.Package) error {
	res := &directive.Result{}
	for _, f := range pkg.Syntax {
		fr, err := directive.ParseFile(pkg.Fset, f)
		if err != nil {
			return err
		}
		res.Merge(fr)
	}

	scope := pkg.Types.Scope()
	for _, st := range res.Subtypes {
		tn, ok := scope.Lookup(st.TypeName).(*types.TypeName)
		if !ok {
			return fmt.Errorf("%s: type %s not found", st.Pos, st.TypeName)
		}
		for _, name := range st.Types {
			if _, ok := scope.Lookup(name).(*types.TypeName); !ok {
				return fmt.Errorf("%s: subtype %s not found in %s", st.Pos, name, pkg.PkgPath)
			}
		}
		s.subtypes[tn] = st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, api := range res.APIs {
		op, err := s.operation(pkg, api)
		if err != nil {
			return err
		}
		s.operations = append(s.operations, op)
	}
	return nil
}

func (s *Source) operation(pkg *packages.Package, api directive.API) (*ir.Operation, error) {
	fn, recv, err := lookupFunc(pkg.Types, api)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", api.Pos, err)
	}
	sig := fn.Type().(*types.Signature)

	op := &ir.Operation{
		Name:    fn.Name(),
		Package: pkg.PkgPath,
		Service: api.Service,
		Methods: api.Methods,
		Path:    api.Path,
		Source:  s.position(fn.Pos()),
	}
	op.Key = pkg.PkgPath + "." + fn.Name()
	if recv != nil {
		op.Receiver = s.convert(recv)
		op.Key = pkg.PkgPath + "." + recv.Obj().Name() + "." + fn.Name()
	}

	for i := 0; i < sig.Params().Len(); i++ {
		v := sig.Params().At(i)
		op.Params = append(op.Params, ir.Param{
			Name: v.Name(),
			Type: s.convert(v.Type()),
			Tag:  api.Params[v.Name()],
		})
	}
	for i := 0; i < sig.Results().Len(); i++ {
		op.Results = append(op.Results, s.convert(sig.Results().At(i).Type()))
	}
	return op, nil
}

func lookupFunc(pkg *types.Package, api directive.API) (*types.Func, *types.Named, error) {
	if api.Recv == "" {
		fn, ok := pkg.Scope().Lookup(api.FuncName).(*types.Func)
		if !ok {
			return nil, nil, fmt.Errorf("function %s not found", api.FuncName)
		}
		return fn, nil, nil
	}
	tn, ok := pkg.Scope().Lookup(api.Recv).(*types.TypeName)
	if !ok {
		return nil, nil, fmt.Errorf("receiver type %s not found", api.Recv)
	}
	named, ok := types.Unalias(tn.Type()).(*types.Named)
	if !ok {
		return nil, nil, fmt.Errorf("receiver %s is not a defined type", api.Recv)
	}
	for i := 0; i < named.NumMethods(); i++ {
		if m := named.Method(i); m.Name() == api.FuncName {
			return m, named, nil
		}
	}
	return nil, nil, fmt.Errorf("method %s.%s not found", api.Recv, api.FuncName)
}

func (s *Source) position(pos token.Pos) ir.Source {
	if !pos.IsValid() || len(s.pkgs) == 0 {
		return ir.Source{}
	}
	p := s.pkgs[0].Fset.Position(pos)
	return ir.Source{File: p.Filename, Line: p.Line, Column: p.Column}
}

func (s *Source) addWarning(code, message, typeName string) {
	s.warnings = append(s.warnings, ir.Warning{Code: code, Message: message, TypeName: typeName})
}

// convert converts a go/types type to its ir node. Callers hold s.mu.
func (s *Source) convert(t types.Type) *ir.Type {
	if n, ok := s.types[t]; ok {
		return n
	}

	switch typ := t.(type) {
	case *types.Alias:
		return s.convert(types.Unalias(typ))

	case *types.Named:
		if typ.TypeArgs().Len() > 0 {
			origin := s.convert(typ.Origin())
			args := make([]*ir.Type, typ.TypeArgs().Len())
			for i := range args {
				args[i] = s.convert(typ.TypeArgs().At(i))
			}
			n := ir.Instantiate(origin, args...)
			s.types[t] = n
			return n
		}
		obj := typ.Obj()
		n := &ir.Type{Name: obj.Name(), Source: s.position(obj.Pos())}
		if obj.Pkg() != nil {
			n.Package = obj.Pkg().Path()
		}
		// Cache before filling so self-references resolve to n.
		s.types[t] = n
		s.fillNamed(n, typ)
		return n

	case *types.Basic:
		return s.convertBasic(typ)

	case *types.Pointer:
		return s.cache(t, ir.PointerTo(s.convert(typ.Elem())))
	case *types.Slice:
		return s.cache(t, ir.SliceOf(s.convert(typ.Elem())))
	case *types.Array:
		return s.cache(t, ir.ArrayOf(s.convert(typ.Elem())))
	case *types.Chan:
		return s.cache(t, &ir.Type{Kind: ir.KindChan, Elem: s.convert(typ.Elem())})
	case *types.Map:
		return s.cache(t, ir.MapOf(s.convert(typ.Key()), s.convert(typ.Elem())))

	case *types.Struct:
		n := &ir.Type{Kind: ir.KindStruct}
		s.types[t] = n
		n.Fields = s.fields(typ)
		return n

	case *types.Interface:
		return s.cache(t, &ir.Type{Kind: ir.KindInterface, Methods: typ.NumMethods()})

	case *types.TypeParam:
		return s.cache(t, ir.ParamType(s.param(typ)))

	case *types.Signature:
		return s.cache(t, &ir.Type{Kind: ir.KindFunc})
	}

	s.addWarning("UNSUPPORTED_TYPE", fmt.Sprintf("%s documented as an untyped object", t), t.String())
	return ir.Any()
}

func (s *Source) cache(t types.Type, n *ir.Type) *ir.Type {
	s.types[t] = n
	return n
}

func (s *Source) param(tp *types.TypeParam) *ir.TypeParam {
	if p, ok := s.params[tp]; ok {
		return p
	}
	p := &ir.TypeParam{Name: tp.Obj().Name(), Index: tp.Index()}
	s.params[tp] = p
	return p
}

func (s *Source) convertBasic(basic *types.Basic) *ir.Type {
	n := &ir.Type{Name: basic.Name()}
	info := basic.Info()
	switch {
	case info&types.IsUntyped != 0:
		return ir.Any()
	case info&types.IsBoolean != 0:
		n.Kind = ir.KindBool
	case info&types.IsUnsigned != 0:
		n.Kind = ir.KindUint
	case info&types.IsInteger != 0:
		n.Kind = ir.KindInt
	case info&types.IsFloat != 0:
		n.Kind = ir.KindFloat
	case info&types.IsComplex != 0:
		n.Kind = ir.KindComplex
	case info&types.IsString != 0:
		n.Kind = ir.KindString
	default:
		n.Kind = ir.KindInvalid
	}
	return n
}

func (s *Source) fields(st *types.Struct) []ir.Field {
	fields := make([]ir.Field, 0, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		fields = append(fields, ir.Field{
			Name:     v.Name(),
			Type:     s.convert(v.Type()),
			Embedded: v.Embedded(),
			Tag:      reflect.StructTag(st.Tag(i)),
			Source:   s.position(v.Pos()),
		})
	}
	return fields
}

// fillNamed fills in a declared (non-instantiated) named type.
func (s *Source) fillNamed(n *ir.Type, named *types.Named) {
	under := named.Underlying()
	// Kind and traits are set first: instantiations of n made while
	// converting its body copy them.
	n.Kind = s.underlyingKind(under)
	n.Traits = methodTraits(named)

	if traits, ok := special(n.Package, n.Name); ok {
		n.Traits |= traits
		return
	}
	if isTime(under, named.Obj().Pkg()) {
		n.Traits |= ir.TraitDate
		return
	}

	if tps := named.TypeParams(); tps != nil {
		for i := 0; i < tps.Len(); i++ {
			n.TypeParams = append(n.TypeParams, s.param(tps.At(i)))
		}
	}

	body := s.convert(under)
	n.Elem = body.Elem
	n.Key = body.Key
	n.Fields = body.Fields
	n.Methods = body.Methods

	if basic, ok := under.(*types.Basic); ok {
		n.Enum = enumConstants(named, basic)
	}
	if st, ok := s.subtypes[named.Obj()]; ok {
		poly := &ir.Polymorphism{Property: st.Property}
		scope := named.Obj().Pkg().Scope()
		for _, name := range st.Types {
			tn := scope.Lookup(name).(*types.TypeName)
			poly.Subtypes = append(poly.Subtypes, s.convert(tn.Type()))
		}
		n.Polymorphism = poly
	}
}

func (s *Source) underlyingKind(under types.Type) ir.Kind {
	switch u := under.(type) {
	case *types.Basic:
		return s.convertBasic(u).Kind
	case *types.Struct:
		return ir.KindStruct
	case *types.Pointer:
		return ir.KindPointer
	case *types.Slice:
		return ir.KindSlice
	case *types.Array:
		return ir.KindArray
	case *types.Map:
		return ir.KindMap
	case *types.Chan:
		return ir.KindChan
	case *types.Interface:
		return ir.KindInterface
	case *types.Signature:
		return ir.KindFunc
	}
	return ir.KindInvalid
}

// isTime reports whether under is the underlying type of time.Time, i.e. the
// type was declared as "type T time.Time".
func isTime(under types.Type, pkg *types.Package) bool {
	if pkg == nil {
		return false
	}
	for _, imp := range pkg.Imports() {
		if imp.Path() != "time" {
			continue
		}
		if obj := imp.Scope().Lookup("Time"); obj != nil {
			return types.Identical(under, obj.Type().Underlying())
		}
	}
	return false
}

// methodTraits detects io.Reader, io.Writer and encoding.TextMarshaler by
// method name and arity on t or *t.
func methodTraits(t types.Type) ir.Traits {
	var tr ir.Traits
	if hasMethod(t, "Read", 1, 2) {
		tr |= ir.TraitReader
	}
	if hasMethod(t, "Write", 1, 2) {
		tr |= ir.TraitWriter
	}
	if hasMethod(t, "MarshalText", 0, 2) {
		tr |= ir.TraitTextMarshaler
	}
	return tr
}

func hasMethod(t types.Type, name string, params, results int) bool {
	recv := t
	if !types.IsInterface(t) {
		recv = types.NewPointer(t)
	}
	sel := types.NewMethodSet(recv).Lookup(nil, name)
	if sel == nil {
		return false
	}
	sig, ok := sel.Obj().Type().(*types.Signature)
	return ok && sig.Params().Len() == params && sig.Results().Len() == results
}

// enumConstants lists the package-level constants of type named in
// declaration order.
func enumConstants(named *types.Named, basic *types.Basic) []ir.EnumMember {
	pkg := named.Obj().Pkg()
	if pkg == nil {
		return nil
	}
	var consts []*types.Const
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if ok && types.Identical(c.Type(), named) {
			consts = append(consts, c)
		}
	}
	// Scope names are sorted alphabetically.
	slices.SortFunc(consts, func(a, b *types.Const) int { return int(a.Pos() - b.Pos()) })

	members := make([]ir.EnumMember, 0, len(consts))
	for _, c := range consts {
		members = append(members, ir.EnumMember{Name: c.Name(), Value: constantValue(c.Val(), basic)})
	}
	return members
}

// constantValue converts a constant.Value to string, int64, uint64, float64
// or bool.
func constantValue(v constant.Value, basic *types.Basic) any {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v)
	case constant.Int:
		if basic.Info()&types.IsUnsigned != 0 {
			u, _ := constant.Uint64Val(v)
			return u
		}
		i, _ := constant.Int64Val(v)
		return i
	case constant.Float:
		f, _ := constant.Float64Val(v)
		return f
	case constant.Bool:
		return constant.BoolVal(v)
	default:
		return v.String()
	}
}
