package provider

import (
	"encoding"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/broady/apidoc/ir"
)

var (
	readerType        = reflect.TypeFor[io.Reader]()
	writerType        = reflect.TypeFor[io.Writer]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	timeType          = reflect.TypeFor[time.Time]()
)

// ReflectionProvider converts runtime types into ir graphs.
// Each reflect.Type maps to exactly one *ir.Type, so recursive types become
// cyclic graphs. Register enums, subtypes and factories before converting the
// types that use them.
//
// A ReflectionProvider is safe for concurrent use.
type ReflectionProvider struct {
	mu        sync.Mutex
	types     map[reflect.Type]*ir.Type
	runtime   map[*ir.Type]reflect.Type
	enums     map[reflect.Type][]ir.EnumMember
	subtypes  map[reflect.Type]subtypeRegistration
	factories map[reflect.Type]func() (any, error)
	warnings  []ir.Warning
}

type subtypeRegistration struct {
	property string
	types    []reflect.Type
}

// NewReflectionProvider returns an empty provider.
func NewReflectionProvider() *ReflectionProvider {
	return &ReflectionProvider{
		types:     make(map[reflect.Type]*ir.Type),
		runtime:   make(map[*ir.Type]reflect.Type),
		enums:     make(map[reflect.Type][]ir.EnumMember),
		subtypes:  make(map[reflect.Type]subtypeRegistration),
		factories: make(map[reflect.Type]func() (any, error)),
	}
}

// RegisterEnum declares the constants of an enumeration type in order.
// Runtime reflection cannot see constant declarations, so enumerations must be
// registered explicitly.
func (p *ReflectionProvider) RegisterEnum(t reflect.Type, members ...ir.EnumMember) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enums[t] = append(p.enums[t], members...)
}

// RegisterSubtypes declares the concrete types that may stand in for base.
// property names the discriminator, if any.
func (p *ReflectionProvider) RegisterSubtypes(base reflect.Type, property string, subtypes ...reflect.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg := p.subtypes[base]
	reg.property = property
	reg.types = append(reg.types, subtypes...)
	p.subtypes[base] = reg
}

// RegisterFactory sets the constructor used to probe defaults of t.
// fn must return a T or *T.
func (p *ReflectionProvider) RegisterFactory(t reflect.Type, fn func() (any, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[t] = fn
}

// Enum registers values of T as enumeration members, named by their
// fmt.Sprint form.
func Enum[T any](p *ReflectionProvider, values ...T) {
	members := make([]ir.EnumMember, 0, len(values))
	for _, v := range values {
		members = append(members, ir.EnumMember{Name: fmt.Sprint(v), Value: enumValue(reflect.ValueOf(v))})
	}
	p.RegisterEnum(reflect.TypeFor[T](), members...)
}

// Subtypes registers the concrete types that may stand in for Base.
func Subtypes[Base any](p *ReflectionProvider, property string, subtypes ...any) {
	types := make([]reflect.Type, 0, len(subtypes))
	for _, s := range subtypes {
		t := reflect.TypeOf(s)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		types = append(types, t)
	}
	p.RegisterSubtypes(reflect.TypeFor[Base](), property, types...)
}

// Factory registers a constructor for T. T may be a struct or a pointer to one.
func Factory[T any](p *ReflectionProvider, fn func() (T, error)) {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	p.RegisterFactory(t, func() (any, error) { return fn() })
}

func enumValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	}
	return fmt.Sprint(v.Interface())
}

// Type returns the ir node for t, converting it on first use.
func (p *ReflectionProvider) Type(t reflect.Type) *ir.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.convert(t)
}

// Warnings returns the issues collected while converting types.
func (p *ReflectionProvider) Warnings() []ir.Warning {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ir.Warning(nil), p.warnings...)
}

// runtimeType returns the reflect.Type an ir node was built from.
func (p *ReflectionProvider) runtimeType(t *ir.Type) (reflect.Type, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rt, ok := p.runtime[t]
	return rt, ok
}

func (p *ReflectionProvider) convert(t reflect.Type) *ir.Type {
	if n, ok := p.types[t]; ok {
		return n
	}
	n := &ir.Type{Name: t.Name(), Package: t.PkgPath()}
	// Cache before filling so self-references resolve to n.
	p.types[t] = n
	p.runtime[n] = t
	p.fill(n, t)
	return n
}

func (p *ReflectionProvider) fill(n *ir.Type, t reflect.Type) {
	n.Kind = kindOf(t.Kind())
	n.Traits = p.traits(t)

	if traits, ok := special(t.PkgPath(), t.Name()); ok {
		n.Traits |= traits
		return
	}
	if n.Traits.Has(ir.TraitDate) {
		return
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		n.Elem = p.convert(t.Elem())
	case reflect.Map:
		n.Key = p.convert(t.Key())
		n.Elem = p.convert(t.Elem())
	case reflect.Interface:
		n.Methods = t.NumMethod()
	case reflect.Struct:
		n.Fields = make([]ir.Field, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			n.Fields = append(n.Fields, ir.Field{
				Name:     sf.Name,
				Type:     p.convert(sf.Type),
				Embedded: sf.Anonymous,
				Tag:      sf.Tag,
			})
		}
	case reflect.UnsafePointer:
		p.addWarning("UNSUPPORTED_TYPE", fmt.Sprintf("%s documented as an untyped object", t), t.String())
	}

	if members, ok := p.enums[t]; ok {
		n.Enum = members
	}
	if reg, ok := p.subtypes[t]; ok {
		poly := &ir.Polymorphism{Property: reg.property}
		for _, st := range reg.types {
			poly.Subtypes = append(poly.Subtypes, p.convert(st))
		}
		n.Polymorphism = poly
	}
}

// traits detects interface implementations on t or *t.
func (p *ReflectionProvider) traits(t reflect.Type) ir.Traits {
	var tr ir.Traits
	implements := func(iface reflect.Type) bool {
		if t.Implements(iface) {
			return true
		}
		return t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface)
	}
	if implements(readerType) {
		tr |= ir.TraitReader
	}
	if implements(writerType) {
		tr |= ir.TraitWriter
	}
	if implements(textMarshalerType) {
		tr |= ir.TraitTextMarshaler
	}
	if t.Kind() == reflect.Struct && t.ConvertibleTo(timeType) {
		tr |= ir.TraitDate
	}
	return tr
}

func kindOf(k reflect.Kind) ir.Kind {
	switch k {
	case reflect.Bool:
		return ir.KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ir.KindUint
	case reflect.Float32, reflect.Float64:
		return ir.KindFloat
	case reflect.Complex64, reflect.Complex128:
		return ir.KindComplex
	case reflect.String:
		return ir.KindString
	case reflect.Struct:
		return ir.KindStruct
	case reflect.Interface:
		return ir.KindInterface
	case reflect.Pointer:
		return ir.KindPointer
	case reflect.Slice:
		return ir.KindSlice
	case reflect.Array:
		return ir.KindArray
	case reflect.Map:
		return ir.KindMap
	case reflect.Chan:
		return ir.KindChan
	case reflect.Func:
		return ir.KindFunc
	}
	return ir.KindInvalid
}

func (p *ReflectionProvider) addWarning(code, message, typeName string) {
	p.warnings = append(p.warnings, ir.Warning{Code: code, Message: message, TypeName: typeName})
}

// Operation converts a function or method value into an operation. Parameter
// names are not available at runtime; the analysis names them by position
// unless params supplies them.
func (p *ReflectionProvider) Operation(fn any, params ...ir.Param) (*ir.Operation, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("operation must be a function, got %T", fn)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("operation must not be nil")
	}
	ft := v.Type()
	if len(params) > ft.NumIn() {
		return nil, fmt.Errorf("%d parameter annotations for %d parameters", len(params), ft.NumIn())
	}

	pkg, recv, name := splitFuncName(runtime.FuncForPC(v.Pointer()).Name())
	op := &ir.Operation{Name: name, Package: pkg}
	key := name
	if recv != "" {
		op.Receiver = &ir.Type{Kind: ir.KindStruct, Name: recv, Package: pkg}
		key = recv + "." + name
	}
	if pkg != "" {
		key = pkg + "." + key
	}
	op.Key = key

	for i := 0; i < ft.NumIn(); i++ {
		param := ir.Param{Type: p.Type(ft.In(i))}
		if i < len(params) {
			param.Name = params[i].Name
			param.Tag = params[i].Tag
		}
		op.Params = append(op.Params, param)
	}
	for i := 0; i < ft.NumOut(); i++ {
		op.Results = append(op.Results, p.Type(ft.Out(i)))
	}
	return op, nil
}

// splitFuncName splits a runtime function name such as
// "example.com/api.(*UserService).Get-fm" into its package, receiver and name.
func splitFuncName(full string) (pkg, recv, name string) {
	full = strings.TrimSuffix(full, "-fm")
	// Closures are named func1, func2, ... after their enclosing function.
	for {
		i := strings.LastIndexByte(full, '.')
		if i < 0 || !isClosure(full[i+1:]) {
			break
		}
		full = full[:i]
	}
	slash := strings.LastIndexByte(full, '/')
	dot := strings.IndexByte(full[slash+1:], '.')
	if dot < 0 {
		return "", "", full
	}
	pkg = full[:slash+1+dot]
	rest := full[slash+1+dot+1:]
	i := strings.LastIndexByte(rest, '.')
	if i < 0 {
		return pkg, "", rest
	}
	recv, name = rest[:i], rest[i+1:]
	recv = strings.TrimSuffix(strings.TrimPrefix(recv, "(*"), ")")
	if j := strings.IndexByte(recv, '['); j >= 0 {
		recv = recv[:j]
	}
	return pkg, recv, name
}

func isClosure(name string) bool {
	n, ok := strings.CutPrefix(name, "func")
	if !ok || n == "" {
		return false
	}
	_, err := strconv.Atoi(n)
	return err == nil
}
