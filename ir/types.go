// Package ir defines the host-neutral type graph that providers build and the
// analysis engine consumes. A provider (runtime reflection or go/packages source
// analysis) converts its native type representation into *Type values; the
// analysis package never touches reflect or go/types directly.
package ir

import (
	"fmt"
	"reflect"
	"strings"
)

// Source represents source code location information.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}

// String formats the location as file:line:column.
func (s Source) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Warning represents a non-fatal issue encountered while building a type graph.
type Warning struct {
	// Code is a machine-readable warning identifier.
	Code string

	// Message is a human-readable description.
	Message string

	// TypeName is the type that triggered the warning, if applicable.
	TypeName string
}

// Type is a node in the type graph. Named types are unique pointers per
// provider, so graphs for recursive types are cyclic.
type Type struct {
	// Kind is the structural kind of the type (for instantiated generics, the
	// kind of the origin's underlying type).
	Kind Kind

	// Name is the declared name. Empty for unnamed types. Instantiations
	// built by the reflection provider keep the bracketed form ("Page[pkg.User]").
	Name string

	// Package is the import path of the declaring package. Empty for builtins.
	Package string

	// Elem is the element type of pointers, slices, arrays, channels and maps.
	Elem *Type

	// Key is the key type of maps.
	Key *Type

	// Fields are the declared struct fields in declaration order.
	Fields []Field

	// Methods is the method count of an interface type.
	Methods int

	// TypeParams are the declared type parameters of a generic origin type.
	TypeParams []*TypeParam

	// TypeArgs are the type arguments of an instantiation. Each lines up with
	// Origin.TypeParams.
	TypeArgs []*Type

	// Origin is the generic type an instantiation was made from.
	Origin *Type

	// Param is set for KindTypeParam types.
	Param *TypeParam

	// Traits are host-detected properties such as "implements io.Reader".
	Traits Traits

	// Enum lists the constant values of an enumeration type in declaration order.
	Enum []EnumMember

	// Polymorphism lists the subtypes that may stand in for this type.
	Polymorphism *Polymorphism

	// Source is where the type is declared, if known.
	Source Source
}

// Field is a single declared struct field.
type Field struct {
	// Name is the Go field name. For embedded fields it is the type name.
	Name string

	// Type is the declared field type. For generic origins it may reference
	// type parameters.
	Type *Type

	// Embedded is true for anonymous (embedded) fields.
	Embedded bool

	// Tag is the raw struct tag.
	Tag reflect.StructTag

	// Source is where the field is declared, if known.
	Source Source
}

// TypeParam is a declared type variable. Identity is pointer identity.
type TypeParam struct {
	Name  string
	Index int
}

// Polymorphism describes the subtype registration of a polymorphic base type.
type Polymorphism struct {
	// Property is the discriminator property name, informational only.
	Property string

	// Subtypes are the concrete types that may stand in for the base type.
	Subtypes []*Type
}

// Named reports whether t has a declared name.
func (t *Type) Named() bool {
	return t != nil && t.Name != ""
}

// Shape returns the type that carries the structure of t: the origin for
// instantiated generics, t itself otherwise.
func (t *Type) Shape() *Type {
	if t.Origin != nil {
		return t.Origin
	}
	return t
}

// Members returns the own declared fields of t, including embedded fields.
func (t *Type) Members() []Field {
	return t.Shape().Fields
}

// ID returns the identity of t with type arguments erased, so all
// instantiations of a generic type share a key.
func (t *Type) ID() string {
	if t == nil {
		return ""
	}
	if t.Origin != nil {
		return t.Origin.ID()
	}
	if t.Name == "" {
		if t.Kind == KindStruct {
			return fmt.Sprintf("struct@%p", t)
		}
		return t.String()
	}
	name := t.Name
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if t.Package == "" {
		return name
	}
	return t.Package + "." + name
}

// String returns a short Go-like rendering of t, qualified by package name.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		var b strings.Builder
		if t.Package != "" {
			b.WriteString(packageName(t.Package))
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.TypeArgs) > 0 && !strings.ContainsRune(t.Name, '[') {
			b.WriteByte('[')
			for i, arg := range t.TypeArgs {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(arg.String())
			}
			b.WriteByte(']')
		}
		return b.String()
	}
	switch t.Kind {
	case KindPointer:
		return "*" + t.Elem.String()
	case KindSlice:
		return "[]" + t.Elem.String()
	case KindArray:
		return "[...]" + t.Elem.String()
	case KindChan:
		return "chan " + t.Elem.String()
	case KindMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case KindTypeParam:
		if t.Param != nil {
			return t.Param.Name
		}
	case KindInterface:
		if t.Methods == 0 {
			return "any"
		}
		return "interface{...}"
	case KindStruct:
		return "struct{...}"
	case KindFunc:
		return "func"
	}
	return t.Kind.String()
}

func packageName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
