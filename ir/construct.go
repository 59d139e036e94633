package ir

// Convenience constructors for unnamed types. Providers and tests use these to
// assemble graphs; named types are built as *Type literals so they can be
// shared and made cyclic.

// Bool returns the bool type.
func Bool() *Type { return &Type{Kind: KindBool} }

// String returns the string type.
func String() *Type { return &Type{Kind: KindString} }

// Int returns the int type.
func Int() *Type { return &Type{Kind: KindInt} }

// Uint returns the uint type.
func Uint() *Type { return &Type{Kind: KindUint} }

// Float returns the float64 type.
func Float() *Type { return &Type{Kind: KindFloat} }

// Any returns the empty interface.
func Any() *Type { return &Type{Kind: KindInterface} }

// Bytes returns []byte.
func Bytes() *Type { return SliceOf(&Type{Kind: KindUint, Name: "uint8"}) }

// PointerTo returns *elem.
func PointerTo(elem *Type) *Type { return &Type{Kind: KindPointer, Elem: elem} }

// SliceOf returns []elem.
func SliceOf(elem *Type) *Type { return &Type{Kind: KindSlice, Elem: elem} }

// ArrayOf returns [N]elem.
func ArrayOf(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// MapOf returns map[key]elem.
func MapOf(key, elem *Type) *Type { return &Type{Kind: KindMap, Key: key, Elem: elem} }

// ParamType returns the type that refers to the type variable p.
func ParamType(p *TypeParam) *Type { return &Type{Kind: KindTypeParam, Param: p} }

// Instantiate returns origin[args...]. Arguments may themselves reference
// type variables of an enclosing declaration.
func Instantiate(origin *Type, args ...*Type) *Type {
	return &Type{
		Kind:     origin.Kind,
		Name:     origin.Name,
		Package:  origin.Package,
		Origin:   origin,
		TypeArgs: args,
		Traits:   origin.Traits,
	}
}

// IsByteSlice reports whether t is []byte (or []uint8).
func IsByteSlice(t *Type) bool {
	if t == nil || t.Kind != KindSlice || t.Elem == nil {
		return false
	}
	return t.Elem.Kind == KindUint && (t.Elem.Name == "uint8" || t.Elem.Name == "byte")
}
