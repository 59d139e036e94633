package analysis

import (
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
)

// Classify returns the value kind of t. Pointers are looked through. The
// result depends on t alone.
func Classify(t *ir.Type) schema.Kind {
	t = deref(t)
	if t == nil {
		return schema.KindObject
	}
	shape := t.Shape()
	if len(shape.Enum) > 0 {
		if shape.Kind == ir.KindStruct {
			return schema.KindEnumObject
		}
		return schema.KindString
	}

	tr := t.Traits
	switch {
	case tr.Has(ir.TraitDate):
		return schema.KindDate
	case tr.Has(ir.TraitDuration), tr.Has(ir.TraitBigInt):
		return schema.KindInteger
	case tr.Has(ir.TraitBigFloat), tr.Has(ir.TraitNumber):
		return schema.KindFloat
	case tr.Has(ir.TraitLocale), tr.Has(ir.TraitTimeZone):
		return schema.KindString
	case tr.Has(ir.TraitFile):
		return schema.KindFile
	case tr.Has(ir.TraitRaw):
		return schema.KindObject
	}

	switch shape.Kind {
	case ir.KindBool:
		return schema.KindBoolean
	case ir.KindInt, ir.KindUint:
		return schema.KindInteger
	case ir.KindFloat:
		return schema.KindFloat
	case ir.KindString:
		return schema.KindString
	}
	if ir.IsByteSlice(shape) || tr.Has(ir.TraitTextMarshaler) {
		return schema.KindString
	}

	switch {
	case tr.Has(ir.TraitReader):
		return schema.KindReader
	case tr.Has(ir.TraitWriter):
		return schema.KindWriter
	}
	return schema.KindObject
}

// Atomic reports whether t is documented as a single value rather than
// expanded into members. Every classified kind other than plain object is
// atomic; among objects, only structs and non-empty interfaces are compound.
func Atomic(t *ir.Type) bool {
	t = deref(t)
	if t == nil {
		return true
	}
	if Classify(t) != schema.KindObject {
		return true
	}
	if t.Traits.Has(ir.TraitRaw) {
		return true
	}
	shape := t.Shape()
	switch shape.Kind {
	case ir.KindStruct:
		return false
	case ir.KindInterface:
		return shape.Methods == 0
	}
	return true
}

// Container reports whether t holds a sequence of elements: slices, arrays
// and channels, but not []byte.
func Container(t *ir.Type) bool {
	t = deref(t)
	if t == nil || ir.IsByteSlice(t.Shape()) || Classify(t) != schema.KindObject {
		return false
	}
	switch t.Shape().Kind {
	case ir.KindSlice, ir.KindArray, ir.KindChan:
		return true
	}
	return false
}

func deref(t *ir.Type) *ir.Type {
	for t != nil && t.Kind == ir.KindPointer && !t.Named() {
		t = t.Elem
	}
	return t
}
