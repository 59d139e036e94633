package ir

// Kind identifies the structural category of a Type.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt   // Signed integer of any width
	KindUint  // Unsigned integer of any width
	KindFloat // float32 or float64
	KindComplex
	KindString
	KindStruct
	KindInterface
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindChan
	KindFunc
	KindTypeParam // Generic type variable, see Type.Param
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindPointer:
		return "pointer"
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindChan:
		return "chan"
	case KindFunc:
		return "func"
	case KindTypeParam:
		return "typeparam"
	default:
		return "invalid"
	}
}

// Traits is a set of host-detected type properties that cannot be derived from
// the structural kind alone.
type Traits uint32

const (
	TraitReader        Traits = 1 << iota // implements io.Reader
	TraitWriter                           // implements io.Writer
	TraitTextMarshaler                    // implements encoding.TextMarshaler
	TraitDate                             // time.Time or a named type over it
	TraitDuration                         // time.Duration
	TraitFile                             // os.File, multipart.FileHeader, multipart.File
	TraitLocale                           // golang.org/x/text/language.Tag
	TraitTimeZone                         // time.Location
	TraitBigInt                           // math/big.Int
	TraitBigFloat                         // math/big.Float, math/big.Rat
	TraitNumber                           // encoding/json.Number
	TraitRaw                              // encoding/json.RawMessage and other opaque payloads
)

// Has reports whether all traits in x are set.
func (t Traits) Has(x Traits) bool {
	return t&x == x
}

// EnumMember represents a single enum variant.
type EnumMember struct {
	// Name is the constant name.
	Name string

	// Value is the constant value. Providers convert Go constant values
	// to string, int64, uint64, float64 or bool.
	Value any
}
