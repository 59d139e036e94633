package analysis

import (
	"testing"

	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		typ    *ir.Type
		want   schema.Kind
		atomic bool
	}{
		{"bool", ir.Bool(), schema.KindBoolean, true},
		{"string", ir.String(), schema.KindString, true},
		{"int", ir.Int(), schema.KindInteger, true},
		{"uint", ir.Uint(), schema.KindInteger, true},
		{"float", ir.Float(), schema.KindFloat, true},
		{"pointer to int", ir.PointerTo(ir.Int()), schema.KindInteger, true},
		{"bytes", ir.Bytes(), schema.KindString, true},
		{"time", timeType(), schema.KindDate, true},
		{"named time", &ir.Type{Kind: ir.KindStruct, Name: "Timestamp", Package: testPkg, Traits: ir.TraitDate}, schema.KindDate, true},
		{"duration", &ir.Type{Kind: ir.KindInt, Name: "Duration", Package: "time", Traits: ir.TraitDuration}, schema.KindInteger, true},
		{"big int", &ir.Type{Kind: ir.KindStruct, Name: "Int", Package: "math/big", Traits: ir.TraitBigInt | ir.TraitTextMarshaler}, schema.KindInteger, true},
		{"big float", &ir.Type{Kind: ir.KindStruct, Name: "Float", Package: "math/big", Traits: ir.TraitBigFloat | ir.TraitTextMarshaler}, schema.KindFloat, true},
		{"json number", &ir.Type{Kind: ir.KindString, Name: "Number", Package: "encoding/json", Traits: ir.TraitNumber}, schema.KindFloat, true},
		{"locale", &ir.Type{Kind: ir.KindStruct, Name: "Tag", Package: "golang.org/x/text/language", Traits: ir.TraitLocale}, schema.KindString, true},
		{"timezone", &ir.Type{Kind: ir.KindStruct, Name: "Location", Package: "time", Traits: ir.TraitTimeZone}, schema.KindString, true},
		{"text marshaler", &ir.Type{Kind: ir.KindArray, Name: "UUID", Package: "github.com/google/uuid", Traits: ir.TraitTextMarshaler}, schema.KindString, true},
		{"enum", statusType(), schema.KindString, true},
		{"int enum", &ir.Type{Kind: ir.KindInt, Name: "Level", Package: testPkg, Enum: []ir.EnumMember{{Name: "Low", Value: int64(0)}}}, schema.KindString, true},
		{"struct enum", &ir.Type{Kind: ir.KindStruct, Name: "Color", Package: testPkg, Enum: []ir.EnumMember{{Name: "Red"}}}, schema.KindEnumObject, true},
		{"file", &ir.Type{Kind: ir.KindStruct, Name: "FileHeader", Package: "mime/multipart", Traits: ir.TraitFile}, schema.KindFile, true},
		{"os file", &ir.Type{Kind: ir.KindStruct, Name: "File", Package: "os", Traits: ir.TraitFile | ir.TraitReader | ir.TraitWriter}, schema.KindFile, true},
		{"reader", &ir.Type{Kind: ir.KindInterface, Name: "Reader", Package: "io", Methods: 1, Traits: ir.TraitReader}, schema.KindReader, true},
		{"writer", &ir.Type{Kind: ir.KindInterface, Name: "Writer", Package: "io", Methods: 1, Traits: ir.TraitWriter}, schema.KindWriter, true},
		{"struct", userType(), schema.KindObject, false},
		{"interface", &ir.Type{Kind: ir.KindInterface, Name: "Shape", Package: testPkg, Methods: 1}, schema.KindObject, false},
		{"any", ir.Any(), schema.KindObject, true},
		{"raw json", &ir.Type{Kind: ir.KindSlice, Name: "RawMessage", Package: "encoding/json", Elem: ir.Bytes().Elem, Traits: ir.TraitRaw}, schema.KindObject, true},
		{"map", ir.MapOf(ir.String(), ir.Int()), schema.KindObject, true},
		{"func", &ir.Type{Kind: ir.KindFunc}, schema.KindObject, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.typ); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
			if got := Atomic(tt.typ); got != tt.atomic {
				t.Errorf("Atomic() = %v, want %v", got, tt.atomic)
			}
		})
	}
}

func TestContainer(t *testing.T) {
	tests := []struct {
		name string
		typ  *ir.Type
		want bool
	}{
		{"slice", ir.SliceOf(ir.Int()), true},
		{"array", ir.ArrayOf(ir.String()), true},
		{"chan", &ir.Type{Kind: ir.KindChan, Elem: ir.Int()}, true},
		{"named slice", &ir.Type{Kind: ir.KindSlice, Name: "Users", Package: testPkg, Elem: userType()}, true},
		{"bytes", ir.Bytes(), false},
		{"map", ir.MapOf(ir.String(), ir.Int()), false},
		{"struct", userType(), false},
		{"text marshaler array", &ir.Type{Kind: ir.KindArray, Name: "UUID", Package: "github.com/google/uuid", Traits: ir.TraitTextMarshaler, Elem: ir.Uint()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Container(tt.typ); got != tt.want {
				t.Errorf("Container() = %v, want %v", got, tt.want)
			}
		})
	}
}
