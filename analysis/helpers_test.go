package analysis

import (
	"context"
	"reflect"
	"time"

	"github.com/broady/apidoc/ir"
)

const testPkg = "example.com/api"

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestBuilder(opts Options) *Builder {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return New(opts)
}

func field(name string, t *ir.Type, tag string) ir.Field {
	return ir.Field{Name: name, Type: t, Tag: reflect.StructTag(tag)}
}

func embed(t *ir.Type) ir.Field {
	return ir.Field{Name: t.Name, Type: t, Embedded: true}
}

func structType(name string, fields ...ir.Field) *ir.Type {
	return &ir.Type{Kind: ir.KindStruct, Name: name, Package: testPkg, Fields: fields}
}

func timeType() *ir.Type {
	return &ir.Type{Kind: ir.KindStruct, Name: "Time", Package: "time", Traits: ir.TraitDate | ir.TraitTextMarshaler}
}

func contextType() *ir.Type {
	return &ir.Type{Kind: ir.KindInterface, Name: "Context", Package: "context", Methods: 4}
}

func errorType() *ir.Type {
	return &ir.Type{Kind: ir.KindInterface, Name: "error", Methods: 1}
}

func statusType() *ir.Type {
	return &ir.Type{
		Kind:    ir.KindString,
		Name:    "Status",
		Package: testPkg,
		Enum: []ir.EnumMember{
			{Name: "StatusActive", Value: "A"},
			{Name: "StatusLocked", Value: "L"},
		},
	}
}

// nodeType is a self-referencing linked list node.
func nodeType() *ir.Type {
	node := structType("Node")
	node.Fields = []ir.Field{
		field("Value", ir.String(), ""),
		field("Next", ir.PointerTo(node), ""),
	}
	return node
}

// pageType is Page[T] { Items []T; Total int }.
func pageType() *ir.Type {
	tp := &ir.TypeParam{Name: "T"}
	page := structType("Page",
		field("Items", ir.SliceOf(ir.ParamType(tp)), `json:"items"`),
		field("Total", ir.Int(), `json:"total"`),
	)
	page.TypeParams = []*ir.TypeParam{tp}
	return page
}

func userType() *ir.Type {
	return structType("User",
		field("ID", ir.Int(), `json:"id"`),
		field("Name", ir.String(), `json:"name" validate:"required,max=64"`),
	)
}

type probeFunc func(owner *ir.Type, f ir.Field) (any, bool, error)

func (p probeFunc) Default(_ context.Context, owner *ir.Type, f ir.Field) (any, bool, error) {
	return p(owner, f)
}
