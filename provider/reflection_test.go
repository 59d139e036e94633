package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/broady/apidoc/analysis"
	"github.com/broady/apidoc/ir"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

type node struct {
	Value string
	Next  *node
}

type timestamp time.Time

type attachments struct {
	Created  time.Time
	Updated  timestamp
	TTL      time.Duration
	File     *os.File
	Buffer   *bytes.Buffer
	ID       uuid.UUID
	Raw      json.RawMessage
	Data     []byte
	Any      any
	Labels   map[string]int
	internal int
}

type status string

const (
	statusActive status = "active"
	statusLocked status = "locked"
)

type shape struct {
	Kind string
}

type circle struct {
	shape
	Radius float64
}

type square struct {
	shape
	Side float64
}

type searchParams struct {
	Query string `schema:"q"`
	Page  int    `schema:"page,default:2"`
	Limit int
}

func (s *searchParams) SetDefaults() { s.Limit = 50 }

type widget struct {
	Size int
}

type gadget struct {
	Size  int
	Color string
	Tags  []string
}

func configure(ctx context.Context, g gadget) error { return nil }

type result struct {
	ID    string
	Score float64
}

type userService struct{}

func (s *userService) Get(ctx context.Context, id string) (*result, error) { return nil, nil }

func search(ctx context.Context, params searchParams) ([]result, error) { return nil, nil }

func TestReflectionTypeIdentity(t *testing.T) {
	p := NewReflectionProvider()
	n := p.Type(reflect.TypeFor[node]())
	if p.Type(reflect.TypeFor[node]()) != n {
		t.Fatal("converting the same type twice returned different nodes")
	}
	if n.Kind != ir.KindStruct || n.ID() != "github.com/broady/apidoc/provider.node" {
		t.Errorf("node = %s (%v)", n.ID(), n.Kind)
	}
	next := n.Fields[1].Type
	if next.Kind != ir.KindPointer || next.Elem != n {
		t.Error("Next should point back to node")
	}
}

func TestReflectionSpecialTypes(t *testing.T) {
	p := NewReflectionProvider()
	a := p.Type(reflect.TypeFor[attachments]())

	fields := make(map[string]*ir.Type)
	for _, f := range a.Fields {
		fields[f.Name] = f.Type
	}

	tests := []struct {
		field  string
		traits ir.Traits
	}{
		{"Created", ir.TraitDate},
		{"Updated", ir.TraitDate},
		{"TTL", ir.TraitDuration},
		{"ID", ir.TraitTextMarshaler},
		{"Raw", ir.TraitRaw},
	}
	for _, tt := range tests {
		if got := fields[tt.field].Traits; !got.Has(tt.traits) {
			t.Errorf("%s traits = %b, want %b", tt.field, got, tt.traits)
		}
	}

	if len(fields["Created"].Fields) != 0 || len(fields["Updated"].Fields) != 0 {
		t.Error("date types should be opaque")
	}
	file := fields["File"].Elem
	if !file.Traits.Has(ir.TraitFile | ir.TraitReader) {
		t.Errorf("os.File traits = %b", file.Traits)
	}
	buf := fields["Buffer"].Elem
	if !buf.Traits.Has(ir.TraitReader | ir.TraitWriter) {
		t.Errorf("bytes.Buffer traits = %b", buf.Traits)
	}
	if !ir.IsByteSlice(fields["Data"]) {
		t.Error("[]byte not recognised")
	}
	if fields["Any"].Kind != ir.KindInterface || fields["Any"].Methods != 0 {
		t.Errorf("any = %v", fields["Any"])
	}
	if m := fields["Labels"]; m.Kind != ir.KindMap || m.Key.Kind != ir.KindString || m.Elem.Kind != ir.KindInt {
		t.Errorf("map = %v", m)
	}
	if fields["internal"] == nil {
		t.Error("unexported fields should still be listed")
	}
}

func TestReflectionEnum(t *testing.T) {
	p := NewReflectionProvider()
	Enum(p, statusActive, statusLocked)

	st := p.Type(reflect.TypeFor[status]())
	want := []ir.EnumMember{{Name: "active", Value: "active"}, {Name: "locked", Value: "locked"}}
	if !reflect.DeepEqual(st.Enum, want) {
		t.Errorf("Enum = %v, want %v", st.Enum, want)
	}
	if st.Kind != ir.KindString {
		t.Errorf("Kind = %v", st.Kind)
	}
}

func TestReflectionSubtypes(t *testing.T) {
	p := NewReflectionProvider()
	Subtypes[shape](p, "kind", circle{}, &square{})

	base := p.Type(reflect.TypeFor[shape]())
	if base.Polymorphism == nil || len(base.Polymorphism.Subtypes) != 2 {
		t.Fatalf("Polymorphism = %+v", base.Polymorphism)
	}
	if got := base.Polymorphism.Subtypes[1].Name; got != "square" {
		t.Errorf("second subtype = %s, want square", got)
	}
	if base.Polymorphism.Property != "kind" {
		t.Errorf("Property = %q", base.Polymorphism.Property)
	}
}

func TestReflectionOperation(t *testing.T) {
	p := NewReflectionProvider()
	svc := &userService{}

	op, err := p.Operation(svc.Get, ir.Param{}, ir.Param{Name: "id", Tag: `validate:"required"`})
	if err != nil {
		t.Fatal(err)
	}
	if op.Key != "github.com/broady/apidoc/provider.userService.Get" {
		t.Errorf("Key = %q", op.Key)
	}
	if op.Name != "Get" || op.Receiver == nil || op.Receiver.Name != "userService" {
		t.Errorf("Name = %q, Receiver = %v", op.Name, op.Receiver)
	}
	if len(op.Params) != 2 || op.Params[1].Name != "id" || op.Params[1].Tag.Get("validate") != "required" {
		t.Errorf("Params = %+v", op.Params)
	}
	if len(op.Results) != 2 || op.Results[1].Name != "error" {
		t.Errorf("Results = %v", op.Results)
	}

	op, err = p.Operation(search)
	if err != nil {
		t.Fatal(err)
	}
	if op.Receiver != nil || op.Name != "search" || op.Package != "github.com/broady/apidoc/provider" {
		t.Errorf("search = %+v", op)
	}

	if _, err := p.Operation("not a func"); err == nil {
		t.Error("expected error for non-function")
	}
	if _, err := p.Operation(search, ir.Param{}, ir.Param{}, ir.Param{}); err == nil {
		t.Error("expected error for too many parameter annotations")
	}
}

func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		full, pkg, recv, name string
	}{
		{"example.com/api.(*UserService).Get-fm", "example.com/api", "UserService", "Get"},
		{"example.com/api.UserService.Get", "example.com/api", "UserService", "Get"},
		{"example.com/api.ListUsers", "example.com/api", "", "ListUsers"},
		{"example.com/api/v2.(*Page[...]).Next-fm", "example.com/api/v2", "Page", "Next"},
		{"example.com/api.Register.func1", "example.com/api", "", "Register"},
		{"main.handler", "main", "", "handler"},
	}
	for _, tt := range tests {
		pkg, recv, name := splitFuncName(tt.full)
		if pkg != tt.pkg || recv != tt.recv || name != tt.name {
			t.Errorf("splitFuncName(%q) = %q, %q, %q, want %q, %q, %q", tt.full, pkg, recv, name, tt.pkg, tt.recv, tt.name)
		}
	}
}

func TestProbeDefaults(t *testing.T) {
	p := NewReflectionProvider()
	owner := p.Type(reflect.TypeFor[searchParams]())
	probe := p.Probe()

	tests := []struct {
		field string
		want  any
	}{
		{"Page", 2},
		{"Limit", 50},
		{"Query", ""},
	}
	for _, tt := range tests {
		v, ok, err := probe.Default(context.Background(), owner, ir.Field{Name: tt.field})
		if err != nil || !ok {
			t.Fatalf("Default(%s) = %v, %v, %v", tt.field, v, ok, err)
		}
		if v != tt.want {
			t.Errorf("Default(%s) = %#v, want %#v", tt.field, v, tt.want)
		}
	}
}

func TestProbeFactory(t *testing.T) {
	p := NewReflectionProvider()
	Factory(p, func() (*widget, error) { return &widget{Size: 3}, nil })
	owner := p.Type(reflect.TypeFor[widget]())

	v, ok, err := p.Probe().Default(context.Background(), owner, ir.Field{Name: "Size"})
	if err != nil || !ok || v != 3 {
		t.Errorf("Default(Size) = %v, %v, %v, want 3", v, ok, err)
	}
}

func TestProbeFactoryError(t *testing.T) {
	p := NewReflectionProvider()
	boom := errors.New("boom")
	Factory(p, func() (widget, error) { return widget{}, boom })
	owner := p.Type(reflect.TypeFor[widget]())

	_, _, err := p.Probe().Default(context.Background(), owner, ir.Field{Name: "Size"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestProbeFactoryOncePerOperation(t *testing.T) {
	p := NewReflectionProvider()
	calls := 0
	Factory(p, func() (gadget, error) {
		calls++
		return gadget{Size: 4, Color: "red"}, nil
	})
	op, err := p.Operation(configure, ir.Param{}, ir.Param{Name: "g"})
	if err != nil {
		t.Fatal(err)
	}

	b := analysis.New(analysis.Options{
		IncludeNamePrefixes: []string{"github.com/broady/apidoc/provider."},
		Probe:               p.Probe(),
	})
	got, err := b.Operation(context.Background(), op)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if d := got.Parameter("Color").Default; d != "red" {
		t.Errorf("Color default = %#v, want red", d)
	}

	if _, err := b.Operation(context.Background(), op); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("factory called %d times after two operations, want 2", calls)
	}
}

func TestProbeUnknownTypes(t *testing.T) {
	p := NewReflectionProvider()
	probe := p.Probe()

	if _, ok, err := probe.Default(context.Background(), ir.String(), ir.Field{Name: "X"}); ok || err != nil {
		t.Errorf("foreign type: ok=%v err=%v", ok, err)
	}
	st := p.Type(reflect.TypeFor[status]())
	if _, _, err := probe.Default(context.Background(), st, ir.Field{Name: "X"}); !errors.Is(err, analysis.ErrNoConstructor) {
		t.Errorf("non-struct owner: err = %v, want ErrNoConstructor", err)
	}
}

func TestOnlyMissing(t *testing.T) {
	missing := schema.MultiError{"q": schema.EmptyFieldError{Key: "q"}}
	if !onlyMissing(missing) {
		t.Error("missing required fields should be tolerated")
	}
	mixed := schema.MultiError{"q": schema.EmptyFieldError{Key: "q"}, "page": errors.New("bad")}
	if onlyMissing(mixed) {
		t.Error("other decode errors should not be tolerated")
	}
	if onlyMissing(errors.New("plain")) {
		t.Error("non-multi errors should not be tolerated")
	}
}

func TestReflectionAnalysis(t *testing.T) {
	p := NewReflectionProvider()
	op, err := p.Operation(search, ir.Param{}, ir.Param{Name: "params"})
	if err != nil {
		t.Fatal(err)
	}

	b := analysis.New(analysis.Options{
		IncludeNamePrefixes: []string{"github.com/broady/apidoc/provider."},
		Probe:               p.Probe(),
	})
	got, err := b.Operation(context.Background(), op)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range got.Parameters {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "q,page,Limit" {
		t.Errorf("parameters = %v", names)
	}
	if d := got.Parameter("page").Default; d != 2 {
		t.Errorf("page default = %#v, want 2", d)
	}
	if d := got.Parameter("Limit").Default; d != 50 {
		t.Errorf("Limit default = %#v, want 50", d)
	}
	if got.Return == nil || !got.Return.Multiple || len(got.Return.Children) != 2 {
		t.Errorf("return = %+v", got.Return)
	}
}
