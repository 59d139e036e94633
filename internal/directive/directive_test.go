package directive

import (
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"
)

func parse(t *testing.T, src string) (*Result, error) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "api.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return ParseFile(fset, f)
}

func TestParseFile(t *testing.T) {
	res, err := parse(t, `package api

// UserService manages users.
//
//apidoc:service Users
type UserService struct{}

// Get returns a user.
//
//apidoc:api GET /users/{id}
//apidoc:param id validate:"required" schema:"user_id"
func (s *UserService) Get(ctx context.Context, id string) (*User, error) { return nil, nil }

// List lists users.
//
//apidoc:api get,post
//apidoc:service Directory
func (s UserService) List() ([]User, error) { return nil, nil }

//apidoc:api
func Health() error { return nil }

// Undocumented is not an operation.
func Undocumented() {}

// Shape is a shape.
//
//apidoc:subtypes kind Circle Square
type Shape struct{}

//apidoc:api
func (p *Page[T]) Next() *Page[T] { return p }
`)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.APIs) != 4 {
		t.Fatalf("got %d APIs, want 4", len(res.APIs))
	}

	get := res.APIs[0]
	if get.FuncName != "Get" || get.Recv != "UserService" {
		t.Errorf("Get = %+v", get)
	}
	if !reflect.DeepEqual(get.Methods, []string{"GET"}) || get.Path != "/users/{id}" {
		t.Errorf("Get methods = %v, path = %q", get.Methods, get.Path)
	}
	if get.Service != "Users" {
		t.Errorf("Get service = %q, want type-level Users", get.Service)
	}
	if tag := get.Params["id"]; tag.Get("schema") != "user_id" || tag.Get("validate") != "required" {
		t.Errorf("id tag = %q", tag)
	}
	if get.Pos.Line != 10 {
		t.Errorf("Get position = %s", get.Pos)
	}

	list := res.APIs[1]
	if !reflect.DeepEqual(list.Methods, []string{"GET", "POST"}) || list.Service != "Directory" {
		t.Errorf("List = %+v", list)
	}

	health := res.APIs[2]
	if health.Recv != "" || len(health.Methods) != 0 || health.Path != "" {
		t.Errorf("Health = %+v", health)
	}

	if res.APIs[3].Recv != "Page" {
		t.Errorf("generic receiver = %q, want Page", res.APIs[3].Recv)
	}

	if len(res.Subtypes) != 1 {
		t.Fatalf("got %d subtypes directives", len(res.Subtypes))
	}
	st := res.Subtypes[0]
	if st.TypeName != "Shape" || st.Property != "kind" || strings.Join(st.Types, ",") != "Circle,Square" {
		t.Errorf("subtypes = %+v", st)
	}
}

func TestParseFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "unknown directive",
			src: `package api

//apidoc:export
func F() {}
`,
			wantErr: "unknown directive //apidoc:export",
		},
		{
			name: "unknown method",
			src: `package api

//apidoc:api FETCH
func F() {}
`,
			wantErr: `unknown method "FETCH"`,
		},
		{
			name: "two paths",
			src: `package api

//apidoc:api /a /b
func F() {}
`,
			wantErr: "multiple paths",
		},
		{
			name: "param without api",
			src: `package api

//apidoc:param id validate:"required"
func F(id string) {}
`,
			wantErr: "without //apidoc:api",
		},
		{
			name: "unknown parameter",
			src: `package api

//apidoc:api
//apidoc:param name validate:"required"
func F(id string) {}
`,
			wantErr: `F has no parameter "name"`,
		},
		{
			name: "subtypes on function",
			src: `package api

//apidoc:api
//apidoc:subtypes kind A
func F() {}
`,
			wantErr: "must be attached to a type",
		},
		{
			name: "api on type",
			src: `package api

//apidoc:api
type T struct{}
`,
			wantErr: "must be attached to a function",
		},
		{
			name: "subtypes without types",
			src: `package api

//apidoc:subtypes kind
type T struct{}
`,
			wantErr: "needs a property and at least one type",
		},
		{
			name: "dangling directive",
			src: `package api

func F() {
	//apidoc:api
}
`,
			wantErr: "must be followed by a declaration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.src)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	r := &Result{APIs: []API{{FuncName: "A"}}}
	r.Merge(&Result{APIs: []API{{FuncName: "B"}}, Subtypes: []Subtypes{{TypeName: "S"}}})
	if len(r.APIs) != 2 || r.APIs[1].FuncName != "B" || len(r.Subtypes) != 1 {
		t.Errorf("Merge = %+v", r)
	}
}
