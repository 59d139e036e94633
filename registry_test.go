package apidoc

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app.routes == nil {
		t.Error("expected routes map to be initialized")
	}
	if app.Types() == nil {
		t.Error("expected a reflection provider")
	}
	if len(app.Operations()) != 0 {
		t.Error("new app should have no operations")
	}
}

func TestRegisterOrder(t *testing.T) {
	app := testApp()
	ops := app.Operations()

	var keys []string
	for _, op := range ops {
		keys = append(keys, op.Key)
	}
	if got := strings.Join(keys, ","); got != "users.Create,users.Get,widgets.Paint" {
		t.Fatalf("operations = %s", got)
	}

	create := ops[0]
	if create.Service != "users" || create.Path != "/users/Create" {
		t.Errorf("Create service = %q, path = %q", create.Service, create.Path)
	}
	if !reflect.DeepEqual(create.Methods, []string{"POST"}) {
		t.Errorf("Create methods = %v", create.Methods)
	}
	if create.Receiver == nil || create.Receiver.Name != "userService" {
		t.Errorf("Create receiver = %v", create.Receiver)
	}

	get := ops[1]
	if get.Params[1].Name != "id" || get.Params[1].Tag.Get("validate") != "required" {
		t.Errorf("Get params = %+v", get.Params)
	}
	if ops[2].Receiver != nil {
		t.Errorf("Paint receiver = %v, want nil", ops[2].Receiver)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	logger, buf := captureLogger()
	app := NewApp().WithLogger(logger)
	svc := app.Service("users")

	svc.Register("Get", userService{}.Get)
	second := svc.Register("Get", userService{}.Create).Path("/v2/users")

	ops := app.Operations()
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	if ops[0].Path != "/v2/users" || second.Key() != "users.Get" {
		t.Errorf("duplicate did not replace: %+v", ops[0])
	}
	if !strings.Contains(buf.String(), "duplicate operation registration") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestRegisterPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(app *App)
	}{
		{"not a function", func(app *App) { app.Service("s").Register("X", 42) }},
		{"unknown method", func(app *App) { app.Service("s").Register("X", paint).Methods("FETCH") }},
		{"parameter out of range", func(app *App) { app.Service("s").Register("X", paint).Param(5, "x", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn(NewApp())
		})
	}
}
