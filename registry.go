// Package apidoc documents Go APIs. Operations are registered on an App (or
// discovered from source with the provider package) and analysed into schema
// trees describing their parameters and return values.
package apidoc

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/broady/apidoc/internal/directive"
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/provider"
)

// App is the set of operations of an API.
// Handlers are registered through services; App converts their signatures
// with runtime reflection.
type App struct {
	mu       sync.RWMutex
	provider *provider.ReflectionProvider
	routes   map[string]*ir.Operation
	order    []string
	logger   *slog.Logger
}

func NewApp() *App {
	return &App{
		provider: provider.NewReflectionProvider(),
		routes:   make(map[string]*ir.Operation),
	}
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// Types returns the reflection provider that converts handler signatures.
// Register enumerations, subtypes and factories on it before registering
// the handlers that use them.
func (a *App) Types() *provider.ReflectionProvider {
	return a.provider
}

// Service returns a Service namespace.
func (a *App) Service(name string) *Service {
	return &Service{
		app:  a,
		name: name,
	}
}

// Operations returns the registered operations in registration order.
func (a *App) Operations() []*ir.Operation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ops := make([]*ir.Operation, 0, len(a.order))
	for _, key := range a.order {
		ops = append(ops, a.routes[key])
	}
	return ops
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

type Service struct {
	app  *App
	name string
}

// Register registers a handler function or method value under the given
// operation name. Its path defaults to /{service}/{name}.
// If an operation is already registered for this service and name, it is
// replaced and a warning is logged.
func (s *Service) Register(name string, handler any) *Operation {
	op, err := s.app.provider.Operation(handler)
	if err != nil {
		panic(fmt.Sprintf("apidoc: register %s.%s: %v", s.name, name, err))
	}
	op.Key = s.name + "." + name
	op.Service = s.name
	op.Path = "/" + s.name + "/" + name

	s.app.mu.Lock()
	defer s.app.mu.Unlock()

	if _, exists := s.app.routes[op.Key]; exists {
		s.app.log().Warn("duplicate operation registration",
			slog.String("service", s.name),
			slog.String("operation", name),
			slog.String("key", op.Key))
	} else {
		s.app.order = append(s.app.order, op.Key)
	}
	s.app.routes[op.Key] = op
	return &Operation{app: s.app, op: op}
}

// Operation configures a registered operation.
type Operation struct {
	app *App
	op  *ir.Operation
}

// Methods restricts the HTTP methods of the operation.
func (o *Operation) Methods(methods ...string) *Operation {
	for _, m := range methods {
		if !slices.Contains(directive.Methods, m) {
			panic(fmt.Sprintf("apidoc: unknown method %q", m))
		}
	}
	o.app.mu.Lock()
	defer o.app.mu.Unlock()
	o.op.Methods = append([]string(nil), methods...)
	return o
}

// Path sets the URL path of the operation.
func (o *Operation) Path(path string) *Operation {
	o.app.mu.Lock()
	defer o.app.mu.Unlock()
	o.op.Path = path
	return o
}

// Param names the parameter at index and attaches binding annotations in
// struct tag syntax, e.g. `validate:"required" schema:"user_id"`.
func (o *Operation) Param(index int, name string, tag reflect.StructTag) *Operation {
	o.app.mu.Lock()
	defer o.app.mu.Unlock()
	if index < 0 || index >= len(o.op.Params) {
		panic(fmt.Sprintf("apidoc: %s has no parameter %d", o.op.Key, index))
	}
	o.op.Params[index].Name = name
	o.op.Params[index].Tag = tag
	return o
}

// Key returns the key of the operation.
func (o *Operation) Key() string {
	return o.op.Key
}
