package provider

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/broady/apidoc/analysis"
	"github.com/broady/apidoc/ir"
	"github.com/gorilla/schema"
)

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Defaulter is implemented by types that fill in their own defaults after
// construction.
type Defaulter interface {
	SetDefaults()
}

// Probe returns a default probe for types converted by p. A declaring type is
// constructed with its registered factory, or as a zero value with the
// `schema:",default:x"` options applied by gorilla/schema, and then its
// SetDefaults method is called if it has one.
func (p *ReflectionProvider) Probe() analysis.DefaultProbe {
	return &reflectionProbe{p: p}
}

type reflectionProbe struct {
	p *ReflectionProvider
}

func (r *reflectionProbe) Default(ctx context.Context, owner *ir.Type, field ir.Field) (any, bool, error) {
	rt, ok := r.p.runtimeType(owner)
	if !ok {
		return nil, false, nil
	}
	if rt.Kind() != reflect.Struct {
		return nil, false, analysis.ErrNoConstructor
	}
	inst, err := analysis.Memo(ctx, rt, func() (any, error) { return r.p.construct(rt) })
	if err != nil {
		return nil, false, err
	}
	v := inst.(reflect.Value)
	sf, ok := rt.FieldByName(field.Name)
	if !ok || len(sf.Index) != 1 || !sf.IsExported() {
		return nil, false, nil
	}
	return v.Field(sf.Index[0]).Interface(), true, nil
}

// construct returns a new instance of the struct type t.
func (p *ReflectionProvider) construct(t reflect.Type) (reflect.Value, error) {
	p.mu.Lock()
	factory := p.factories[t]
	p.mu.Unlock()

	if factory != nil {
		inst, err := factory()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("factory for %s: %w", t, err)
		}
		v := reflect.ValueOf(inst)
		for v.Kind() == reflect.Pointer && !v.IsNil() {
			v = v.Elem()
		}
		if !v.IsValid() || v.Type() != t {
			return reflect.Value{}, fmt.Errorf("factory for %s returned %T", t, inst)
		}
		return v, nil
	}

	ptr := reflect.New(t)
	if hasDefaultOptions(t) {
		if err := schemaDecoder.Decode(ptr.Interface(), map[string][]string{}); err != nil && !onlyMissing(err) {
			return reflect.Value{}, fmt.Errorf("applying defaults to %s: %w", t, err)
		}
	}
	if d, ok := ptr.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return ptr.Elem(), nil
}

func hasDefaultOptions(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if strings.Contains(t.Field(i).Tag.Get("schema"), ",default:") {
			return true
		}
	}
	return false
}

// onlyMissing reports whether err only complains about required fields
// absent from the (empty) input.
func onlyMissing(err error) bool {
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return false
	}
	for _, e := range multi {
		var empty schema.EmptyFieldError
		if !errors.As(e, &empty) {
			return false
		}
	}
	return true
}
