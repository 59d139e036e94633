package analysis

import "github.com/broady/apidoc/ir"

// Bindings maps type variables to the types bound to them in one scope.
// A map is built for each parameterized type being expanded and is never
// merged into the caller's map.
type Bindings map[*ir.TypeParam]*ir.Type

// Descriptor is a resolved type reference.
type Descriptor struct {
	// Type is the declared type after type-variable substitution, with
	// pointers removed.
	Type *ir.Type

	// Original is the innermost element type for containers, Type otherwise.
	Original *ir.Type

	// Multiple is true when Type is a container.
	Multiple bool

	// Elem describes the element when the element is itself a container.
	Elem *Descriptor

	// Bindings are the type-variable bindings for Original's members.
	Bindings Bindings
}

// Resolve substitutes the type variables of t from env and unwraps
// containers. Type variables missing from env resolve to the empty
// interface. env is not modified.
func Resolve(t *ir.Type, env Bindings) Descriptor {
	t = deref(substitute(deref(t), env))
	if t == nil {
		t = ir.Any()
	}
	if Container(t) {
		elemEnv := env
		if t.Origin != nil {
			elemEnv = bindingsOf(t, nil)
		}
		elem := Resolve(elemOf(t), elemEnv)
		d := Descriptor{
			Type:     t,
			Original: elem.Original,
			Multiple: true,
			Bindings: elem.Bindings,
		}
		if elem.Multiple {
			d.Elem = &elem
		}
		return d
	}
	return Descriptor{Type: t, Original: t, Bindings: bindingsOf(t, env)}
}

// elemOf returns the element type of a container, substituted with the
// container's own type arguments.
func elemOf(t *ir.Type) *ir.Type {
	shape := t.Shape()
	if shape == t {
		return t.Elem
	}
	return substitute(shape.Elem, bindingsOf(t, nil))
}

// bindingsOf returns the fresh bindings for expanding t's members. Anonymous
// types are declared inside their enclosing scope and see its bindings.
func bindingsOf(t *ir.Type, env Bindings) Bindings {
	if t.Origin != nil {
		params := t.Origin.TypeParams
		b := make(Bindings, len(params))
		for i, p := range params {
			if i < len(t.TypeArgs) {
				b[p] = t.TypeArgs[i]
			}
		}
		return b
	}
	if !t.Named() && len(env) > 0 {
		b := make(Bindings, len(env))
		for k, v := range env {
			b[k] = v
		}
		return b
	}
	return nil
}

// substitute replaces type variables in t with their bindings, copying only
// the nodes that change. Named types without type arguments cannot refer to
// type variables and are returned as is.
func substitute(t *ir.Type, env Bindings) *ir.Type {
	if t == nil {
		return nil
	}
	switch {
	case t.Kind == ir.KindTypeParam:
		if b, ok := env[t.Param]; ok && b != nil {
			return b
		}
		return ir.Any()

	case len(t.TypeArgs) > 0:
		args := make([]*ir.Type, len(t.TypeArgs))
		changed := false
		for i, a := range t.TypeArgs {
			args[i] = substitute(a, env)
			changed = changed || args[i] != a
		}
		if !changed {
			return t
		}
		c := *t
		c.TypeArgs = args
		return &c

	case !t.Named():
		switch t.Kind {
		case ir.KindPointer, ir.KindSlice, ir.KindArray, ir.KindChan, ir.KindMap:
			elem := substitute(t.Elem, env)
			key := substitute(t.Key, env)
			if elem == t.Elem && key == t.Key {
				return t
			}
			c := *t
			c.Elem, c.Key = elem, key
			return &c
		}
	}
	return t
}
