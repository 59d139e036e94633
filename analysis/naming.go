package analysis

import (
	"maps"
	"strconv"
	"strings"

	"github.com/broady/apidoc/ir"
	"github.com/stoewer/go-strcase"
)

// Naming strategy identifiers accepted by the naming struct tag.
const (
	StrategyIdentity   = "identity"
	StrategySnake      = "snake_case"
	StrategyUpperCamel = "upper_camel"
	StrategyLowerCase  = "lower_case"
	StrategyKebab      = "kebab_case"
	StrategyLowerCamel = "lower_camel"
)

// Strategies maps naming strategy identifiers to name transforms.
type Strategies map[string]func(string) string

// DefaultStrategies returns the built-in naming strategies.
func DefaultStrategies() Strategies {
	return Strategies{
		StrategyIdentity:   func(s string) string { return s },
		StrategySnake:      strcase.SnakeCase,
		StrategyUpperCamel: strcase.UpperCamelCase,
		StrategyLowerCase:  strings.ToLower,
		StrategyKebab:      strcase.KebabCase,
		StrategyLowerCamel: strcase.LowerCamelCase,
	}
}

// With returns a copy of s with fn registered under id.
func (s Strategies) With(id string, fn func(string) string) Strategies {
	c := maps.Clone(s)
	if c == nil {
		c = make(Strategies)
	}
	c[id] = fn
	return c
}

// Apply transforms name with the strategy id. Unknown strategies fall back
// to lower camel case.
func (s Strategies) Apply(id, name string) string {
	if fn, ok := s[id]; ok {
		return fn(name)
	}
	return strcase.LowerCamelCase(name)
}

// memberName applies the naming precedence for a struct field: binding
// rename, then external property name, then the member's naming strategy,
// then snake case when case conversion is enabled.
func (b *Builder) memberName(f ir.Field) string {
	if n := tagName(f.Tag, tagSchema); n != "" {
		return n
	}
	if n := tagName(f.Tag, tagJSON); n != "" {
		return n
	}
	if id := f.Tag.Get(tagNaming); id != "" {
		return b.strategies.Apply(id, f.Name)
	}
	if b.opts.EnableNameCaseConversion {
		return b.strategies.Apply(StrategySnake, f.Name)
	}
	return f.Name
}

// paramName returns the binding override name of a parameter, else its
// declared name, else a positional name.
func paramName(p ir.Param, index int) string {
	if n := tagName(p.Tag, tagSchema); n != "" {
		return n
	}
	if p.Name != "" && p.Name != "_" {
		return p.Name
	}
	return "arg" + strconv.Itoa(index)
}
