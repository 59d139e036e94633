// Package schema defines the schema tree produced by the analysis engine: one
// Member per documented parameter, return value or nested field.
package schema

import (
	"strconv"
	"strings"

	"github.com/broady/apidoc/ir"
)

// Kind is the classification of a member's value.
type Kind string

const (
	KindBoolean    Kind = "boolean"
	KindString     Kind = "string"
	KindInteger    Kind = "integer"
	KindFloat      Kind = "float"
	KindDate       Kind = "date"
	KindFile       Kind = "file"
	KindReader     Kind = "reader"
	KindWriter     Kind = "writer"
	KindObject     Kind = "object"
	KindEnumObject Kind = "enum-object"
)

// Numeric reports whether values of kind k are numbers.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindFloat
}

// Member is one node of the schema tree.
type Member struct {
	// Name is the documented name after rename overrides and naming strategies.
	// The return value member has an empty name.
	Name string `json:"name"`

	// Kind is the classification of the member's original (element) type.
	Kind Kind `json:"kind"`

	// Type is a display rendering of the original type.
	Type string `json:"type"`

	// Multiple is true for arrays, slices and other containers.
	Multiple bool `json:"multiple,omitzero"`

	Required   bool `json:"required,omitzero"`
	Deprecated bool `json:"deprecated,omitzero"`

	// Size is the permitted length or numeric range.
	Size *SizeRange `json:"size,omitzero"`

	// Format is a date pattern, serialization format or regular expression.
	Format string `json:"format,omitzero"`

	// Default is the value a freshly constructed instance carries.
	Default any `json:"default,omitzero"`

	// Example is a JSON-like sample value.
	Example string `json:"example,omitzero"`

	Description string `json:"description,omitzero"`

	// Options are the selectable values of enumerations.
	Options []Option `json:"options,omitzero"`

	// Items describes the element of a multiple member whose element is
	// itself multiple (e.g. [][]int).
	Items *Member `json:"items,omitzero"`

	// Children are the members of compound types. Nil for leaves; empty but
	// non-nil for compound types with nothing to expand.
	Children []*Member `json:"children,omitzero"`

	// Recursive is true when expansion stopped because the type was already
	// being expanded higher up the tree.
	Recursive bool `json:"recursive,omitzero"`

	// Original is the analysed type, for renderers that want more than Type.
	Original *ir.Type `json:"-"`
}

// Leaf reports whether m has no children list at all.
func (m *Member) Leaf() bool {
	return m.Children == nil
}

// Child returns the direct child named name, or nil.
func (m *Member) Child(name string) *Member {
	for _, c := range m.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find resolves a dotted path such as "owner.address.city" starting at m's
// children.
func (m *Member) Find(path string) *Member {
	cur := m
	for _, part := range strings.Split(path, ".") {
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Walk calls fn for m and every descendant in depth-first order. The path
// holds the names from m (exclusive) down to the visited member. Returning
// false stops descent into that member's children.
func (m *Member) Walk(fn func(path []string, m *Member) bool) {
	var walk func(path []string, m *Member)
	walk = func(path []string, m *Member) {
		if !fn(path, m) {
			return
		}
		for _, c := range m.Children {
			walk(append(path[:len(path):len(path)], c.Name), c)
		}
	}
	walk(nil, m)
}

// Option is one selectable value of an enumeration.
type Option struct {
	Key         string `json:"key"`
	Description string `json:"description,omitzero"`
	Deprecated  bool   `json:"deprecated,omitzero"`
}

// SizeRange is an inclusive range. Either bound may be absent.
type SizeRange struct {
	Min *float64 `json:"min,omitzero"`
	Max *float64 `json:"max,omitzero"`

	// Numeric selects the value-range rendering "{min-max}" over the length
	// rendering "{min..max}".
	Numeric bool `json:"numeric,omitzero"`
}

// String renders the range as "{min-max}" for numeric ranges and "{min..max}"
// otherwise. Bounds use the shortest decimal form without trailing zeros.
func (r *SizeRange) String() string {
	if r == nil {
		return ""
	}
	sep := ".."
	if r.Numeric {
		sep = "-"
	}
	return "{" + formatBound(r.Min) + sep + formatBound(r.Max) + "}"
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
