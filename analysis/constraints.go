package analysis

import (
	"reflect"
	"strconv"

	"github.com/broady/apidoc/docs"
	"github.com/broady/apidoc/schema"
)

// Constraints are the validation facts declared for one member.
type Constraints struct {
	Required   bool
	Deprecated bool

	// Size is the length range, else numeric range, else decimal range.
	Size *schema.SizeRange

	// Format is the date layout, else serialization format, else regex.
	Format string

	// Layout is the date layout or serialization format alone, suitable for
	// rendering example dates. Empty when Format is a regular expression.
	Layout string
}

// ExtractConstraints reads the constraints a struct tag declares for a member
// of the given kind. doc is the member's own comment and may be nil.
func ExtractConstraints(tag reflect.StructTag, kind schema.Kind, multiple bool, doc *docs.Comment) Constraints {
	var c Constraints
	numeric := kind.Numeric() && !multiple

	var length, value, decimal bounds
	for _, r := range validateRules(tag) {
		switch r.name {
		case "required":
			c.Required = true
		case "len":
			if !numeric {
				length.setMin(r.param)
				length.setMax(r.param)
			}
		case "min":
			if numeric {
				value.setMin(r.param)
			} else {
				length.setMin(r.param)
			}
		case "max":
			if numeric {
				value.setMax(r.param)
			} else {
				length.setMax(r.param)
			}
		case "gte":
			decimal.setMin(r.param)
		case "lte":
			decimal.setMax(r.param)
		case "datetime":
			if c.Layout == "" {
				c.Layout = r.param
			}
		}
	}
	if length.min != nil && *length.min > 0 {
		c.Required = true
	}
	if _, ok := tagOption(tag, tagSchema, "required"); ok {
		c.Required = true
	}

	for _, b := range []bounds{length, value, decimal} {
		if !b.empty() {
			c.Size = &schema.SizeRange{Min: b.min, Max: b.max, Numeric: kind.Numeric() && !multiple}
			break
		}
	}

	if layout := tag.Get(tagTimeFormat); layout != "" {
		c.Layout = layout
	}
	if c.Layout == "" {
		if f, ok := tagOption(tag, tagJSON, "format"); ok {
			c.Layout = f
		}
	}
	c.Format = c.Layout
	if c.Format == "" {
		c.Format = tag.Get(tagPattern)
	}

	deprecated, _ := strconv.ParseBool(tag.Get(tagDeprecated))
	c.Deprecated = deprecated || doc.IsDeprecated()
	return c
}

type bounds struct {
	min, max *float64
}

func (b *bounds) setMin(s string) {
	if v, ok := parseBound(s); ok {
		b.min = v
	}
}

func (b *bounds) setMax(s string) {
	if v, ok := parseBound(s); ok {
		b.max = v
	}
}

func (b bounds) empty() bool {
	return b.min == nil && b.max == nil
}
