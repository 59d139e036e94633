package analysis

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
)

// ErrNoConstructor is returned by a DefaultProbe when the declaring type
// cannot be instantiated. It means "no default", not failure.
var ErrNoConstructor = errors.New("no usable constructor")

// DefaultProbe reads the value a member holds on a freshly constructed
// instance of its declaring type. ok is false when the host cannot tell.
// Errors other than ErrNoConstructor fail the operation being analysed.
type DefaultProbe interface {
	Default(ctx context.Context, owner *ir.Type, field ir.Field) (value any, ok bool, err error)
}

type memoKey struct{}

type memoResult struct {
	v   any
	err error
}

// withMemo returns ctx carrying an empty memo for one analysis walk.
func withMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, make(map[any]memoResult))
}

// Memo returns the result of build for key, calling build at most once
// while one operation is analysed. DefaultProbe implementations use it to
// construct each declaring type once rather than once per member. Outside
// an analysis build is called every time.
func Memo(ctx context.Context, key any, build func() (any, error)) (any, error) {
	memo, _ := ctx.Value(memoKey{}).(map[any]memoResult)
	if r, ok := memo[key]; ok {
		return r.v, r.err
	}
	v, err := build()
	if memo != nil {
		memo[key] = memoResult{v, err}
	}
	return v, err
}

// defaultValue returns the default of a field, nil when there is none.
func (b *Builder) defaultValue(ctx context.Context, owner *ir.Type, f ir.Field) (v any, err error) {
	if b.opts.Probe != nil {
		v, ok, err := b.probe(ctx, owner, f)
		switch {
		case errors.Is(err, ErrNoConstructor):
		case err != nil:
			return nil, err
		case ok && !zeroValue(v):
			return v, nil
		}
	}
	if d, ok := tagOption(f.Tag, tagSchema, "default"); ok && d != "" {
		return d, nil
	}
	return nil, nil
}

// probe calls the configured probe. A panicking constructor becomes an error
// for the member being built.
func (b *Builder) probe(ctx context.Context, owner *ir.Type, f ir.Field) (v any, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructing %s: panic: %v", owner, r)
		}
	}()
	return b.opts.Probe.Default(ctx, owner, f)
}

func zeroValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map {
		return rv.Len() == 0
	}
	return rv.IsZero()
}

// enumOptions lists the options of an enumeration type in declaration order.
// String enumerations use their values as keys, others their constant names.
func (b *Builder) enumOptions(ctx context.Context, t *ir.Type) []schema.Option {
	t = deref(t)
	if t == nil {
		return nil
	}
	shape := t.Shape()
	if len(shape.Enum) == 0 {
		return nil
	}
	td := b.docs.Type(ctx, shape.Package, shape.Name)
	opts := make([]schema.Option, 0, len(shape.Enum))
	for _, e := range shape.Enum {
		key := e.Name
		if s, ok := e.Value.(string); ok && shape.Kind == ir.KindString {
			key = s
		}
		doc := td.Member(e.Name)
		opts = append(opts, schema.Option{
			Key:         key,
			Description: doc.Text(),
			Deprecated:  doc.IsDeprecated(),
		})
	}
	return opts
}

// example returns the sample value of a member whose children, options and
// items are already filled in.
func (b *Builder) example(m *schema.Member, layout string) string {
	if m.Items != nil {
		return "[" + m.Items.Example + "]"
	}
	single := b.singleExample(m, layout)
	if !m.Multiple {
		return single
	}
	if single == "" {
		return "[]"
	}
	return "[" + single + "]"
}

func (b *Builder) singleExample(m *schema.Member, layout string) string {
	if m.Children != nil {
		var sb strings.Builder
		sb.WriteByte('{')
		for i, c := range m.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(c.Name))
			sb.WriteByte(':')
			if c.Example == "" {
				sb.WriteString("null")
			} else {
				sb.WriteString(c.Example)
			}
		}
		sb.WriteByte('}')
		return sb.String()
	}

	switch m.Kind {
	case schema.KindBoolean:
		return "true"
	case schema.KindInteger:
		return "1"
	case schema.KindFloat:
		return "1.0"
	case schema.KindString, schema.KindEnumObject:
		if len(m.Options) > 0 {
			return strconv.Quote(m.Options[0].Key)
		}
		if t := deref(m.Original); t != nil {
			switch {
			case t.Traits.Has(ir.TraitLocale):
				return strconv.Quote(b.opts.Locale.String())
			case t.Traits.Has(ir.TraitTimeZone):
				return strconv.Quote(b.location().String())
			}
		}
		return `""`
	case schema.KindDate:
		return b.dateExample(layout)
	case schema.KindFile, schema.KindReader, schema.KindWriter:
		return "[1]"
	}
	return ""
}

func (b *Builder) dateExample(layout string) string {
	now := b.now().In(b.location())
	switch strings.ToLower(layout) {
	case "":
		return strconv.FormatInt(now.UnixMilli(), 10)
	case "unix":
		return strconv.FormatInt(now.Unix(), 10)
	case "unixmilli":
		return strconv.FormatInt(now.UnixMilli(), 10)
	case "unixmicro":
		return strconv.FormatInt(now.UnixMicro(), 10)
	case "unixnano":
		return strconv.FormatInt(now.UnixNano(), 10)
	}
	if named, ok := namedLayouts[layout]; ok {
		layout = named
	}
	return strconv.Quote(now.Format(layout))
}

var namedLayouts = map[string]string{
	"ANSIC":       time.ANSIC,
	"UnixDate":    time.UnixDate,
	"RubyDate":    time.RubyDate,
	"RFC822":      time.RFC822,
	"RFC822Z":     time.RFC822Z,
	"RFC850":      time.RFC850,
	"RFC1123":     time.RFC1123,
	"RFC1123Z":    time.RFC1123Z,
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"Kitchen":     time.Kitchen,
	"Stamp":       time.Stamp,
	"DateTime":    time.DateTime,
	"DateOnly":    time.DateOnly,
	"TimeOnly":    time.TimeOnly,
}

func (b *Builder) now() time.Time {
	if b.opts.Clock != nil {
		return b.opts.Clock()
	}
	return time.Now()
}

func (b *Builder) location() *time.Location {
	if b.opts.Location != nil {
		return b.opts.Location
	}
	return time.UTC
}
