// Package analysis turns operation signatures into schema trees. It
// classifies types, resolves generic bindings, applies naming strategies,
// extracts constraints, synthesizes defaults and examples, and expands
// compound types recursively with a bounded unfold for self-referencing types.
package analysis

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/broady/apidoc/docs"
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
	"github.com/hashicorp/go-multierror"
	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/text/language"
)

// DefaultSkipTypes are parameter types supplied by the framework rather than
// by the caller. They never appear in a schema.
var DefaultSkipTypes = []string{
	"context.Context",
	"net/http.Request",
	"net/http.ResponseWriter",
	"error",
}

// AllMethods is the method set of operations that do not restrict methods.
var AllMethods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "TRACE"}

// Options configures a Builder. The zero value is usable.
type Options struct {
	// IncludeNamePrefixes selects which compound parameter types are
	// flattened into their members. A type is included when its qualified
	// name ("example.com/api.User") starts with one of the prefixes.
	IncludeNamePrefixes []string

	// EnableNameCaseConversion converts member names to snake case when no
	// other naming rule applies.
	EnableNameCaseConversion bool

	// Docs supplies doc comments. Nil means no documentation.
	Docs docs.Lookup

	// Probe reads constructed default values. Nil means tag defaults only.
	Probe DefaultProbe

	// Strategies overrides the naming strategies. Nil means DefaultStrategies.
	Strategies Strategies

	// SkipTypes overrides DefaultSkipTypes.
	SkipTypes []string

	// Clock, Locale and Location make examples reproducible. They default
	// to time.Now, en-US and UTC.
	Clock    func() time.Time
	Locale   language.Tag
	Location *time.Location
}

// Builder builds schema trees. It is safe for concurrent use; every call
// keeps its own visited stack.
type Builder struct {
	opts       Options
	docs       docs.Lookup
	strategies Strategies
	skip       map[string]bool
}

// New returns a Builder for opts.
func New(opts Options) *Builder {
	b := &Builder{
		opts:       opts,
		docs:       opts.Docs,
		strategies: opts.Strategies,
		skip:       make(map[string]bool),
	}
	if b.docs == nil {
		b.docs = docs.Nop{}
	}
	if b.strategies == nil {
		b.strategies = DefaultStrategies()
	}
	if b.opts.Locale == language.Und {
		b.opts.Locale = language.AmericanEnglish
	}
	skip := opts.SkipTypes
	if skip == nil {
		skip = DefaultSkipTypes
	}
	for _, k := range skip {
		b.skip[k] = true
	}
	return b
}

// MemberError is a failure to build one member.
type MemberError struct {
	// Path is the dotted member path within its parameter or return value.
	Path string
	Err  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %s: %v", e.Path, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

// Operation analyses op. Members that fail to build are collected; if any
// did, the operation fails with a *multierror.Error of *MemberError.
func (b *Builder) Operation(ctx context.Context, op *ir.Operation) (*schema.Operation, error) {
	w := &walk{ctx: withMemo(ctx), b: b}

	var recv *docs.TypeDoc
	var doc *docs.Comment
	if op.Receiver != nil {
		recv = b.typeDoc(ctx, deref(op.Receiver))
		doc = recv.Method(op.Name)
	} else {
		doc = b.docs.Func(ctx, op.Package, op.Name)
	}
	var recvComment *docs.Comment
	if recv != nil {
		recvComment = recv.Comment
	}

	out := &schema.Operation{
		Key:        op.Key,
		Name:       op.Name,
		Group:      b.group(op, recvComment),
		Path:       op.Path,
		Methods:    op.Methods,
		Deprecated: doc.IsDeprecated() || recvComment.IsDeprecated(),
		Author:     note(doc, recvComment, "author"),
		Version:    note(doc, recvComment, "version"),
		Date:       note(doc, recvComment, "date"),
		Parameters: []*schema.Member{},
	}
	if doc != nil {
		if doc.Outline != "" {
			out.Name = doc.Outline
		}
		out.Description = doc.Description
	}
	if len(out.Methods) == 0 {
		out.Methods = slices.Clone(AllMethods)
	}

	body := false
	for i, p := range op.Params {
		if b.skipParam(p) {
			continue
		}
		body = body || hasBodyMarker(p.Tag)
		out.Parameters = append(out.Parameters, w.param(i, p, doc)...)
	}
	out.ContentType = contentType(body, out.Parameters)

	for _, r := range op.Results {
		if deref(r).ID() == "error" {
			continue
		}
		out.Return = w.result(r, doc)
		break
	}

	if err := w.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Members builds the schema tree below t. An atomic t yields a single leaf.
func (b *Builder) Members(ctx context.Context, t *ir.Type, env Bindings) ([]*schema.Member, error) {
	w := &walk{ctx: withMemo(ctx), b: b}
	d := Resolve(t, env)
	var ms []*schema.Member
	if Atomic(d.Original) {
		m := &schema.Member{}
		w.describe("", m, d, "")
		ms = []*schema.Member{m}
	} else {
		w.push(d.Original)
		ms = w.members("", d.Original, d.Bindings)
		w.pop()
	}
	return ms, w.err()
}

func (b *Builder) group(op *ir.Operation, recv *docs.Comment) string {
	switch {
	case op.Service != "":
		return op.Service
	case recv != nil && recv.Outline != "":
		return recv.Outline
	case op.Receiver != nil:
		return typeName(deref(op.Receiver))
	}
	return op.Package[strings.LastIndexByte(op.Package, '/')+1:]
}

func (b *Builder) skipParam(p ir.Param) bool {
	return ignored(p.Tag) || b.skip[deref(p.Type).ID()]
}

// owned reports whether a compound parameter type is flattened into the
// operation's parameters.
func (b *Builder) owned(t *ir.Type) bool {
	key := t.ID()
	for _, prefix := range b.opts.IncludeNamePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (b *Builder) typeDoc(ctx context.Context, t *ir.Type) *docs.TypeDoc {
	if t == nil || !t.Named() {
		return nil
	}
	shape := t.Shape()
	return b.docs.Type(ctx, shape.Package, typeName(shape))
}

// typeName is the declared name without reflection-style type arguments.
func typeName(t *ir.Type) string {
	name, _, _ := strings.Cut(t.Name, "[")
	return name
}

func note(doc, fallback *docs.Comment, tag string) string {
	if n := doc.Note(tag); n != "" {
		return n
	}
	return fallback.Note(tag)
}

func contentType(body bool, params []*schema.Member) string {
	if body {
		return schema.ContentJSON
	}
	if len(params) == 0 {
		return ""
	}
	file := false
	for _, p := range params {
		p.Walk(func(_ []string, m *schema.Member) bool {
			file = file || m.Kind == schema.KindFile
			return !file
		})
	}
	if file {
		return schema.ContentMultipart
	}
	return schema.ContentForm
}

// walk is the state of one analysis: the visited stack of compound types
// being expanded and the member failures seen so far.
type walk struct {
	ctx   context.Context
	b     *Builder
	stack []string
	errs  *multierror.Error
}

func (w *walk) push(t *ir.Type) { w.stack = append(w.stack, t.ID()) }
func (w *walk) pop()            { w.stack = w.stack[:len(w.stack)-1] }

// recursing reports whether t is already expanded more than once above the
// current member. One extra unfold of a self-referencing type is allowed.
func (w *walk) recursing(t *ir.Type) bool {
	key := t.ID()
	n := 0
	for _, k := range w.stack {
		if k == key {
			n++
		}
	}
	return n > 1
}

func (w *walk) fail(path string, err error) {
	w.errs = multierror.Append(w.errs, &MemberError{Path: path, Err: err})
}

func (w *walk) err() error {
	return w.errs.ErrorOrNil()
}

func (w *walk) param(index int, p ir.Param, doc *docs.Comment) []*schema.Member {
	d := Resolve(p.Type, nil)
	name := paramName(p, index)
	if !Atomic(d.Original) {
		if !w.b.owned(d.Original) {
			slogctx.FromCtx(w.ctx).Debug("parameter not documented",
				slog.String("parameter", name),
				slog.String("type", d.Original.String()))
			return nil
		}
		w.push(d.Original)
		defer w.pop()
		return w.members("", d.Original, d.Bindings)
	}

	declared := p.Name
	if declared == "" {
		declared = name
	}
	m := &schema.Member{Name: name, Description: doc.Param(declared)}
	c := ExtractConstraints(p.Tag, Classify(d.Original), d.Multiple, nil)
	apply(m, c)
	if def, ok := tagOption(p.Tag, tagSchema, "default"); ok && def != "" {
		m.Default = def
	}
	w.describe(name, m, d, c.Layout)
	return []*schema.Member{m}
}

func (w *walk) result(t *ir.Type, doc *docs.Comment) *schema.Member {
	m := &schema.Member{Description: doc.Note("return")}
	w.describe("", m, Resolve(t, nil), "")
	if ex := doc.Note("example"); ex != "" {
		m.Example = ex
	}
	return m
}

// declared is a member found while enumerating a type, with the type that
// declares it and the bindings in effect there.
type declared struct {
	field    ir.Field
	owner    *ir.Type
	bindings Bindings
}

// members builds one Member per documented member of the compound type t.
func (w *walk) members(path string, t *ir.Type, env Bindings) []*schema.Member {
	decls := w.b.enumerate(t, env, make(map[string]bool), nil)
	if t.Polymorphism != nil {
		for _, sub := range t.Polymorphism.Subtypes {
			sub = deref(sub)
			for _, f := range sub.Members() {
				if f.Embedded || !token.IsExported(f.Name) || ignored(f.Tag) {
					continue
				}
				decls = append(decls, declared{field: f, owner: sub, bindings: bindingsOf(sub, nil)})
			}
		}
	}

	ms := make([]*schema.Member, 0, len(decls))
	for _, decl := range decls {
		ms = append(ms, w.field(path, decl))
	}
	return ms
}

// enumerate lists the members of t followed by those of its embedded
// ancestors, depth first. Ancestors that are atomic or containers are not
// walked; they are members in their own right.
func (b *Builder) enumerate(t *ir.Type, env Bindings, seen map[string]bool, out []declared) []declared {
	key := t.ID()
	if seen[key] {
		return out
	}
	seen[key] = true

	var ancestors []Descriptor
	for _, f := range t.Members() {
		if ignored(f.Tag) {
			continue
		}
		if f.Embedded && tagName(f.Tag, tagJSON) == "" {
			d := Resolve(f.Type, env)
			if !d.Multiple && !Atomic(d.Original) {
				ancestors = append(ancestors, d)
				continue
			}
		}
		if !token.IsExported(f.Name) {
			continue
		}
		out = append(out, declared{field: f, owner: t, bindings: env})
	}
	for _, a := range ancestors {
		out = b.enumerate(a.Original, a.Bindings, seen, out)
	}
	return out
}

func (w *walk) field(parent string, decl declared) *schema.Member {
	f := decl.field
	name := w.b.memberName(f)
	path := name
	if parent != "" {
		path = parent + "." + name
	}

	doc := w.b.typeDoc(w.ctx, decl.owner).Member(f.Name)

	d := Resolve(f.Type, decl.bindings)
	m := &schema.Member{Name: name, Description: doc.Text()}
	c := ExtractConstraints(f.Tag, Classify(d.Original), d.Multiple, doc)
	apply(m, c)

	if Atomic(d.Original) {
		def, err := w.b.defaultValue(w.ctx, decl.owner, f)
		if err != nil {
			w.fail(path, err)
		}
		m.Default = def
	}

	w.describe(path, m, d, c.Layout)
	if ex := doc.Note("example"); ex != "" {
		m.Example = ex
	}
	return m
}

// describe fills in the type-derived parts of m: kind, cardinality,
// options, children and example.
func (w *walk) describe(path string, m *schema.Member, d Descriptor, layout string) {
	m.Type = d.Type.String()
	m.Multiple = d.Multiple
	m.Original = d.Original

	if d.Elem != nil {
		items := &schema.Member{}
		w.describe(path, items, *d.Elem, layout)
		m.Items = items
		m.Kind = items.Kind
		m.Example = w.b.example(m, layout)
		return
	}

	m.Kind = Classify(d.Original)
	m.Options = w.b.enumOptions(w.ctx, d.Original)
	if !Atomic(d.Original) {
		if w.recursing(d.Original) {
			m.Children = []*schema.Member{}
			m.Recursive = true
		} else {
			w.push(d.Original)
			m.Children = w.members(path, d.Original, d.Bindings)
			w.pop()
		}
	}
	m.Example = w.b.example(m, layout)
}

func apply(m *schema.Member, c Constraints) {
	m.Required = c.Required
	m.Deprecated = c.Deprecated
	m.Size = c.Size
	m.Format = c.Format
}
