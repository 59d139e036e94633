package docs

import "context"

// TypeDoc holds the documentation of a declared type and its members.
type TypeDoc struct {
	// Comment is the type's own doc comment.
	Comment *Comment

	// Members maps struct field names and enum constant names to their
	// doc comments.
	Members map[string]*Comment

	// Methods maps method names to their doc comments.
	Methods map[string]*Comment
}

// Member returns the comment of the named field or constant, or nil.
func (d *TypeDoc) Member(name string) *Comment {
	if d == nil {
		return nil
	}
	return d.Members[name]
}

// Method returns the comment of the named method, or nil.
func (d *TypeDoc) Method(name string) *Comment {
	if d == nil {
		return nil
	}
	return d.Methods[name]
}

// Lookup finds documentation by declaring package and name. Lookups that
// find nothing return nil; callers treat that as empty documentation.
// Implementations must be safe for concurrent use.
type Lookup interface {
	// Type returns the documentation of the named type.
	Type(ctx context.Context, pkgPath, name string) *TypeDoc

	// Func returns the documentation of a package-level function.
	Func(ctx context.Context, pkgPath, name string) *Comment
}

// Nop is a Lookup that never finds anything.
type Nop struct{}

func (Nop) Type(context.Context, string, string) *TypeDoc { return nil }
func (Nop) Func(context.Context, string, string) *Comment { return nil }

// Static is an in-memory Lookup keyed by "pkgPath.Name". It is read-only
// after construction.
type Static struct {
	Types map[string]*TypeDoc
	Funcs map[string]*Comment
}

// Type implements Lookup.
func (s *Static) Type(_ context.Context, pkgPath, name string) *TypeDoc {
	return s.Types[qualify(pkgPath, name)]
}

// Func implements Lookup.
func (s *Static) Func(_ context.Context, pkgPath, name string) *Comment {
	return s.Funcs[qualify(pkgPath, name)]
}

// Chain consults each Lookup in order and returns the first hit.
type Chain []Lookup

// Type implements Lookup.
func (c Chain) Type(ctx context.Context, pkgPath, name string) *TypeDoc {
	for _, l := range c {
		if d := l.Type(ctx, pkgPath, name); d != nil {
			return d
		}
	}
	return nil
}

// Func implements Lookup.
func (c Chain) Func(ctx context.Context, pkgPath, name string) *Comment {
	for _, l := range c {
		if d := l.Func(ctx, pkgPath, name); d != nil {
			return d
		}
	}
	return nil
}

func qualify(pkgPath, name string) string {
	if pkgPath == "" {
		return name
	}
	return pkgPath + "." + name
}
