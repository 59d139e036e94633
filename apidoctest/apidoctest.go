// Package apidoctest provides helpers for testing the documentation of an
// apidoc.App.
//
//	doc := apidoctest.Analyze(t, setupApp(), apidoc.Config{IncludeNamePrefixes: prefixes})
//	op := apidoctest.Operation(t, doc, "users.Get")
//	apidoctest.AssertParams(t, op, "id")
//	apidoctest.AssertGolden(t, doc, "testdata/apidoc.json")
package apidoctest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/schema"
	"github.com/google/go-cmp/cmp"
)

// UpdateEnv is the environment variable that makes AssertGolden rewrite
// golden files instead of comparing against them.
const UpdateEnv = "APIDOC_UPDATE_GOLDEN"

// Analyze documents every operation of app and fails t if any operation
// cannot be analysed.
func Analyze(t testing.TB, app *apidoc.App, cfg apidoc.Config, opts ...apidoc.Option) *schema.Document {
	t.Helper()
	a, err := apidoc.NewAnalyzer(cfg, append([]apidoc.Option{apidoc.WithProbe(app.Types().Probe())}, opts...)...)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	res, err := a.AnalyzeAll(context.Background(), app.Operations())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, f := range res.Failures {
		t.Errorf("operation %s failed: %v", f.Key, f.Err)
	}
	if len(res.Failures) > 0 {
		t.FailNow()
	}
	return res.Document
}

// Operation returns the operation with the given key.
func Operation(t testing.TB, doc *schema.Document, key string) *schema.Operation {
	t.Helper()
	for _, op := range doc.Operations {
		if op.Key == key {
			return op
		}
	}
	keys := make([]string, 0, len(doc.Operations))
	for _, op := range doc.Operations {
		keys = append(keys, op.Key)
	}
	t.Fatalf("operation %q not documented; have %s", key, strings.Join(keys, ", "))
	return nil
}

// AssertParams checks the parameter names of op, in order.
func AssertParams(t testing.TB, op *schema.Operation, names ...string) {
	t.Helper()
	got := make([]string, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		got = append(got, p.Name)
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("%s parameters (-want +got):\n%s", op.Key, diff)
	}
}

// Member returns the member of op at path. The first path element names a
// parameter, or is "return" for the return value.
func Member(t testing.TB, op *schema.Operation, path string) *schema.Member {
	t.Helper()
	head, rest, _ := strings.Cut(path, ".")
	var m *schema.Member
	if head == "return" {
		m = op.Return
	} else {
		m = op.Parameter(head)
	}
	if m != nil && rest != "" {
		m = m.Find(rest)
	}
	if m == nil {
		t.Fatalf("%s has no member %q", op.Key, path)
	}
	return m
}

// AssertGolden compares the JSON encoding of v with the golden file at path.
// With UpdateEnv set, the file is rewritten instead.
func AssertGolden(t testing.TB, v any, path string) {
	t.Helper()
	got, err := schema.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if os.Getenv(UpdateEnv) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden file (set %s=1 to create it): %v", UpdateEnv, err)
	}
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", path, diff)
	}
}
