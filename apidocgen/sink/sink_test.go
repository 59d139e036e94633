package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path   string
		errMsg string
	}{
		{path: "apidoc.json"},
		{path: "docs/v1/apidoc.json"},
		{path: "a..b/file.json"},
		{path: "", errMsg: "empty"},
		{path: "/abs/file.json", errMsg: "absolute"},
		{path: "C:/file.json", errMsg: "absolute"},
		{path: "../file.json", errMsg: "traversal"},
		{path: "a/../b.json", errMsg: "traversal"},
		{path: "./file.json", errMsg: "not clean"},
		{path: "a//b.json", errMsg: "not clean"},
		{path: "a/b/", errMsg: "not clean"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("ValidatePath(%q) = %v", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidatePath(%q) = %v, want error containing %q", tt.path, err, tt.errMsg)
			}
		})
	}
}

func TestDirWriteFile(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root)
	ctx := context.Background()

	if err := d.WriteFile(ctx, "v1/apidoc.json", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteFile(ctx, "v1/apidoc.json", []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(root, "v1", "apidoc.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("content = %s", got)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "v1"))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestDirNoClobber(t *testing.T) {
	root := t.TempDir()
	d := &Dir{Root: root, NoClobber: true}
	ctx := context.Background()

	if err := d.WriteFile(ctx, "apidoc.json", []byte("first")); err != nil {
		t.Fatal(err)
	}
	err := d.WriteFile(ctx, "apidoc.json", []byte("second"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("err = %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(root, "apidoc.json"))
	if string(got) != "first" {
		t.Errorf("content = %s", got)
	}
}

func TestDirCanceled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewDir(root).WriteFile(ctx, "apidoc.json", nil); err != context.Canceled {
		t.Errorf("err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "apidoc.json")); !os.IsNotExist(err) {
		t.Error("file written after cancel")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	content := []byte("doc")
	if err := m.WriteFile(ctx, "b.json", content); err != nil {
		t.Fatal(err)
	}
	content[0] = 'X'
	if string(m.Get("b.json")) != "doc" {
		t.Error("Memory should copy written content")
	}
	if m.Get("missing") != nil {
		t.Error("Get of a missing path should be nil")
	}

	var wg sync.WaitGroup
	for _, p := range []string{"a.json", "c.json", "d/e.json"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.WriteFile(ctx, p, []byte(p))
		}()
	}
	wg.Wait()

	if got := strings.Join(m.Paths(), ","); got != "a.json,b.json,c.json,d/e.json" {
		t.Errorf("Paths() = %s", got)
	}
	if err := m.WriteFile(ctx, "../x", nil); err == nil {
		t.Error("expected invalid path error")
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFile(context.Background(), "apidoc.json", []byte("{}\n")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("output = %q", buf.String())
	}
}
