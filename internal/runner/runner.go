// Package runner executes a package's export function to generate its
// document with the reflection host.
//
// For a main package it uses the go command's -overlay flag to replace
// main() with a generated one. For any other package it overlays a small
// main package at the module root that imports it.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/broady/apidoc/internal/discover"
)

const runnerFile = "apidoc_runner_main_.go"

// Options configures the runner.
type Options struct {
	Export discover.Export

	// OutDir is the directory the document is written to. Ignored in check
	// mode.
	OutDir string

	// ConfigPath is an optional YAML configuration file, applied to
	// *apidoc.App exports only.
	ConfigPath string

	// Operations restricts generation to the named operations.
	Operations []string

	// CheckMode writes the document to stdout instead of OutDir.
	CheckMode bool

	// Main reports whether the package is a command.
	Main bool

	PkgDir    string
	PkgPath   string
	ModuleDir string
}

// Exec builds and runs the generator. The returned output is the runner's
// stdout; its stderr is copied to stderr.
func Exec(ctx context.Context, opts Options) ([]byte, error) {
	if !opts.Main && !token.IsExported(opts.Export.Name) {
		return nil, fmt.Errorf("export %s must be exported to be called from outside package %s", opts.Export.Name, opts.PkgPath)
	}

	tmpDir, err := os.MkdirTemp("", "apidoc-gen-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	overlay := make(map[string]string)
	buildDir, pkg := opts.PkgDir, "."
	target := filepath.Join(opts.PkgDir, runnerFile)
	if opts.Main {
		if err := stripMains(opts.PkgDir, tmpDir, overlay); err != nil {
			return nil, err
		}
	} else {
		buildDir, pkg = opts.ModuleDir, "./apidoc_runner_"
		target = filepath.Join(opts.ModuleDir, "apidoc_runner_", runnerFile)
	}

	src, err := Generate(opts)
	if err != nil {
		return nil, fmt.Errorf("generate runner: %w", err)
	}
	runnerPath := filepath.Join(tmpDir, runnerFile)
	if err := os.WriteFile(runnerPath, src, 0o644); err != nil {
		return nil, fmt.Errorf("write runner: %w", err)
	}
	overlay[target] = runnerPath

	overlayJSON, err := json.Marshal(struct {
		Replace map[string]string `json:"Replace"`
	}{overlay})
	if err != nil {
		return nil, fmt.Errorf("marshal overlay: %w", err)
	}
	overlayFile := filepath.Join(tmpDir, "overlay.json")
	if err := os.WriteFile(overlayFile, overlayJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write overlay: %w", err)
	}

	binary := filepath.Join(tmpDir, "runner")
	build := exec.CommandContext(ctx, "go", "build", "-mod=mod", "-tags", "apidoc_gen_runner",
		"-overlay", overlayFile, "-o", binary, pkg)
	build.Dir = buildDir
	build.Env = append(os.Environ(), "GOWORK=off")
	if out, err := build.CombinedOutput(); err != nil {
		return out, fmt.Errorf("build: %w\n%s", err, out)
	}

	var stdout bytes.Buffer
	run := exec.CommandContext(ctx, binary)
	run.Dir = opts.PkgDir
	run.Stdout = &stdout
	run.Stderr = os.Stderr
	if err := run.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("run: %w", err)
	}
	return stdout.Bytes(), nil
}

// stripMains overlays every non-test file of dir that declares main() with
// a copy written to tmpDir without it.
func stripMains(dir, tmpDir string, overlay map[string]string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return fmt.Errorf("glob: %w", err)
	}
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		src, ok, err := removeMain(file)
		if err != nil {
			return fmt.Errorf("process %s: %w", file, err)
		}
		if !ok {
			continue
		}
		tmp := filepath.Join(tmpDir, filepath.Base(file))
		if err := os.WriteFile(tmp, src, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", tmp, err)
		}
		overlay[file] = tmp
	}
	return nil
}

// removeMain returns filename's source without func main(), and whether it
// had one.
func removeMain(filename string) ([]byte, bool, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, false, err
	}

	found := false
	decls := f.Decls[:0]
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "main" && fn.Recv == nil {
			found = true
			continue
		}
		decls = append(decls, decl)
	}
	if !found {
		return nil, false, nil
	}
	f.Decls = decls

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

// Generate returns the source of the runner's main package.
func Generate(opts Options) ([]byte, error) {
	var tmpl *template.Template
	switch opts.Export.Type {
	case discover.ExportTypeApp:
		tmpl = appRunner
	case discover.ExportTypeGenerator:
		tmpl = generatorRunner
	default:
		return nil, fmt.Errorf("unknown export type: %v", opts.Export.Type)
	}

	call := opts.Export.Name + "()"
	if !opts.Main {
		call = "export." + call
	}
	quoted := make([]string, len(opts.Operations))
	for i, op := range opts.Operations {
		quoted[i] = strconv.Quote(op)
	}
	data := struct {
		Options
		Call string
		Ops  string
	}{opts, call, strings.Join(quoted, ", ")}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

var appRunner = template.Must(template.New("app").Parse(`//go:build apidoc_gen_runner

package main

import (
	"context"
	"os"

	"github.com/broady/apidoc/apidocgen"
{{- if not .Main}}
	export {{printf "%q" .PkgPath}}
{{- end}}
)

func main() {
	g := apidocgen.FromApp({{.Call}})
{{- if .ConfigPath}}
	g = g.ConfigFile({{printf "%q" .ConfigPath}})
{{- end}}
{{- if .Operations}}
	g = g.Operations({{.Ops}})
{{- end}}
	os.Exit(apidocgen.Run(context.Background(), g, {{.CheckMode}}, {{printf "%q" .OutDir}}))
}
`))

var generatorRunner = template.Must(template.New("generator").Parse(`//go:build apidoc_gen_runner

package main

import (
	"context"
	"os"

	"github.com/broady/apidoc/apidocgen"
{{- if not .Main}}
	export {{printf "%q" .PkgPath}}
{{- end}}
)

func main() {
	g := {{.Call}}
	os.Exit(apidocgen.Run(context.Background(), g, {{.CheckMode}}, {{printf "%q" .OutDir}}))
}
`))
