// Package apidocgen generates API documents from an App or from source.
//
// Example:
//
//	res, err := apidocgen.FromApp(app).
//	    Title("Users API").
//	    Include("example.com/users.").
//	    ToDir(ctx, "./docs")
package apidocgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidocgen/sink"
	"github.com/broady/apidoc/docs"
	"github.com/broady/apidoc/internal/discover"
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/provider"
	"github.com/broady/apidoc/schema"
)

// DefaultFileName is the name of the written document.
const DefaultFileName = "apidoc.json"

// Generator provides a fluent API for document generation.
// Create with FromApp or FromPackages and configure with method chaining.
type Generator struct {
	app      *apidoc.App
	packages []string
	dir      string

	cfg        apidoc.Config
	fileName   string
	operations []string
	logger     *slog.Logger
	opts       []apidoc.Option
	err        error
}

// FromApp creates a Generator for the operations registered on app.
func FromApp(app *apidoc.App) *Generator {
	return &Generator{app: app, fileName: DefaultFileName}
}

// FromPackages creates a Generator for the //apidoc:api operations declared
// in the given package patterns.
func FromPackages(patterns ...string) *Generator {
	return &Generator{packages: patterns, fileName: DefaultFileName}
}

// Dir sets the directory packages and documentation are loaded from.
func (g *Generator) Dir(dir string) *Generator {
	g.dir = dir
	return g
}

// Config replaces the analysis configuration.
func (g *Generator) Config(cfg apidoc.Config) *Generator {
	g.cfg = cfg
	return g
}

// ConfigFile loads the analysis configuration from a YAML file.
// Errors are reported by Generate.
func (g *Generator) ConfigFile(path string) *Generator {
	cfg, err := apidoc.LoadConfig(path)
	if err != nil {
		g.err = err
		return g
	}
	g.cfg = cfg
	return g
}

// Title sets the document title. It defaults to the module path.
func (g *Generator) Title(title string) *Generator {
	g.cfg.Title = title
	return g
}

// Include adds qualified name prefixes of parameter types to flatten.
// Without any, the prefixes default to the analysed modules, or to the
// packages declaring the operations.
func (g *Generator) Include(prefixes ...string) *Generator {
	g.cfg.IncludeNamePrefixes = append(g.cfg.IncludeNamePrefixes, prefixes...)
	return g
}

// SnakeCase converts member names without an explicit name to snake_case.
func (g *Generator) SnakeCase() *Generator {
	g.cfg.EnableNameCaseConversion = true
	return g
}

// Workers bounds the number of operations analysed at once.
func (g *Generator) Workers(n int) *Generator {
	g.cfg.Workers = n
	return g
}

// Operations restricts generation to the named operations.
func (g *Generator) Operations(names ...string) *Generator {
	g.operations = append(g.operations, names...)
	return g
}

// FileName sets the name of the written document.
func (g *Generator) FileName(name string) *Generator {
	g.fileName = name
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

// With adds Analyzer options, e.g. apidoc.WithTracerProvider.
func (g *Generator) With(opts ...apidoc.Option) *Generator {
	g.opts = append(g.opts, opts...)
	return g
}

// Result is the outcome of a generation.
type Result struct {
	*apidoc.Result

	// Warnings are the non-fatal issues found while converting types.
	Warnings []ir.Warning
}

// input is the collected operations and their analysis collaborators.
type input struct {
	ops      []*ir.Operation
	modules  []string
	lookup   docs.Lookup
	probe    apidoc.Option
	warnings []ir.Warning
}

// Generate analyses the operations and returns the document in memory.
// Operations that fail are reported in Result.Failures and left out of the
// document.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	if g.err != nil {
		return nil, g.err
	}
	in, err := g.collect(ctx)
	if err != nil {
		return nil, err
	}
	ops, err := discover.Select(in.ops, g.operations)
	if err != nil {
		return nil, err
	}

	cfg := g.cfg
	if len(cfg.IncludeNamePrefixes) == 0 {
		cfg.IncludeNamePrefixes = discover.IncludePrefixes(in.modules, ops)
	}
	if cfg.Title == "" && len(in.modules) > 0 {
		cfg.Title = in.modules[0]
	}

	logger := g.log()
	opts := []apidoc.Option{apidoc.WithLogger(logger), apidoc.WithDocs(in.lookup)}
	if in.probe != nil {
		opts = append(opts, in.probe)
	}
	analyzer, err := apidoc.NewAnalyzer(cfg, append(opts, g.opts...)...)
	if err != nil {
		return nil, err
	}

	for _, w := range in.warnings {
		logger.Warn(w.Message, slog.String("code", w.Code), slog.String("type", w.TypeName))
	}
	res, err := analyzer.AnalyzeAll(ctx, ops)
	if err != nil {
		return nil, err
	}
	return &Result{Result: res, Warnings: in.warnings}, nil
}

func (g *Generator) collect(ctx context.Context) (*input, error) {
	lookup := docs.NewSourceLookup(docs.WithDir(g.dir))
	if g.app != nil {
		return &input{
			ops:      g.app.Operations(),
			lookup:   lookup,
			probe:    apidoc.WithProbe(g.app.Types().Probe()),
			warnings: g.app.Types().Warnings(),
		}, nil
	}

	p := &provider.SourceProvider{}
	src, err := p.Load(ctx, provider.SourceInputOptions{Packages: g.packages, Dir: g.dir})
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	src.Prime(lookup)
	return &input{
		ops:      src.Operations(),
		modules:  src.Modules(),
		lookup:   lookup,
		warnings: src.Warnings(),
	}, nil
}

// ToSink generates the document and writes it to s. The document is written
// even when some operations failed.
func (g *Generator) ToSink(ctx context.Context, s sink.Sink) (*Result, error) {
	res, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	data, err := schema.Marshal(res.Document)
	if err != nil {
		return nil, err
	}
	if err := s.WriteFile(ctx, g.fileName, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", g.fileName, err)
	}
	return res, nil
}

// ToDir generates the document into dir.
func (g *Generator) ToDir(ctx context.Context, dir string) (*Result, error) {
	return g.ToSink(ctx, sink.NewDir(dir))
}

func (g *Generator) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}
