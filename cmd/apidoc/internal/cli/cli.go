// Package cli holds what the apidoc commands share: global flags, logging,
// configuration merging and host selection.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidocgen"
	"github.com/broady/apidoc/internal/discover"
	"github.com/broady/apidoc/internal/runner"
	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
	"gopkg.in/yaml.v3"
)

// Globals are the flags shared by every command.
type Globals struct {
	Verbose bool   `help:"Log debug output." short:"v"`
	NoColor bool   `help:"Disable colored output." name:"no-color" env:"NO_COLOR"`
	Config  string `help:"YAML configuration file." short:"c" type:"existingfile"`
}

// Logger returns the logger for g, writing to stderr.
func (g *Globals) Logger() *slog.Logger {
	level := slog.LevelInfo
	if g.Verbose {
		level = slog.LevelDebug
	}
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    g.NoColor,
	})
	return slog.New(slogctx.NewHandler(h, nil))
}

// Target selects what to analyse. Its flags are embedded in gen and check.
type Target struct {
	Package    string   `help:"Package to analyse (default: current directory)." short:"p" default:"."`
	Export     string   `help:"Export function name (required if multiple exports exist)." short:"e"`
	Operations []string `help:"Only analyse these operations." short:"o" name:"operation"`

	Title     string   `help:"Document title."`
	Include   []string `help:"Qualified name prefixes of parameter types to document."`
	SnakeCase bool     `help:"Convert untagged member names to snake_case." name:"snake-case"`
	Workers   int      `help:"Operations analysed concurrently (0: GOMAXPROCS)."`
}

// Config merges the configuration file of g with the flags of t. Flags win.
func (t *Target) Config(g *Globals) (apidoc.Config, error) {
	var cfg apidoc.Config
	if g.Config != "" {
		c, err := apidoc.LoadConfig(g.Config)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if t.Title != "" {
		cfg.Title = t.Title
	}
	if len(t.Include) > 0 {
		cfg.IncludeNamePrefixes = t.Include
	}
	if t.SnakeCase {
		cfg.EnableNameCaseConversion = true
	}
	if t.Workers != 0 {
		cfg.Workers = t.Workers
	}
	return cfg, cfg.Validate()
}

// Host is a resolved analysis target.
type Host struct {
	Found  *discover.Result
	Export *discover.Export // nil for the source host
	Config apidoc.Config
	target *Target
	logger *slog.Logger
}

// Resolve discovers the package of t and decides how to analyse it: by
// running its export function, or from source when it has none.
func Resolve(g *Globals, t *Target) (*Host, error) {
	cfg, err := t.Config(g)
	if err != nil {
		return nil, err
	}
	found, err := discover.Find(t.Package)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	h := &Host{Found: found, Config: cfg, target: t, logger: g.Logger()}

	export, err := discover.SelectExport(found.Exports, t.Export)
	switch {
	case errors.Is(err, discover.ErrNoExport):
		h.logger.Debug("no export function; analysing directives", slog.String("package", found.PackagePath))
	case err != nil:
		return nil, err
	default:
		h.logger.Debug("using export", slog.String("export", export.Name), slog.String("type", export.Type.String()))
		h.Export = export
	}
	return h, nil
}

// generator returns the in-process generator of the source host.
func (h *Host) generator() *apidocgen.Generator {
	return apidocgen.FromPackages(h.Found.PackagePath).
		Dir(h.Found.Dir).
		Config(h.Config).
		Operations(h.target.Operations...).
		WithLogger(h.logger)
}

// Generate writes the document into outDir.
func (h *Host) Generate(ctx context.Context, outDir string) (*apidocgen.Report, error) {
	if h.Export == nil {
		res, err := h.generator().ToDir(ctx, outDir)
		if err != nil {
			return nil, err
		}
		return res.Report(), nil
	}
	if _, err := h.exec(ctx, outDir, false); err != nil {
		return nil, err
	}
	return nil, nil
}

// Check analyses without writing and returns the report.
func (h *Host) Check(ctx context.Context) (*apidocgen.Report, error) {
	if h.Export == nil {
		res, err := h.generator().Generate(ctx)
		if err != nil {
			return nil, err
		}
		return res.Report(), nil
	}
	out, err := h.exec(ctx, "", true)
	if err != nil {
		return nil, err
	}
	return apidocgen.ReadReport(out)
}

func (h *Host) exec(ctx context.Context, outDir string, check bool) ([]byte, error) {
	cfgPath, err := h.writeConfig()
	if err != nil {
		return nil, err
	}
	defer os.Remove(cfgPath)

	return runner.Exec(ctx, runner.Options{
		Export:     *h.Export,
		OutDir:     outDir,
		ConfigPath: cfgPath,
		Operations: h.target.Operations,
		CheckMode:  check,
		Main:       h.Found.Main,
		PkgDir:     h.Found.Dir,
		PkgPath:    h.Found.PackagePath,
		ModuleDir:  h.Found.ModuleDir,
	})
}

// writeConfig hands the merged configuration to the runner as a file.
func (h *Host) writeConfig() (string, error) {
	data, err := yaml.Marshal(h.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	f, err := os.CreateTemp("", "apidoc-config-*.yaml")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return filepath.Abs(f.Name())
}
