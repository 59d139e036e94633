package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidocgen"
	"github.com/broady/apidoc/cmd/apidoc/internal/cli"
	"github.com/broady/apidoc/schema"
	"github.com/dustin/go-humanize"
)

type Cmd struct {
	Out string `arg:"" help:"Output directory for apidoc.json." type:"path"`
	cli.Target
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	host, err := cli.Resolve(g, &c.Target)
	if err != nil {
		return err
	}
	outDir, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	rep, err := host.Generate(ctx, outDir)
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, apidocgen.DefaultFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read back %s: %w", path, err)
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ wrote %s (%s, %s operations)\n",
		path, humanize.Bytes(uint64(len(data))), humanize.Comma(int64(len(doc.Operations))))

	if rep != nil && len(rep.Failures) > 0 {
		for _, f := range rep.Failures {
			fmt.Fprintf(os.Stderr, "✗ %s\n", f.Message)
		}
		return apidoc.Errorf(apidoc.CodeConstructionFailed, "%d operations failed", len(rep.Failures))
	}
	return nil
}
