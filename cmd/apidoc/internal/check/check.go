package check

import (
	"context"
	"fmt"
	"os"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidocgen"
	"github.com/broady/apidoc/cmd/apidoc/internal/cli"
	"github.com/broady/apidoc/schema"
	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp/v3"
)

type Cmd struct {
	cli.Target
	Dump bool `help:"Print the analysed schema trees."`
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	host, err := cli.Resolve(g, &c.Target)
	if err != nil {
		return err
	}
	if host.Export != nil {
		fmt.Printf("✓ Found export: %s() %s\n", host.Export.Name, host.Export.Type)
	} else {
		fmt.Printf("✓ Analysing directives in %s\n", host.Found.PackagePath)
	}

	rep, err := host.Check(ctx)
	if err != nil {
		return err
	}

	if c.Dump {
		p := pp.New()
		p.SetExportedOnly(true)
		p.SetColoringEnabled(!g.NoColor)
		p.Println(rep.Document)
	}

	summarize(rep)
	if n := len(rep.Failures); n > 0 {
		for _, f := range rep.Failures {
			fmt.Printf("✗ %s\n", f.Message)
			for path, msg := range f.Details {
				if path != "operation" {
					fmt.Printf("    %s: %v\n", path, msg)
				}
			}
		}
		return apidoc.Errorf(apidoc.CodeConstructionFailed, "%d operations failed", n)
	}
	fmt.Println("✓ All operations documented")
	return nil
}

func summarize(rep *apidocgen.Report) {
	var params, members int
	for _, op := range rep.Document.Operations {
		params += len(op.Parameters)
		count := func(_ []string, _ *schema.Member) bool {
			members++
			return true
		}
		for _, p := range op.Parameters {
			p.Walk(count)
		}
		if op.Return != nil {
			op.Return.Walk(count)
		}
	}
	fmt.Printf("✓ %s operations in %d groups, %s parameters, %s members\n",
		humanize.Comma(int64(len(rep.Document.Operations))),
		len(rep.Document.Groups()),
		humanize.Comma(int64(params)),
		humanize.Comma(int64(members)))
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Code, w.Message)
	}
}
