package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/broady/apidoc"
	"github.com/broady/apidoc/cmd/apidoc/internal/check"
	"github.com/broady/apidoc/cmd/apidoc/internal/cli"
	"github.com/broady/apidoc/cmd/apidoc/internal/gen"
)

type CLI struct {
	cli.Globals

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate apidoc.json."`
	Check   check.Cmd  `cmd:"" help:"Analyse operations without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var c CLI
	k := kong.Parse(&c,
		kong.Name("apidoc"),
		kong.Description("Document Go API operations as schema trees."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := k.Run(&c.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "apidoc: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return apidoc.ToError(err).Code.ExitCode()
}
