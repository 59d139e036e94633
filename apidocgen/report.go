package apidocgen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/ir"
	"github.com/broady/apidoc/schema"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Report is the serializable summary of a Result. Check runs exchange it
// between processes.
type Report struct {
	Document *schema.Document `json:"document"`
	Failures []*apidoc.Error  `json:"failures,omitzero"`
	Warnings []ir.Warning     `json:"warnings,omitzero"`
}

// Report summarizes r.
func (r *Result) Report() *Report {
	rep := &Report{Document: r.Document, Warnings: r.Warnings}
	for _, f := range r.Failures {
		rep.Failures = append(rep.Failures, apidoc.ToError(f).WithDetail("operation", f.Key))
	}
	return rep
}

// WriteReport encodes rep to w.
func WriteReport(w io.Writer, rep *Report) error {
	return json.MarshalWrite(w, rep, json.Deterministic(true), jsontext.WithIndent("  "))
}

// ReadReport decodes a report written by WriteReport.
func ReadReport(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// Run is the main function of generated runner programs. It generates g into
// outDir, or writes its Report to stdout when check is set, and returns the
// process exit status.
func Run(ctx context.Context, g *Generator, check bool, outDir string) int {
	var (
		res *Result
		err error
	)
	if check {
		res, err = g.Generate(ctx)
	} else {
		res, err = g.ToDir(ctx, outDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "apidoc: %v\n", err)
		return apidoc.ToError(err).Code.ExitCode()
	}

	if check {
		if err := WriteReport(os.Stdout, res.Report()); err != nil {
			fmt.Fprintf(os.Stderr, "apidoc: %v\n", err)
			return 1
		}
		return 0
	}
	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "apidoc: %v\n", f)
	}
	if len(res.Failures) > 0 {
		return apidoc.CodeConstructionFailed.ExitCode()
	}
	return 0
}
