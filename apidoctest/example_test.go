package apidoctest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidoctest"
)

type Ticket struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title"`
	Opened   time.Time `json:"opened"`
	Priority int       `json:"priority"`
}

type OpenParams struct {
	Title    string `schema:"title" validate:"required,max=120"`
	Priority int    `schema:"priority,default:3"`
}

func open(ctx context.Context, p OpenParams) (*Ticket, error) { return nil, nil }

func setupApp() *apidoc.App {
	app := apidoc.NewApp()
	app.Service("tickets").Register("Open", open).Methods("POST")
	return app
}

var config = apidoc.Config{IncludeNamePrefixes: []string{"github.com/broady/apidoc/apidoctest_test."}}

func fixedClock() apidoc.Option {
	return apidoc.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) })
}

func TestAnalyze(t *testing.T) {
	doc := apidoctest.Analyze(t, setupApp(), config, fixedClock())
	op := apidoctest.Operation(t, doc, "tickets.Open")

	apidoctest.AssertParams(t, op, "title", "priority")
	if m := apidoctest.Member(t, op, "title"); !m.Required {
		t.Error("title should be required")
	}
	if m := apidoctest.Member(t, op, "return.opened"); m.Kind != "date" {
		t.Errorf("opened kind = %v", m.Kind)
	}
}

func TestAssertGolden(t *testing.T) {
	doc := apidoctest.Analyze(t, setupApp(), config, fixedClock())
	path := filepath.Join(t.TempDir(), "apidoc.json")

	t.Setenv(apidoctest.UpdateEnv, "1")
	apidoctest.AssertGolden(t, doc, path)
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	t.Setenv(apidoctest.UpdateEnv, "")
	apidoctest.AssertGolden(t, doc, path)
}
