package main

import (
	"context"

	"github.com/broady/apidoc"
	"github.com/broady/apidoc/apidocgen"
)

type Greeting struct {
	Text string `json:"text"`
}

func Hello(ctx context.Context, name string) (*Greeting, error) { return nil, nil }

func SetupApp() *apidoc.App {
	app := apidoc.NewApp()
	app.Service("greeter").Register("Hello", Hello)
	return app
}

func Gen() *apidocgen.Generator {
	return apidocgen.FromApp(SetupApp())
}

type builder struct{}

func (builder) Build() *apidoc.App { return nil }

func named(name string) *apidoc.App { return nil }

func main() {}
