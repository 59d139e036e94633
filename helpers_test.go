package apidoc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/broady/apidoc/provider"
)

type createParams struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"email"`
	Page  int    `json:"page" schema:"page,default:1"`
}

type widgetParams struct {
	Color string `json:"color"`
}

type user struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userService struct{}

func (userService) Create(ctx context.Context, p createParams) (*user, error) { return nil, nil }

func (userService) Get(ctx context.Context, id int64) (*user, error) { return nil, nil }

func paint(ctx context.Context, p widgetParams) error { return nil }

var errFactory = errors.New("factory down")

// testApp registers users.Create, users.Get and widgets.Paint. Constructing
// widgetParams always fails.
func testApp() *App {
	app := NewApp()
	provider.Factory(app.Types(), func() (widgetParams, error) { return widgetParams{}, errFactory })

	users := app.Service("users")
	users.Register("Create", userService{}.Create).Methods("POST")
	users.Register("Get", userService{}.Get).Param(1, "id", `validate:"required"`)
	app.Service("widgets").Register("Paint", paint)
	return app
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
