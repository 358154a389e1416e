// Command qabox is the client for the anonymous question box: visitors ask
// and track questions, and the console owner logs in to moderate them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/qabox/internal/config"
	"github.com/ericfisherdev/qabox/internal/domain/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(newEnv()).Run(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// env carries the process boundaries so commands can run against test
// writers and transports.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	base   http.RoundTripper
}

func newEnv() env {
	return env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// withApp loads configuration, wires the services for this invocation and
// releases them when fn returns.
func (e env) withApp(ctx context.Context, cmd *cli.Command, fn func(*app, printer) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(e.stderr, cfg.LogLevel)

	a, err := newApp(ctx, cfg, logger, e.base)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error closing session state", "error", closeErr)
		}
	}()

	return fn(a, printer{w: e.stdout, json: cmd.Bool("json")})
}

// hintFor suggests the next step for errors a user can fix.
func hintFor(err error) string {
	switch {
	case errors.Is(err, model.ErrLoginRequired), errors.Is(err, model.ErrUnauthorized):
		return "console session required: run `qabox admin login`"
	default:
		return ""
	}
}
