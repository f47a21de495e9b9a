package main

import (
	"context"
	"embed"
	"io/fs"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/cli"
	"github.com/connstate/connstate/server/logformatter"
	"github.com/connstate/connstate/server/logger"
	"github.com/connstate/connstate/server/multierr"
)

const gitDescribe string = "v0.0.0"

// The all: prefix is required so that the underscore-prefixed template
// partials are embedded too.
//
//go:embed all:server/templates
var templatesFS embed.FS

func start(ctx context.Context, log logger.Logger, args []string) error {
	templates, err := fs.Sub(templatesFS, "server/templates")
	if err != nil {
		return errors.Trace(err)
	}

	err = cli.Exec(ctx, cli.Props{
		Log:     log,
		Version: gitDescribe,
		Args:    args,
		Embed: server.Embed{
			Templates: templates,
		},
	})

	return errors.Trace(err)
}

func main() {
	log := logger.New().
		WithConfig(
			logger.NewConfig(logger.ConfigMap{
				"**:ws":    logger.LevelError,
				"**:wss":   logger.LevelInfo,
				"**:redis": logger.LevelInfo,
				"**:conn":  logger.LevelInfo,
				"":         logger.LevelInfo,
			}),
		).
		WithConfig(logger.NewConfigFromString(os.Getenv("CONNSTATE_LOG"))).
		WithFormatter(logformatter.New()).
		WithNamespaceAppended("main")

	err := start(context.Background(), log, os.Args[1:])

	if multierr.Is(err, pflag.ErrHelp) {
		os.Exit(1)
	} else if err != nil {
		log.Error("Command error", errors.Trace(err), nil)
		os.Exit(1)
	}
}
