package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/hubauth/internal/buildinfo"
	"github.com/dmitrijs2005/hubauth/internal/client/cli"
	"github.com/dmitrijs2005/hubauth/internal/client/config"
	"github.com/dmitrijs2005/hubauth/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Options{
		Backend: cfg.LogBackend,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
