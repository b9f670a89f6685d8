package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"multislave-config/cmd/app"
	"multislave-config/internal/cli"
	"multislave-config/internal/common"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := flag.NewFlagSet("multislave", flag.ContinueOnError)
	configFile := fs.String("config", "", "configuration file")
	logLevel := fs.String("log-level", "", "override app.log_level")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}

	cfg, err := app.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.App.LogLevel = *logLevel
	}

	logger := common.NewLogger(common.LoggerConfig{
		Level:     common.ParseLogLevel(cfg.App.LogLevel),
		Output:    os.Stderr,
		Component: cfg.App.Component,
	})
	ctx = common.ContextWithLogger(ctx, logger)

	if err := cli.Run(ctx, cfg, fs.Args(), os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		logger.Error("Command failed", "command", fs.Arg(0), "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
