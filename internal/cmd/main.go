// Package cmd implements the notionctl command line.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"
	"github.com/samvad-hq/notion-records/internal/app"
	"github.com/samvad-hq/notion-records/internal/config"
	"github.com/samvad-hq/notion-records/internal/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  Version,
		Commands: Commands(ctx, ui, openRuntime),
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cliName, err)
		return 1
	}
	return exitCode
}

// openRuntime loads config and logging, then builds the records runtime.
func openRuntime(ctx context.Context) (Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.DebugObj("notionctl starting", "config", cfg.Redacted())

	rec, err := app.NewRecords(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err.Error())
		_ = logger.Close()
		return nil, err
	}
	return &closingRuntime{Records: rec}, nil
}

// closingRuntime flushes the logger after the runtime is closed.
type closingRuntime struct {
	*app.Records
}

func (c *closingRuntime) Close() error {
	err := c.Records.Close()
	_ = logger.Close()
	return err
}
