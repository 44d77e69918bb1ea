package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/crossquery/crossquery/internal/cli/crossqueryctl"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := crossqueryctl.NewRootCommand(version)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
