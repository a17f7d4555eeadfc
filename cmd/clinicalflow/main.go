package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeyyy09/clinical-flow/internal/cli"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	_ = infrastructure.CloseLogFile()
	os.Exit(code)
}
