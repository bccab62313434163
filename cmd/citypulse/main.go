package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/citypulse/internal/cli"
	"github.com/jrsteele09/citypulse/internal/config"
	"github.com/jrsteele09/citypulse/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// Replaced by the configured logger once a command loads its config.
	logging.Setup(config.DefaultLogLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{Version: Version}, os.Args[1:])
	stop()
	os.Exit(code)
}
