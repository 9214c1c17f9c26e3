package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "webhelper: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Wipe sealed secrets on exit.
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}
