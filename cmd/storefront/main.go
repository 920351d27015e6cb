package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/storefront"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs one command and returns the process exit code. Failures from
// storefront operations are printed as customer-facing messages.
func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	c.close()
	if err == nil {
		return 0
	}
	if c.app != nil {
		c.logger.Debug("command failed", zap.Error(err))
		fmt.Fprintln(stderr, storefront.UserMessage(err))
	} else {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return 1
}
