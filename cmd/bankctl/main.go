// Command bankctl operates a bankledger data store from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	executed, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	message, code := describe(executed.Name(), err)
	fmt.Fprintln(stderr, message)
	if code == exitUsage {
		fmt.Fprintln(stderr, executed.UsageString())
	}

	return code
}
