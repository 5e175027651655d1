// goexpect drives interactive programs: it sends input to a spawned
// command, a TCP peer or a remote SSH session and waits for its output
// to match.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goexpect/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "goexpect: %v\n", err)
		cancel()
		os.Exit(cmd.ExitCode(err))
	}
}
