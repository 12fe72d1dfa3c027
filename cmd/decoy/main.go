// File: cmd/decoy/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/decoy-cli/cmd"
	"github.com/xkilldash9x/decoy-cli/internal/observability"
)

// Injection points for tests.
var (
	osExit = os.Exit
	osArgs = os.Args
)

func main() {
	defer handlePanic()

	// SIGINT and SIGTERM cancel the run context; loops drain and teardown
	// completes before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx, osArgs[1:])
	observability.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// A signal stopped the run mid-flight; that is a clean exit.
			osExit(0)
			return
		}
		osExit(1)
	}
}

// handlePanic keeps a crash from dying silently: the trace goes to stderr
// and the process exits non-zero.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()
		fmt.Fprintf(os.Stderr, "panic: %v\n\n%s", r, debug.Stack())
		osExit(1)
	}
}
